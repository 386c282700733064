// SPDX-FileCopyrightText: 2018 - 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package ofono

import (
	"github.com/godbus/dbus/v5"
)

type ErrorCallback func(err error)

func errorReply(cb ErrorCallback) func(*Reply) {
	return func(r *Reply) {
		if cb != nil {
			cb(r.Err)
		}
	}
}

func fail(cb ErrorCallback, err error) *PendingCall {
	if cb != nil {
		cb(err)
	}
	return nil
}

// Dial calls number. hideCallerID is "", "enabled" or "disabled". cb gets
// the call once both the reply and CallAdded have been seen.
func (c *Client) Dial(number, hideCallerID string, cb CallResultCallback) *PendingCall {
	if cb == nil {
		cb = func(*Call, error) {}
	}
	m, err := c.requireModem(APIVoiceCallManager)
	if err != nil {
		cb(nil, err)
		return nil
	}
	if number == "" {
		cb(nil, newError(ErrorFailed, "empty number"))
		return nil
	}
	logger.Info("dial", number)
	var p *PendingCall
	p = m.send(ifaceVoiceCallManager, "Dial", func(r *Reply) {
		if r.Err != nil {
			cb(nil, r.Err)
			return
		}
		var path dbus.ObjectPath
		err := r.Store(&path)
		if err != nil {
			logger.Warning("bad Dial reply:", err)
			cb(nil, newError(ErrorFailed, err.Error()))
			return
		}
		m.dialReplied(path, cb, p)
	}, number, hideCallerID)
	return p
}

func (c *Client) voiceManagerCall(method string, cb ErrorCallback, args ...interface{}) *PendingCall {
	m, err := c.requireModem(APIVoiceCallManager)
	if err != nil {
		return fail(cb, err)
	}
	return m.send(ifaceVoiceCallManager, method, errorReply(cb), args...)
}

// Transfer joins the active and held calls and leaves.
func (c *Client) Transfer(cb ErrorCallback) *PendingCall {
	return c.voiceManagerCall("Transfer", cb)
}

func (c *Client) SwapCalls(cb ErrorCallback) *PendingCall {
	return c.voiceManagerCall("SwapCalls", cb)
}

func (c *Client) ReleaseAndAnswer(cb ErrorCallback) *PendingCall {
	return c.voiceManagerCall("ReleaseAndAnswer", cb)
}

func (c *Client) ReleaseAndSwap(cb ErrorCallback) *PendingCall {
	return c.voiceManagerCall("ReleaseAndSwap", cb)
}

func (c *Client) HoldAndAnswer(cb ErrorCallback) *PendingCall {
	return c.voiceManagerCall("HoldAndAnswer", cb)
}

func (c *Client) HangupAll(cb ErrorCallback) *PendingCall {
	return c.voiceManagerCall("HangupAll", cb)
}

// CreateMultiparty merges the active and held calls into a conference.
func (c *Client) CreateMultiparty(cb ErrorCallback) *PendingCall {
	return c.voiceManagerCall("CreateMultiparty", cb)
}

func (c *Client) HangupMultiparty(cb ErrorCallback) *PendingCall {
	return c.voiceManagerCall("HangupMultiparty", cb)
}

// SendTones plays DTMF tones on the active call.
func (c *Client) SendTones(tones string, cb ErrorCallback) *PendingCall {
	if tones == "" {
		return fail(cb, newError(ErrorFailed, "empty tones"))
	}
	return c.voiceManagerCall("SendTones", cb, tones)
}

// PrivateChat splits call out of the conference.
func (c *Client) PrivateChat(call *Call, cb ErrorCallback) *PendingCall {
	if call == nil {
		return fail(cb, newError(ErrorFailed, "no call"))
	}
	return c.voiceManagerCall("PrivateChat", cb, call.path)
}

func (c *Client) VoiceIsOnline() bool {
	m := c.SelectedModem()
	return m != nil && m.interfaces.Has(APIVoiceCallManager)
}

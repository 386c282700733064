// SPDX-FileCopyrightText: 2018 - 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package ofono

import (
	"github.com/godbus/dbus/v5"
)

type StringCallback func(result string, err error)

// SendMessage sends text to destination. cb gets the SentMessage once both
// the reply and MessageAdded have been seen; later state changes go to the
// sent message listeners.
func (c *Client) SendMessage(destination, text string, cb SentMessageCallback) *PendingCall {
	if cb == nil {
		cb = func(error, *SentMessage) {}
	}
	m, err := c.requireModem(APIMessageManager)
	if err != nil {
		cb(err, nil)
		return nil
	}
	if destination == "" || text == "" {
		cb(newError(ErrorFailed, "empty destination or message"), nil)
		return nil
	}
	ctx := &sendContext{
		destination: destination,
		message:     text,
		cb:          cb,
	}
	var p *PendingCall
	p = m.send(ifaceMessageManager, "SendMessage", func(r *Reply) {
		if r.Err != nil {
			cb(r.Err, nil)
			return
		}
		var path dbus.ObjectPath
		err := r.Store(&path)
		if err != nil {
			logger.Warning("bad SendMessage reply:", err)
			cb(newError(ErrorFailed, err.Error()), nil)
			return
		}
		m.sendReplied(path, ctx, p)
	}, destination, text)
	return p
}

func (c *Client) ServiceCenterAddress() string {
	m := c.SelectedModem()
	if m == nil {
		return ""
	}
	return m.serviceCenterAddress
}

func (c *Client) UseDeliveryReports() bool {
	m := c.SelectedModem()
	return m != nil && m.useDeliveryReports
}

func (c *Client) MessageBearer() string {
	m := c.SelectedModem()
	if m == nil {
		return ""
	}
	return m.bearer
}

func (c *Client) MessageAlphabet() string {
	m := c.SelectedModem()
	if m == nil {
		return ""
	}
	return m.alphabet
}

// SSInitiate sends a supplementary service command such as "*#21#". A
// reply that cannot be rendered fails with ErrorNotSupported, the caller
// may then dial the command instead.
func (c *Client) SSInitiate(command string, cb StringCallback) *PendingCall {
	if cb == nil {
		cb = func(string, error) {}
	}
	m, err := c.requireModem(APISupplementaryServices)
	if err != nil {
		cb("", err)
		return nil
	}
	if command == "" {
		cb("", newError(ErrorFailed, "empty command"))
		return nil
	}
	return m.send(ifaceSupplementaryServices, "Initiate", func(r *Reply) {
		if r.Err != nil {
			cb("", r.Err)
			return
		}
		var typeTag string
		var payload dbus.Variant
		err := r.Store(&typeTag, &payload)
		if err != nil {
			logger.Warning("bad Initiate reply:", err)
			cb("", newError(ErrorNotSupported, err.Error()))
			return
		}
		text, err := ConvertSSReply(typeTag, payload)
		if err != nil {
			logger.Warning(err)
			cb("", newError(ErrorNotSupported, err.Error()))
			return
		}
		cb(text, nil)
	}, command)
}

// USSDRespond answers a network request received while the USSD state is
// user-response.
func (c *Client) USSDRespond(reply string, cb StringCallback) *PendingCall {
	if cb == nil {
		cb = func(string, error) {}
	}
	m, err := c.requireModem(APISupplementaryServices)
	if err != nil {
		cb("", err)
		return nil
	}
	return m.send(ifaceSupplementaryServices, "Respond", func(r *Reply) {
		if r.Err != nil {
			cb("", r.Err)
			return
		}
		var text string
		err := r.Store(&text)
		if err != nil {
			cb("", newError(ErrorFailed, err.Error()))
			return
		}
		cb(text, nil)
	}, reply)
}

func (c *Client) USSDCancel(cb ErrorCallback) *PendingCall {
	m, err := c.requireModem(APISupplementaryServices)
	if err != nil {
		return fail(cb, err)
	}
	return m.send(ifaceSupplementaryServices, "Cancel", errorReply(cb))
}

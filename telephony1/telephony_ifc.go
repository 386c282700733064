// SPDX-FileCopyrightText: 2018 - 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package telephony

import (
	"github.com/godbus/dbus/v5"
	"github.com/linuxdeepin/dde-telephony/ofono"
)

func notFound(what string, path dbus.ObjectPath) error {
	return &ofono.Error{Kind: ofono.ErrorNotFound, Message: what + " " + string(path)}
}

// findCall must run inside the loop.
func (t *Telephony) findCall(path dbus.ObjectPath) *ofono.Call {
	m := t.client.SelectedModem()
	if m == nil {
		return nil
	}
	return m.Call(path)
}

// findSentMessage must run inside the loop.
func (t *Telephony) findSentMessage(path dbus.ObjectPath) *ofono.SentMessage {
	m := t.client.SelectedModem()
	if m == nil {
		return nil
	}
	for _, sms := range m.SentMessages() {
		if sms.Path() == path {
			return sms
		}
	}
	return nil
}

// Dial calls number and returns the path of the new call once oFono has
// announced it.
func (t *Telephony) Dial(number, hideCallerID string) (call dbus.ObjectPath, busErr *dbus.Error) {
	logger.Debugf("Dial %q %q", number, hideCallerID)
	var path dbus.ObjectPath
	err := t.await("Dial", func(done func(error)) *ofono.PendingCall {
		return t.client.Dial(number, hideCallerID, func(c *ofono.Call, err error) {
			if c != nil {
				path = c.Path()
			}
			done(err)
		})
	})
	if err != nil {
		return "", toBusError(err)
	}
	return path, nil
}

func (t *Telephony) Hangup(call dbus.ObjectPath) *dbus.Error {
	logger.Debugf("Hangup %q", call)
	err := t.await("Hangup", func(done func(error)) *ofono.PendingCall {
		c := t.findCall(call)
		if c == nil {
			done(notFound("call", call))
			return nil
		}
		return c.Hangup(done)
	})
	return toBusError(err)
}

func (t *Telephony) Answer(call dbus.ObjectPath) *dbus.Error {
	logger.Debugf("Answer %q", call)
	err := t.await("Answer", func(done func(error)) *ofono.PendingCall {
		c := t.findCall(call)
		if c == nil {
			done(notFound("call", call))
			return nil
		}
		return c.Answer(done)
	})
	return toBusError(err)
}

func (t *Telephony) voiceCall(method string, fn func(c *ofono.Client, cb ofono.ErrorCallback) *ofono.PendingCall) *dbus.Error {
	logger.Debug(method)
	err := t.await(method, func(done func(error)) *ofono.PendingCall {
		return fn(t.client, done)
	})
	return toBusError(err)
}

func (t *Telephony) Transfer() *dbus.Error {
	return t.voiceCall("Transfer", (*ofono.Client).Transfer)
}

func (t *Telephony) SwapCalls() *dbus.Error {
	return t.voiceCall("SwapCalls", (*ofono.Client).SwapCalls)
}

func (t *Telephony) ReleaseAndAnswer() *dbus.Error {
	return t.voiceCall("ReleaseAndAnswer", (*ofono.Client).ReleaseAndAnswer)
}

func (t *Telephony) ReleaseAndSwap() *dbus.Error {
	return t.voiceCall("ReleaseAndSwap", (*ofono.Client).ReleaseAndSwap)
}

func (t *Telephony) HoldAndAnswer() *dbus.Error {
	return t.voiceCall("HoldAndAnswer", (*ofono.Client).HoldAndAnswer)
}

func (t *Telephony) HangupAll() *dbus.Error {
	return t.voiceCall("HangupAll", (*ofono.Client).HangupAll)
}

func (t *Telephony) CreateMultiparty() *dbus.Error {
	return t.voiceCall("CreateMultiparty", (*ofono.Client).CreateMultiparty)
}

func (t *Telephony) HangupMultiparty() *dbus.Error {
	return t.voiceCall("HangupMultiparty", (*ofono.Client).HangupMultiparty)
}

func (t *Telephony) SendTones(tones string) *dbus.Error {
	logger.Debugf("SendTones %q", tones)
	err := t.await("SendTones", func(done func(error)) *ofono.PendingCall {
		return t.client.SendTones(tones, done)
	})
	return toBusError(err)
}

func (t *Telephony) PrivateChat(call dbus.ObjectPath) *dbus.Error {
	logger.Debugf("PrivateChat %q", call)
	err := t.await("PrivateChat", func(done func(error)) *ofono.PendingCall {
		c := t.findCall(call)
		if c == nil {
			done(notFound("call", call))
			return nil
		}
		return t.client.PrivateChat(c, done)
	})
	return toBusError(err)
}

func (t *Telephony) ChangePin(pinType, oldPin, newPin string) *dbus.Error {
	logger.Debugf("ChangePin %q", pinType)
	err := t.await("ChangePin", func(done func(error)) *ofono.PendingCall {
		return t.client.ChangePin(pinType, oldPin, newPin, done)
	})
	return toBusError(err)
}

func (t *Telephony) ResetPin(pinType, puk, newPin string) *dbus.Error {
	logger.Debugf("ResetPin %q", pinType)
	err := t.await("ResetPin", func(done func(error)) *ofono.PendingCall {
		return t.client.ResetPin(pinType, puk, newPin, done)
	})
	return toBusError(err)
}

func (t *Telephony) SetMuted(muted bool) *dbus.Error {
	err := t.await("SetMuted", func(done func(error)) *ofono.PendingCall {
		return t.client.SetMuted(muted, done)
	})
	return toBusError(err)
}

func (t *Telephony) SetSpeakerVolume(volume uint8) *dbus.Error {
	err := t.await("SetSpeakerVolume", func(done func(error)) *ofono.PendingCall {
		return t.client.SetSpeakerVolume(volume, done)
	})
	return toBusError(err)
}

func (t *Telephony) SetMicrophoneVolume(volume uint8) *dbus.Error {
	err := t.await("SetMicrophoneVolume", func(done func(error)) *ofono.PendingCall {
		return t.client.SetMicrophoneVolume(volume, done)
	})
	return toBusError(err)
}

func (t *Telephony) SetPowered(powered bool) *dbus.Error {
	logger.Debug("SetPowered", powered)
	err := t.await("SetPowered", func(done func(error)) *ofono.PendingCall {
		return t.client.SetPowered(powered, done)
	})
	return toBusError(err)
}

// SSInitiate runs a supplementary service command. A NotSupported error
// tells the caller to dial the command instead.
func (t *Telephony) SSInitiate(command string) (result string, busErr *dbus.Error) {
	logger.Debugf("SSInitiate %q", command)
	var text string
	err := t.await("SSInitiate", func(done func(error)) *ofono.PendingCall {
		return t.client.SSInitiate(command, func(result string, err error) {
			text = result
			done(err)
		})
	})
	if err != nil {
		return "", toBusError(err)
	}
	return text, nil
}

func (t *Telephony) USSDRespond(reply string) (result string, busErr *dbus.Error) {
	var text string
	err := t.await("USSDRespond", func(done func(error)) *ofono.PendingCall {
		return t.client.USSDRespond(reply, func(result string, err error) {
			text = result
			done(err)
		})
	})
	if err != nil {
		return "", toBusError(err)
	}
	return text, nil
}

func (t *Telephony) USSDCancel() *dbus.Error {
	err := t.await("USSDCancel", func(done func(error)) *ofono.PendingCall {
		return t.client.USSDCancel(done)
	})
	return toBusError(err)
}

// SendMessage returns the path of the sent message, its later states are
// reported by SentMessageChanged.
func (t *Telephony) SendMessage(to, text string) (message dbus.ObjectPath, busErr *dbus.Error) {
	logger.Debugf("SendMessage to %q", to)
	var path dbus.ObjectPath
	err := t.await("SendMessage", func(done func(error)) *ofono.PendingCall {
		return t.client.SendMessage(to, text, func(err error, sms *ofono.SentMessage) {
			if sms != nil {
				path = sms.Path()
			}
			done(err)
		})
	})
	if err != nil {
		return "", toBusError(err)
	}
	return path, nil
}

func (t *Telephony) CancelMessage(message dbus.ObjectPath) *dbus.Error {
	logger.Debugf("CancelMessage %q", message)
	err := t.await("CancelMessage", func(done func(error)) *ofono.PendingCall {
		sms := t.findSentMessage(message)
		if sms == nil {
			done(notFound("message", message))
			return nil
		}
		return sms.Cancel(done)
	})
	return toBusError(err)
}

// GetModem returns the selected modem as JSON, "null" when there is none.
func (t *Telephony) GetModem() (modemJSON string, busErr *dbus.Error) {
	err := t.query(func() {
		modemJSON = marshalJSON(t.newModemInfo(t.client.SelectedModem()))
	})
	return modemJSON, toBusError(err)
}

func (t *Telephony) GetModems() (modemsJSON string, busErr *dbus.Error) {
	err := t.query(func() {
		infos := make([]*modemInfo, 0)
		for _, m := range t.client.Modems() {
			infos = append(infos, t.newModemInfo(m))
		}
		modemsJSON = marshalJSON(infos)
	})
	return modemsJSON, toBusError(err)
}

// GetCalls returns the calls of the selected modem as JSON.
func (t *Telephony) GetCalls() (callsJSON string, busErr *dbus.Error) {
	err := t.query(func() {
		infos := make([]*callInfo, 0)
		if m := t.client.SelectedModem(); m != nil {
			for _, call := range m.Calls() {
				infos = append(infos, newCallInfo(call))
			}
		}
		callsJSON = marshalJSON(infos)
	})
	return callsJSON, toBusError(err)
}

func (t *Telephony) VoiceIsOnline() (online bool, busErr *dbus.Error) {
	err := t.query(func() {
		online = t.client.VoiceIsOnline()
	})
	return online, toBusError(err)
}

// SetModemPath pins the modem to use, an empty path goes back to automatic
// selection.
func (t *Telephony) SetModemPath(modem dbus.ObjectPath) *dbus.Error {
	logger.Debugf("SetModemPath %q", modem)
	if modem != "" && !modem.IsValid() {
		return toBusError(&ofono.Error{Kind: ofono.ErrorInvalidArgs, Message: string(modem)})
	}
	err := t.query(func() {
		t.cfgMu.Lock()
		t.cfg.ModemPath = string(modem)
		t.cfgMu.Unlock()
		t.client.SetModemPathWanted(modem)
	})
	return toBusError(err)
}

// RequireModemApi sets the comma separated interfaces a modem must offer.
func (t *Telephony) RequireModemApi(apis string) *dbus.Error {
	logger.Debugf("RequireModemApi %q", apis)
	var reqErr error
	err := t.query(func() {
		reqErr = t.client.ModemAPIRequire(apis)
		if reqErr == nil {
			t.cfgMu.Lock()
			t.cfg.ModemAPI = apis
			t.cfgMu.Unlock()
		}
	})
	if err == nil && reqErr != nil {
		err = &ofono.Error{Kind: ofono.ErrorInvalidArgs, Message: reqErr.Error()}
	}
	return toBusError(err)
}

// RequireModemType sets the comma separated modem types to use.
func (t *Telephony) RequireModemType(types string) *dbus.Error {
	logger.Debugf("RequireModemType %q", types)
	var reqErr error
	err := t.query(func() {
		reqErr = t.client.ModemTypeRequire(types)
		if reqErr == nil {
			t.cfgMu.Lock()
			t.cfg.ModemType = types
			t.cfgMu.Unlock()
		}
	})
	if err == nil && reqErr != nil {
		err = &ofono.Error{Kind: ofono.ErrorInvalidArgs, Message: reqErr.Error()}
	}
	return toBusError(err)
}

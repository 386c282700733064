// SPDX-FileCopyrightText: 2018 - 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package ofono

import (
	"time"

	"github.com/godbus/dbus/v5"
	"golang.org/x/xerrors"
)

type SentMessageState int

const (
	SentMessageStatePending SentMessageState = iota
	SentMessageStateSent
	SentMessageStateFailed
)

func parseSentMessageState(s string) SentMessageState {
	switch s {
	case "pending":
		return SentMessageStatePending
	case "sent":
		return SentMessageStateSent
	case "failed":
		return SentMessageStateFailed
	}
	logger.Warningf("unknown message state %q", s)
	return SentMessageStateFailed
}

func (s SentMessageState) String() string {
	switch s {
	case SentMessageStatePending:
		return "pending"
	case SentMessageStateSent:
		return "sent"
	}
	return "failed"
}

type sendContext struct {
	destination string
	message     string
	cb          SentMessageCallback
}

type SentMessage struct {
	busObject
	modem *Modem

	state       SentMessageState
	destination string
	message     string
	timestamp   time.Time

	added       bool
	pendingSend *sendContext
}

func newSentMessage(m *Modem, path dbus.ObjectPath) *SentMessage {
	sms := &SentMessage{
		modem: m,
		state: SentMessageStatePending,
	}
	sms.init(m.client, m.dest, path)
	sms.listen(ifaceMessage, "PropertyChanged", sms.handlePropertyChanged)
	return sms
}

func (sms *SentMessage) updateProperty(key string, v dbus.Variant) bool {
	if key != "State" {
		logger.Debugf("message %s: ignore property %s", sms.path, key)
		return false
	}
	s, ok := variantString(key, v)
	if !ok {
		return false
	}
	state := parseSentMessageState(s)
	if state == sms.state {
		return false
	}
	sms.state = state
	return true
}

// Every State delivery is reported, repeated ones included.
func (sms *SentMessage) handlePropertyChanged(sig *dbus.Signal) {
	key, value, err := decodePropertyChanged(sig)
	if err != nil {
		logger.Warning(err)
		return
	}
	sms.updateProperty(key, value)
	if key == "State" && sms.added {
		sms.client.notifySentMessageChanged(nil, sms)
	}
}

func (sms *SentMessage) apply(ctx *sendContext) {
	sms.destination = ctx.destination
	sms.message = ctx.message
	sms.timestamp = sms.client.clock.Now()
}

func (sms *SentMessage) destroy() {
	if ctx := sms.pendingSend; ctx != nil {
		sms.pendingSend = nil
		ctx.cb(errCanceled, nil)
	}
	sms.busObject.destroy()
}

// Cancel aborts sending this message.
func (sms *SentMessage) Cancel(cb ErrorCallback) *PendingCall {
	return sms.send(ifaceMessage, "Cancel", errorReply(cb))
}

func (sms *SentMessage) Modem() *Modem {
	return sms.modem
}

func (sms *SentMessage) State() SentMessageState {
	return sms.state
}

func (sms *SentMessage) Destination() string {
	return sms.destination
}

func (sms *SentMessage) Message() string {
	return sms.message
}

func (sms *SentMessage) Timestamp() time.Time {
	return sms.timestamp
}

func (m *Modem) handleMessageAdded(sig *dbus.Signal) {
	path, props, err := decodePathProperties(sig.Body)
	if err != nil {
		logger.Warningf("bad MessageAdded from %s: %v", m.path, err)
		return
	}
	m.addSentMessage(path, props)
}

func (m *Modem) handleMessageRemoved(sig *dbus.Signal) {
	var path dbus.ObjectPath
	err := dbus.Store(sig.Body, &path)
	if err != nil {
		logger.Warningf("bad MessageRemoved from %s: %v", m.path, err)
		return
	}
	sms := m.sentMessages[path]
	if sms == nil {
		logger.Debug("remove unknown message", path)
		return
	}
	m.removeSentMessage(sms)
}

func (m *Modem) addSentMessage(path dbus.ObjectPath, props Properties) *SentMessage {
	sms := m.sentMessages[path]
	if sms == nil {
		sms = newSentMessage(m, path)
		m.sentMessages[path] = sms
	}
	sms.added = true
	updateProperties(props, sms.updateProperty)

	if ctx := sms.pendingSend; ctx != nil {
		sms.pendingSend = nil
		sms.apply(ctx)
		ctx.cb(nil, sms)
	}
	m.client.notifySentMessageChanged(nil, sms)
	return sms
}

// sendReplied handles the path returned by SendMessage.
func (m *Modem) sendReplied(path dbus.ObjectPath, ctx *sendContext, p *PendingCall) {
	sms := m.sentMessages[path]
	if sms != nil && sms.added {
		// MessageAdded came first and was reported without a body
		sms.apply(ctx)
		ctx.cb(nil, sms)
		m.client.notifySentMessageChanged(nil, sms)
		return
	}
	if sms == nil {
		sms = newSentMessage(m, path)
		m.sentMessages[path] = sms
	}
	if prev := sms.pendingSend; prev != nil {
		logger.Warning("another send waits on", path)
		prev.cb(newError(ErrorFailed, "send superseded"), nil)
	}
	sms.pendingSend = ctx
	if p == nil {
		return
	}
	p.awaiting = func() {
		if sms.pendingSend != ctx {
			return
		}
		sms.pendingSend = nil
		if !sms.added && m.sentMessages[path] == sms {
			m.removeSentMessage(sms)
		}
		ctx.cb(errCanceled, nil)
	}
}

func (m *Modem) removeSentMessage(sms *SentMessage) {
	delete(m.sentMessages, sms.path)
	sms.destroy()
}

// IncomingMessage is a text received by the modem. It is not kept anywhere.
type IncomingMessage struct {
	Modem         *Modem
	Class         int
	Sender        string
	Message       string
	SentTime      time.Time
	LocalSentTime time.Time
}

func decodeIncomingMessage(body []interface{}) (*IncomingMessage, error) {
	var text string
	var info map[string]dbus.Variant
	err := dbus.Store(body, &text, &info)
	if err != nil {
		return nil, xerrors.Errorf("bad message body: %w", err)
	}

	msg := &IncomingMessage{Message: text}
	var sender, local, sent string
	if v, ok := info["Sender"]; ok {
		sender, _ = variantString("Sender", v)
	}
	if sender == "" {
		return nil, xerrors.New("message has no sender")
	}
	msg.Sender = sender

	if v, ok := info["LocalSentTime"]; ok {
		local, _ = variantString("LocalSentTime", v)
	}
	if local == "" {
		return nil, xerrors.New("message has no local sent time")
	}
	msg.LocalSentTime, err = parseTime(local)
	if err != nil {
		return nil, err
	}

	if v, ok := info["SentTime"]; ok {
		sent, _ = variantString("SentTime", v)
	}
	if sent != "" {
		msg.SentTime, err = parseTime(sent)
		if err != nil {
			logger.Warning(err)
		}
	}
	return msg, nil
}

// handleIncomingMessage assembles an IncomingMessage. Only class 1 messages
// reach the listeners.
func (m *Modem) handleIncomingMessage(sig *dbus.Signal, class int) {
	msg, err := decodeIncomingMessage(sig.Body)
	if err != nil {
		logger.Warningf("drop incoming message on %s: %v", m.path, err)
		return
	}
	msg.Modem = m
	msg.Class = class
	if class != 1 {
		logger.Debugf("drop class %d message from %s", class, msg.Sender)
		return
	}
	m.client.cbs.incomingMessage.each(func(fn IncomingMessageCallback) {
		fn(msg)
	})
}

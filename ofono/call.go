// SPDX-FileCopyrightText: 2018 - 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package ofono

import (
	"time"

	"github.com/godbus/dbus/v5"
)

type CallState int

const (
	CallStateDisconnected CallState = iota
	CallStateActive
	CallStateHeld
	CallStateDialing
	CallStateAlerting
	CallStateIncoming
	CallStateWaiting
)

var callStateNames = map[string]CallState{
	"disconnected": CallStateDisconnected,
	"active":       CallStateActive,
	"held":         CallStateHeld,
	"dialing":      CallStateDialing,
	"alerting":     CallStateAlerting,
	"incoming":     CallStateIncoming,
	"waiting":      CallStateWaiting,
}

func parseCallState(s string) CallState {
	state, ok := callStateNames[s]
	if !ok {
		logger.Warningf("unknown call state %q", s)
		return CallStateDisconnected
	}
	return state
}

func (s CallState) String() string {
	for name, state := range callStateNames {
		if state == s {
			return name
		}
	}
	return "unknown"
}

// Priority ranks states when picking the call shown in the foreground.
func (s CallState) Priority() int {
	switch s {
	case CallStateActive:
		return 6
	case CallStateDialing:
		return 5
	case CallStateAlerting:
		return 4
	case CallStateHeld:
		return 3
	case CallStateIncoming:
		return 2
	case CallStateWaiting:
		return 1
	}
	return 0
}

type CallResultCallback func(call *Call, err error)

type dialContext struct {
	cb CallResultCallback
}

type Call struct {
	busObject
	modem *Modem

	lineID       string
	incomingLine string
	name         string
	state        CallState
	multiparty   bool
	emergency    bool

	// startTime is in loop clock seconds and is negative for calls that
	// started before the client. fullStartTime is zero until a start is known.
	startTime     float64
	fullStartTime time.Time

	// added is set once CallAdded or GetCalls told about the call.
	added       bool
	pendingDial *dialContext
}

func newCall(m *Modem, path dbus.ObjectPath) *Call {
	call := &Call{
		modem:     m,
		state:     CallStateDisconnected,
		startTime: -1,
	}
	call.init(m.client, m.dest, path)
	call.listen(ifaceVoiceCall, "PropertyChanged", call.handlePropertyChanged)
	call.listen(ifaceVoiceCall, "DisconnectReason", call.handleDisconnectReason)
	return call
}

func (call *Call) updateProperty(key string, v dbus.Variant) bool {
	switch key {
	case "LineIdentification":
		return setString(&call.lineID, key, v)
	case "IncomingLine":
		return setString(&call.incomingLine, key, v)
	case "Name":
		return setString(&call.name, key, v)
	case "Multiparty":
		return setBool(&call.multiparty, key, v)
	case "Emergency":
		return setBool(&call.emergency, key, v)
	case "State":
		s, ok := variantString(key, v)
		if !ok {
			return false
		}
		return call.setState(parseCallState(s))
	case "StartTime":
		s, ok := variantString(key, v)
		if !ok {
			return false
		}
		t, err := parseTime(s)
		if err != nil {
			logger.Warningf("call %s: %v", call.path, err)
			return false
		}
		if t.Equal(call.fullStartTime) {
			return false
		}
		clock := call.client.clock
		call.startTime = t.Sub(clock.Now()).Seconds() + clock.LoopTime()
		call.fullStartTime = t
		return true
	}
	logger.Debugf("call %s: ignore property %s", call.path, key)
	return false
}

func (call *Call) setState(state CallState) bool {
	if state == call.state {
		return false
	}
	logger.Debugf("call %s: %s -> %s", call.path, call.state, state)
	call.state = state
	if state == CallStateActive {
		clock := call.client.clock
		if call.fullStartTime.IsZero() {
			call.startTime = clock.LoopTime()
			call.fullStartTime = clock.Now()
		}
	}
	return true
}

func (call *Call) handlePropertyChanged(sig *dbus.Signal) {
	key, value, err := decodePropertyChanged(sig)
	if err != nil {
		logger.Warning(err)
		return
	}
	if call.updateProperty(key, value) && call.added {
		call.client.notifyCallChanged(call)
	}
}

func (call *Call) handleDisconnectReason(sig *dbus.Signal) {
	var reason string
	err := dbus.Store(sig.Body, &reason)
	if err != nil {
		logger.Warningf("bad DisconnectReason from %s: %v", call.path, err)
		return
	}
	logger.Infof("call %s disconnected: %s", call.path, reason)
	call.state = CallStateDisconnected
	if !call.added {
		return
	}
	call.client.cbs.callDisconnected.each(func(fn CallDisconnectedCallback) {
		fn(call, reason)
	})
}

func (call *Call) destroy() {
	if ctx := call.pendingDial; ctx != nil {
		call.pendingDial = nil
		ctx.cb(nil, errCanceled)
	}
	call.busObject.destroy()
}

// Hangup releases this call.
func (call *Call) Hangup(cb ErrorCallback) *PendingCall {
	return call.send(ifaceVoiceCall, "Hangup", errorReply(cb))
}

// Answer accepts this incoming call.
func (call *Call) Answer(cb ErrorCallback) *PendingCall {
	return call.send(ifaceVoiceCall, "Answer", errorReply(cb))
}

func (call *Call) Modem() *Modem {
	return call.modem
}

func (call *Call) LineID() string {
	return call.lineID
}

func (call *Call) IncomingLine() string {
	return call.incomingLine
}

func (call *Call) Name() string {
	return call.name
}

func (call *Call) State() CallState {
	return call.state
}

func (call *Call) Multiparty() bool {
	return call.multiparty
}

func (call *Call) Emergency() bool {
	return call.emergency
}

// StartTime returns the loop clock time the call got active, it is -1
// while FullStartTime is zero.
func (call *Call) StartTime() float64 {
	return call.startTime
}

func (call *Call) FullStartTime() time.Time {
	return call.fullStartTime
}

func (m *Modem) handleCallAdded(sig *dbus.Signal) {
	path, props, err := decodePathProperties(sig.Body)
	if err != nil {
		logger.Warningf("bad CallAdded from %s: %v", m.path, err)
		return
	}
	m.addCall(path, props)
}

func (m *Modem) handleCallRemoved(sig *dbus.Signal) {
	var path dbus.ObjectPath
	err := dbus.Store(sig.Body, &path)
	if err != nil {
		logger.Warningf("bad CallRemoved from %s: %v", m.path, err)
		return
	}
	call := m.calls[path]
	if call == nil {
		logger.Debug("remove unknown call", path)
		return
	}
	m.removeCall(call)
}

// addCall handles a call announced by CallAdded or GetCalls. A Dial waiting
// on this path completes here when its reply came first.
func (m *Modem) addCall(path dbus.ObjectPath, props Properties) *Call {
	call := m.calls[path]
	if call == nil {
		call = newCall(m, path)
		m.calls[path] = call
	}
	needsAdded := !call.added
	call.added = true

	changed := updateProperties(props, call.updateProperty)

	if ctx := call.pendingDial; ctx != nil {
		call.pendingDial = nil
		ctx.cb(call, nil)
	}
	if needsAdded {
		logger.Info("call added:", path)
		m.client.notifyCallAdded(call)
	}
	if changed {
		m.client.notifyCallChanged(call)
	}
	return call
}

// dialReplied handles the path returned by Dial. When CallAdded has not been
// seen yet the continuation waits on the call for it, until p is canceled.
func (m *Modem) dialReplied(path dbus.ObjectPath, cb CallResultCallback, p *PendingCall) {
	call := m.calls[path]
	if call != nil && call.added {
		cb(call, nil)
		return
	}
	if call == nil {
		call = newCall(m, path)
		m.calls[path] = call
	}
	if prev := call.pendingDial; prev != nil {
		logger.Warning("another dial waits on", path)
		prev.cb(nil, newError(ErrorFailed, "dial superseded"))
	}
	ctx := &dialContext{cb: cb}
	call.pendingDial = ctx
	if p == nil {
		return
	}
	p.awaiting = func() {
		if call.pendingDial != ctx {
			return
		}
		call.pendingDial = nil
		if !call.added && m.calls[path] == call {
			m.removeCall(call)
		}
		ctx.cb(nil, errCanceled)
	}
}

func (m *Modem) removeCall(call *Call) {
	delete(m.calls, call.path)
	if call.added {
		logger.Info("call removed:", call.path)
		m.client.notifyCallRemoved(call)
	}
	call.destroy()
}

func (m *Modem) loadCalls() {
	m.send(ifaceVoiceCallManager, "GetCalls", func(r *Reply) {
		if r.Err != nil {
			if ErrorKindOf(r.Err) != ErrorCanceled {
				logger.Warningf("failed to get calls of %s: %v", m.path, r.Err)
			}
			return
		}
		list, err := decodePathPropertiesList(r.Body)
		if err != nil {
			logger.Warningf("bad GetCalls reply from %s: %v", m.path, err)
			return
		}
		seen := make(map[dbus.ObjectPath]struct{}, len(list))
		for _, item := range list {
			seen[item.Path] = struct{}{}
			m.addCall(item.Path, item.Props)
		}
		for _, call := range m.Calls() {
			if _, ok := seen[call.path]; !ok {
				m.removeCall(call)
			}
		}
	})
}

// ForegroundCall returns the call with the highest state priority, nil
// when every call is disconnected.
func (m *Modem) ForegroundCall() *Call {
	var found *Call
	for _, call := range m.Calls() {
		if found == nil {
			if call.state.Priority() > 0 {
				found = call
			}
			continue
		}
		if call.state.Priority() > found.state.Priority() {
			found = call
		}
	}
	return found
}

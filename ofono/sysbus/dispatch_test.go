// SPDX-FileCopyrightText: 2018 - 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysbus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/linuxdeepin/dde-telephony/ofono"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// track registers a call the way SendMethodCall does once godbus accepted it.
func (t *Transport) track(dcall *dbus.Call, done func(*ofono.Reply)) ofono.CallHandle {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextCall++
	t.calls[dcall] = &pendingCall{
		handle: t.nextCall,
		label:  dcall.Method,
		done:   done,
		cancel: func() {},
	}
	t.handles[t.nextCall] = dcall
	return t.nextCall
}

func newTestTransport(t *testing.T) (*Transport, *ofono.Loop) {
	loop := ofono.NewLoop(16)
	loop.Start()
	t.Cleanup(loop.Stop)
	return newTransport(loop), loop
}

func callsSignal(seq dbus.Sequence, path dbus.ObjectPath, member string) *dbus.Signal {
	return &dbus.Signal{
		Sender:   ":1.5",
		Path:     path,
		Name:     "org.ofono.VoiceCallManager." + member,
		Sequence: seq,
	}
}

func Test_dispatchKeepsBusOrder(t *testing.T) {
	tr, loop := newTestTransport(t)

	var got []string
	_, ok := tr.addSubscription(&subscription{
		rule: ofono.SignalRule{
			Sender:    ":1.5",
			Path:      "/hfp/1",
			Interface: "org.ofono.VoiceCallManager",
			Member:    "CallRemoved",
		},
		handler: func(sig *dbus.Signal) { got = append(got, "CallRemoved") },
	})
	require.True(t, ok)

	getCalls := &dbus.Call{Method: "org.ofono.VoiceCallManager.GetCalls", ResponseSequence: 2}
	tr.track(getCalls, func(r *ofono.Reply) { got = append(got, "GetCalls") })
	canceled := &dbus.Call{Method: "org.ofono.VoiceCallManager.Dial", Err: context.Canceled}
	tr.CancelCall(tr.track(canceled, func(r *ofono.Reply) { got = append(got, "Dial") }))

	// the channels hand items over out of bus order
	tr.signals <- callsSignal(3, "/hfp/1", "CallRemoved")
	tr.signals <- callsSignal(4, "/hfp/2", "CallRemoved")
	tr.replies <- getCalls
	tr.replies <- canceled
	tr.signals <- callsSignal(1, "/hfp/1", "CallRemoved")
	close(tr.quit)

	go tr.dispatch()
	select {
	case <-tr.exited:
	case <-time.After(time.Second):
		t.Fatal("dispatch did not finish")
	}
	require.True(t, loop.Call(func() {}))
	assert.Equal(t, []string{"CallRemoved", "GetCalls", "CallRemoved"}, got)
	assert.Empty(t, tr.calls)
	assert.Empty(t, tr.handles)
}

func Test_dispatchWaitsForTracking(t *testing.T) {
	tr, loop := newTestTransport(t)
	go tr.dispatch()

	tr.mu.Lock()
	tr.sending++
	tr.mu.Unlock()

	var mu sync.Mutex
	var reply *ofono.Reply
	dcall := &dbus.Call{Method: "org.ofono.Modem.GetProperties", Body: []interface{}{"x"}, ResponseSequence: 1}
	tr.replies <- dcall

	time.Sleep(20 * time.Millisecond)
	tr.mu.Lock()
	tr.sending--
	tr.calls[dcall] = &pendingCall{
		handle: 1,
		label:  dcall.Method,
		done: func(r *ofono.Reply) {
			mu.Lock()
			reply = r
			mu.Unlock()
		},
		cancel: func() {},
	}
	tr.handles[1] = dcall
	tr.tracked.Broadcast()
	tr.mu.Unlock()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return reply != nil
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []interface{}{"x"}, reply.Body)

	close(tr.quit)
	select {
	case <-tr.exited:
	case <-time.After(time.Second):
		t.Fatal("dispatch did not finish")
	}
	assert.True(t, loop.Call(func() {}))
}

func Test_ruleMatches(t *testing.T) {
	rule := ofono.SignalRule{
		Sender:    ":1.5",
		Path:      "/hfp/1",
		Interface: "org.ofono.VoiceCallManager",
		Member:    "CallAdded",
	}
	assert.True(t, ruleMatches(rule, callsSignal(1, "/hfp/1", "CallAdded")))
	assert.False(t, ruleMatches(rule, callsSignal(1, "/hfp/2", "CallAdded")))
	assert.False(t, ruleMatches(rule, callsSignal(1, "/hfp/1", "CallRemoved")))

	rule.Path = ""
	assert.True(t, ruleMatches(rule, callsSignal(1, "/hfp/2", "CallAdded")))
	rule.Sender = ":1.6"
	assert.False(t, ruleMatches(rule, callsSignal(1, "/hfp/2", "CallAdded")))
}

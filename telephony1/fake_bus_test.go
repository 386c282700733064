// SPDX-FileCopyrightText: 2018 - 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package telephony

import (
	"sync"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/linuxdeepin/dde-telephony/ofono"
	"github.com/stretchr/testify/require"
)

const (
	testOfonoID   = ":1.5"
	testModemPath = dbus.ObjectPath("/hfp/org/bluez/hci0/dev_00_11_22_33_44_55")
)

// answerFunc returns the reply to call, nil leaves the call unanswered.
type answerFunc func(call *ofono.MethodCall) *ofono.Reply

type fakeBusSub struct {
	rule    ofono.SignalRule
	handler func(*dbus.Signal)
}

// fakeBus answers method calls into the loop the way the system bus would.
type fakeBus struct {
	loop   *ofono.Loop
	answer answerFunc

	mu       sync.Mutex
	next     ofono.CallHandle
	calls    map[ofono.CallHandle]*ofono.MethodCall
	order    []*ofono.MethodCall
	canceled []*ofono.MethodCall
	nextSub  ofono.SubscriptionID
	subs     map[ofono.SubscriptionID]*fakeBusSub
}

func newFakeBus(loop *ofono.Loop, answer answerFunc) *fakeBus {
	return &fakeBus{
		loop:   loop,
		answer: answer,
		calls:  make(map[ofono.CallHandle]*ofono.MethodCall),
		subs:   make(map[ofono.SubscriptionID]*fakeBusSub),
	}
}

func (b *fakeBus) SendMethodCall(call *ofono.MethodCall, done func(*ofono.Reply)) (ofono.CallHandle, error) {
	b.mu.Lock()
	b.next++
	h := b.next
	b.calls[h] = call
	b.order = append(b.order, call)
	b.mu.Unlock()

	if reply := b.answer(call); reply != nil {
		b.loop.Post(func() { done(reply) })
	}
	return h, nil
}

func (b *fakeBus) CancelCall(h ofono.CallHandle) {
	b.mu.Lock()
	if call := b.calls[h]; call != nil {
		b.canceled = append(b.canceled, call)
	}
	b.mu.Unlock()
}

func (b *fakeBus) SubscribeSignal(rule ofono.SignalRule, handler func(*dbus.Signal)) (ofono.SubscriptionID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextSub++
	b.subs[b.nextSub] = &fakeBusSub{rule: rule, handler: handler}
	return b.nextSub, nil
}

func (b *fakeBus) Unsubscribe(id ofono.SubscriptionID) {
	b.mu.Lock()
	delete(b.subs, id)
	b.mu.Unlock()
}

func (b *fakeBus) sentCount(member string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, call := range b.order {
		if call.Member == member {
			n++
		}
	}
	return n
}

func (b *fakeBus) canceledMembers() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var members []string
	for _, call := range b.canceled {
		members = append(members, call.Member)
	}
	return members
}

// emit delivers a signal from oFono inside the loop.
func (b *fakeBus) emit(path dbus.ObjectPath, iface, member string, body ...interface{}) {
	sig := &dbus.Signal{
		Sender: testOfonoID,
		Path:   path,
		Name:   iface + "." + member,
		Body:   body,
	}
	b.loop.Call(func() {
		b.mu.Lock()
		var matched []*fakeBusSub
		for _, sub := range b.subs {
			r := sub.rule
			if r.Sender != "" && r.Sender != sig.Sender {
				continue
			}
			if r.Path != "" && r.Path != path {
				continue
			}
			if r.Interface == iface && r.Member == member {
				matched = append(matched, sub)
			}
		}
		b.mu.Unlock()
		for _, sub := range matched {
			sub.handler(sig)
		}
	})
}

func voiceModemProps() map[string]dbus.Variant {
	return map[string]dbus.Variant{
		"Powered": dbus.MakeVariant(true),
		"Online":  dbus.MakeVariant(true),
		"Interfaces": dbus.MakeVariant([]string{
			"org.ofono.VoiceCallManager",
			"org.ofono.CallVolume",
			"org.ofono.MessageManager",
			"org.ofono.SupplementaryServices",
		}),
		"Type":   dbus.MakeVariant("hfp"),
		"Name":   dbus.MakeVariant("Phone"),
		"Serial": dbus.MakeVariant("00:11:22:33:44:55"),
	}
}

// ofonoWithModem answers like an oFono instance with one voice modem.
// Members listed in hang are never answered.
func ofonoWithModem(hang ...string) answerFunc {
	return func(call *ofono.MethodCall) *ofono.Reply {
		for _, member := range hang {
			if call.Member == member {
				return nil
			}
		}
		switch call.Member {
		case "GetNameOwner":
			return &ofono.Reply{Body: []interface{}{testOfonoID}}
		case "GetModems":
			return &ofono.Reply{Body: []interface{}{
				[][]interface{}{{testModemPath, voiceModemProps()}},
			}}
		case "GetProperties":
			return &ofono.Reply{Body: []interface{}{map[string]dbus.Variant{}}}
		case "GetCalls":
			return &ofono.Reply{Body: []interface{}{[][]interface{}{}}}
		}
		return &ofono.Reply{}
	}
}

func ofonoNotRunning(call *ofono.MethodCall) *ofono.Reply {
	if call.Member == "GetNameOwner" {
		return &ofono.Reply{Err: dbus.NewError("org.freedesktop.DBus.Error.NameHasNoOwner",
			[]interface{}{"no owner"})}
	}
	return &ofono.Reply{}
}

type emitted struct {
	name string
	args []interface{}
}

type testEnv struct {
	loop *ofono.Loop
	bus  *fakeBus
	t    *Telephony

	mu      sync.Mutex
	signals []emitted
}

func newTestEnv(tb testing.TB, answer answerFunc, cfg Config) *testEnv {
	loop := ofono.NewLoop(64)
	loop.Start()
	e := &testEnv{loop: loop}
	e.bus = newFakeBus(loop, answer)
	e.t = newTelephony(nil, loop, e.bus, cfg)
	e.t.emit = func(name string, args ...interface{}) error {
		e.mu.Lock()
		e.signals = append(e.signals, emitted{name, args})
		e.mu.Unlock()
		return nil
	}
	require.True(tb, loop.Call(e.t.start))
	tb.Cleanup(func() {
		loop.Call(e.t.stop)
		loop.Stop()
	})
	return e
}

func (e *testEnv) signalsNamed(name string) []emitted {
	e.mu.Lock()
	defer e.mu.Unlock()
	var result []emitted
	for _, s := range e.signals {
		if s.name == name {
			result = append(result, s)
		}
	}
	return result
}

// waitModem waits until the modem list has been loaded and selected.
func (e *testEnv) waitModem(tb testing.TB) {
	require.Eventually(tb, func() bool {
		online, err := e.t.VoiceIsOnline()
		return err == nil && online
	}, time.Second, 5*time.Millisecond)
}

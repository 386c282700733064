// SPDX-FileCopyrightText: 2018 - 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package ofono

import (
	"errors"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/require"
)

const testBusID = ":1.42"

type fakeCall struct {
	handle   CallHandle
	call     *MethodCall
	done     func(*Reply)
	replied  bool
	canceled bool
}

type fakeSub struct {
	rule    SignalRule
	handler func(*dbus.Signal)
}

// fakeTransport records calls and subscriptions; tests play the bus.
type fakeTransport struct {
	nextHandle   CallHandle
	nextSub      SubscriptionID
	calls        []*fakeCall
	subs         map[SubscriptionID]*fakeSub
	unsubscribed []SubscriptionID
	failSend     bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		subs: make(map[SubscriptionID]*fakeSub),
	}
}

func (t *fakeTransport) SendMethodCall(call *MethodCall, done func(*Reply)) (CallHandle, error) {
	if t.failSend {
		return 0, errors.New("connection closed")
	}
	t.nextHandle++
	t.calls = append(t.calls, &fakeCall{
		handle: t.nextHandle,
		call:   call,
		done:   done,
	})
	return t.nextHandle, nil
}

func (t *fakeTransport) CancelCall(h CallHandle) {
	for _, fc := range t.calls {
		if fc.handle == h {
			fc.canceled = true
		}
	}
}

func (t *fakeTransport) SubscribeSignal(rule SignalRule, handler func(*dbus.Signal)) (SubscriptionID, error) {
	t.nextSub++
	t.subs[t.nextSub] = &fakeSub{rule: rule, handler: handler}
	return t.nextSub, nil
}

func (t *fakeTransport) Unsubscribe(id SubscriptionID) {
	delete(t.subs, id)
	t.unsubscribed = append(t.unsubscribed, id)
}

// pending returns the oldest unanswered call of iface.member on path.
func (t *fakeTransport) pending(path dbus.ObjectPath, iface, member string) *fakeCall {
	for _, fc := range t.calls {
		if fc.replied || fc.canceled {
			continue
		}
		if fc.call.Path == path && fc.call.Interface == iface && fc.call.Member == member {
			return fc
		}
	}
	return nil
}

func (t *fakeTransport) mustPending(tb testing.TB, path dbus.ObjectPath, iface, member string) *fakeCall {
	fc := t.pending(path, iface, member)
	require.NotNil(tb, fc, "no pending %s.%s on %s", iface, member, path)
	return fc
}

func (t *fakeTransport) countCalls(iface, member string) int {
	n := 0
	for _, fc := range t.calls {
		if fc.call.Interface == iface && fc.call.Member == member {
			n++
		}
	}
	return n
}

// reply delivers a reply even to canceled calls, like a bus would.
func (t *fakeTransport) reply(fc *fakeCall, body ...interface{}) {
	fc.replied = true
	fc.done(&Reply{Body: body})
}

func (t *fakeTransport) replyError(fc *fakeCall, name string) {
	fc.replied = true
	fc.done(&Reply{Err: dbus.NewError(name, []interface{}{"remote says no"})})
}

func (t *fakeTransport) emit(sender string, path dbus.ObjectPath, iface, member string, body ...interface{}) int {
	sig := &dbus.Signal{
		Sender: sender,
		Path:   path,
		Name:   iface + "." + member,
		Body:   body,
	}
	var matched []*fakeSub
	for _, sub := range t.subs {
		r := sub.rule
		if r.Sender != "" && r.Sender != sender {
			continue
		}
		if r.Path != "" && r.Path != path {
			continue
		}
		if r.Interface != iface || r.Member != member {
			continue
		}
		matched = append(matched, sub)
	}
	for _, sub := range matched {
		sub.handler(sig)
	}
	return len(matched)
}

func (t *fakeTransport) emitOfono(path dbus.ObjectPath, iface, member string, body ...interface{}) int {
	return t.emit(testBusID, path, iface, member, body...)
}

type fakeClock struct {
	now  time.Time
	loop float64
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) LoopTime() float64 {
	return c.loop
}

func (c *fakeClock) advance(d time.Duration) {
	c.now = c.now.Add(d)
	c.loop += d.Seconds()
}

type testEnv struct {
	tb     testing.TB
	tr     *fakeTransport
	clock  *fakeClock
	client *Client
}

func newTestEnv(tb testing.TB) *testEnv {
	tr := newFakeTransport()
	clock := &fakeClock{
		now:  time.Date(2022, 6, 1, 12, 0, 0, 0, time.UTC),
		loop: 1000,
	}
	c := NewClient(tr)
	c.SetClock(clock)
	return &testEnv{tb: tb, tr: tr, clock: clock, client: c}
}

// connect starts the client and lets oFono be found by GetNameOwner.
func (e *testEnv) connect() {
	e.client.Start()
	fc := e.tr.mustPending(e.tb, dbusPath, dbusInterface, "GetNameOwner")
	e.tr.reply(fc, testBusID)
	require.True(e.tb, e.client.Connected())
}

type testModem struct {
	path  dbus.ObjectPath
	props map[string]dbus.Variant
}

func modemProps(typ string, online bool, ifaces ...string) map[string]dbus.Variant {
	names := make([]string, len(ifaces))
	for i, iface := range ifaces {
		names[i] = ifacePrefix + iface
	}
	return map[string]dbus.Variant{
		"Powered":    dbus.MakeVariant(online),
		"Online":     dbus.MakeVariant(online),
		"Interfaces": dbus.MakeVariant(names),
		"Type":       dbus.MakeVariant(typ),
		"Name":       dbus.MakeVariant("modem"),
		"Serial":     dbus.MakeVariant("35123456789"),
	}
}

// loadModems answers GetModems with modems.
func (e *testEnv) loadModems(modems ...testModem) {
	fc := e.tr.mustPending(e.tb, "/", ifaceManager, "GetModems")
	var list [][]interface{}
	for _, m := range modems {
		list = append(list, []interface{}{m.path, m.props})
	}
	e.tr.reply(fc, list)
}

// voiceModem sets up one online modem with voice, SMS and SS and answers
// its GetCalls with no calls.
func (e *testEnv) voiceModem() *Modem {
	e.connect()
	path := dbus.ObjectPath("/hardware_0")
	e.loadModems(testModem{path, modemProps("hardware", true,
		"VoiceCallManager", "MessageManager", "SupplementaryServices", "SimManager", "CallVolume")})
	e.tr.reply(e.tr.mustPending(e.tb, path, ifaceVoiceCallManager, "GetCalls"), [][]interface{}{})
	m := e.client.Modem(path)
	require.NotNil(e.tb, m)
	return m
}

func callProps(state, line string) map[string]dbus.Variant {
	return map[string]dbus.Variant{
		"State":              dbus.MakeVariant(state),
		"LineIdentification": dbus.MakeVariant(line),
		"Name":               dbus.MakeVariant(""),
		"Multiparty":         dbus.MakeVariant(false),
		"Emergency":          dbus.MakeVariant(false),
	}
}

// SPDX-FileCopyrightText: 2018 - 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package sysbus carries the ofono object model over a godbus connection.
package sysbus

import (
	"context"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/linuxdeepin/dde-telephony/ofono"
	"github.com/linuxdeepin/go-lib/dbusutil"
	"github.com/linuxdeepin/go-lib/log"
	"golang.org/x/xerrors"
)

var logger = log.NewLogger("daemon/ofono/sysbus")

func SetLogLevel(pri log.Priority) {
	logger.SetLogLevel(pri)
}

const inboxSize = 64

type subscription struct {
	rule    ofono.SignalRule
	match   dbusutil.MatchRule
	handler func(*dbus.Signal)
}

// pendingCall is a godbus call whose Done value has not been seen yet.
type pendingCall struct {
	handle   ofono.CallHandle
	label    string
	done     func(*ofono.Reply)
	cancel   context.CancelFunc
	canceled bool
}

// Transport sends method calls on a private system bus connection and
// delivers replies and signals into loop, in the order the bus sent them.
type Transport struct {
	conn *dbus.Conn
	loop *ofono.Loop

	signals chan *dbus.Signal
	replies chan *dbus.Call
	quit    chan struct{}
	exited  chan struct{}

	mu       sync.Mutex
	tracked  *sync.Cond
	nextCall ofono.CallHandle
	// sending counts calls between GoWithContext and being tracked
	sending  int
	calls    map[*dbus.Call]*pendingCall
	handles  map[ofono.CallHandle]*dbus.Call
	nextSub  ofono.SubscriptionID
	subs     map[ofono.SubscriptionID]*subscription
	closed   bool
}

func newTransport(loop *ofono.Loop) *Transport {
	t := &Transport{
		loop:    loop,
		signals: make(chan *dbus.Signal, inboxSize),
		replies: make(chan *dbus.Call, inboxSize),
		quit:    make(chan struct{}),
		exited:  make(chan struct{}),
		calls:   make(map[*dbus.Call]*pendingCall),
		handles: make(map[ofono.CallHandle]*dbus.Call),
		subs:    make(map[ofono.SubscriptionID]*subscription),
	}
	t.tracked = sync.NewCond(&t.mu)
	return t
}

// Dial opens the connection the transport owns. The transport is the
// connection's signal handler, so replies and signals share one ordered path.
func Dial(loop *ofono.Loop) (*Transport, error) {
	t := newTransport(loop)
	go t.dispatch()
	conn, err := dbus.ConnectSystemBus(dbus.WithSignalHandler(t))
	if err != nil {
		close(t.quit)
		return nil, xerrors.Errorf("connect system bus: %w", err)
	}
	t.conn = conn
	return t, nil
}

// DeliverSignal implements dbus.SignalHandler. godbus calls it from the
// goroutine that also finalizes replies.
func (t *Transport) DeliverSignal(iface, name string, sig *dbus.Signal) {
	select {
	case t.signals <- sig:
	case <-t.quit:
	}
}

// Close cancels every call in flight, drops every subscription and closes
// the connection.
func (t *Transport) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	var cancels []context.CancelFunc
	for _, pc := range t.calls {
		if !pc.canceled {
			pc.canceled = true
			cancels = append(cancels, pc.cancel)
		}
	}
	t.handles = make(map[ofono.CallHandle]*dbus.Call)
	t.subs = make(map[ofono.SubscriptionID]*subscription)
	t.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	close(t.quit)
	if t.conn != nil {
		err := t.conn.Close()
		if err != nil {
			logger.Warning(err)
		}
	}
}

func (t *Transport) SendMethodCall(call *ofono.MethodCall, done func(*ofono.Reply)) (ofono.CallHandle, error) {
	if !call.Path.IsValid() {
		return 0, xerrors.Errorf("invalid object path %q", call.Path)
	}
	if !t.conn.Connected() {
		return 0, xerrors.New("bus connection is closed")
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return 0, xerrors.New("transport is closed")
	}
	t.nextCall++
	h := t.nextCall
	t.sending++
	t.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	obj := t.conn.Object(call.Destination, call.Path)
	dcall := obj.GoWithContext(ctx, call.Interface+"."+call.Member, 0, t.replies, call.Args...)

	pc := &pendingCall{
		handle: h,
		label:  call.Interface + "." + call.Member,
		done:   done,
		cancel: cancel,
	}
	t.mu.Lock()
	t.sending--
	t.calls[dcall] = pc
	if t.closed {
		pc.canceled = true
	} else {
		t.handles[h] = dcall
	}
	t.tracked.Broadcast()
	t.mu.Unlock()
	if pc.canceled {
		cancel()
		return 0, xerrors.New("transport is closed")
	}
	return h, nil
}

func (t *Transport) CancelCall(h ofono.CallHandle) {
	t.mu.Lock()
	var cancel context.CancelFunc
	if dcall, ok := t.handles[h]; ok {
		delete(t.handles, h)
		if pc := t.calls[dcall]; pc != nil && !pc.canceled {
			pc.canceled = true
			cancel = pc.cancel
		}
	}
	t.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func matchRule(rule ofono.SignalRule) dbusutil.MatchRule {
	b := dbusutil.NewMatchRuleBuilder().Type("signal")
	if rule.Sender != "" {
		b = b.Sender(rule.Sender)
	}
	if rule.Path != "" {
		b = b.Path(string(rule.Path))
	}
	return b.Interface(rule.Interface).Member(rule.Member).Build()
}

func ruleMatches(rule ofono.SignalRule, sig *dbus.Signal) bool {
	if rule.Sender != "" && rule.Sender != sig.Sender {
		return false
	}
	if rule.Path != "" && rule.Path != sig.Path {
		return false
	}
	return sig.Name == rule.Interface+"."+rule.Member
}

func (t *Transport) SubscribeSignal(rule ofono.SignalRule,
	handler func(*dbus.Signal)) (ofono.SubscriptionID, error) {
	mr := matchRule(rule)
	err := mr.AddTo(t.conn)
	if err != nil {
		return 0, xerrors.Errorf("add match %s: %w", mr.Str, err)
	}

	id, ok := t.addSubscription(&subscription{rule: rule, match: mr, handler: handler})
	if !ok {
		return 0, xerrors.New("transport is closed")
	}
	return id, nil
}

func (t *Transport) addSubscription(sub *subscription) (ofono.SubscriptionID, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return 0, false
	}
	t.nextSub++
	t.subs[t.nextSub] = sub
	return t.nextSub, true
}

func (t *Transport) Unsubscribe(id ofono.SubscriptionID) {
	t.mu.Lock()
	sub := t.subs[id]
	delete(t.subs, id)
	t.mu.Unlock()
	if sub == nil || !t.conn.Connected() {
		return
	}
	err := sub.match.RemoveFrom(t.conn)
	if err != nil {
		logger.Warning(err)
	}
}

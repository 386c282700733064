// SPDX-FileCopyrightText: 2018 - 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package ofono

import (
	"github.com/godbus/dbus/v5"
)

// busObject is the part every remote entity shares: where it lives, the
// calls in flight against it and the signals it listens to.
type busObject struct {
	client    *Client
	dest      string
	path      dbus.ObjectPath
	pending   []*PendingCall
	subs      []SubscriptionID
	destroyed bool
}

func (o *busObject) init(c *Client, dest string, path dbus.ObjectPath) {
	o.client = c
	o.dest = dest
	o.path = path
}

func (o *busObject) Path() dbus.ObjectPath {
	return o.path
}

// send dispatches iface.method and returns at once. cb runs exactly once:
// with the reply, with ErrorCanceled, or synchronously with ErrorFailed
// when nothing could be sent, in which case send returns nil.
func (o *busObject) send(iface, method string, cb func(*Reply), args ...interface{}) *PendingCall {
	if o.destroyed {
		cb(&Reply{Err: newError(ErrorFailed, "object is gone")})
		return nil
	}
	p := &PendingCall{
		owner:  o,
		method: iface + "." + method,
		cb:     cb,
	}
	logger.Debugf("call %s on %s", p.method, o.path)
	h, err := o.client.transport.SendMethodCall(&MethodCall{
		Destination: o.dest,
		Path:        o.path,
		Interface:   iface,
		Member:      method,
		Args:        args,
	}, p.complete)
	if err != nil {
		logger.Warningf("failed to send %s to %s: %v", p.method, o.path, err)
		cb(&Reply{Err: newError(ErrorFailed, err.Error())})
		return nil
	}
	p.handle = h
	o.pending = append(o.pending, p)
	return p
}

func (o *busObject) removePending(p *PendingCall) {
	for i, item := range o.pending {
		if item == p {
			o.pending = append(o.pending[:i], o.pending[i+1:]...)
			return
		}
	}
}

// listen subscribes to iface.member emitted by this object. The handler is
// never called once the object is destroyed.
func (o *busObject) listen(iface, member string, handler func(*dbus.Signal)) {
	o.listenRule(SignalRule{
		Sender:    o.dest,
		Path:      o.path,
		Interface: iface,
		Member:    member,
	}, handler)
}

func (o *busObject) listenRule(rule SignalRule, handler func(*dbus.Signal)) {
	if o.destroyed {
		return
	}
	id, err := o.client.transport.SubscribeSignal(rule, func(sig *dbus.Signal) {
		if o.destroyed {
			return
		}
		handler(sig)
	})
	if err != nil {
		logger.Warningf("failed to subscribe %s.%s on %s: %v", rule.Interface, rule.Member,
			rule.Path, err)
		return
	}
	o.subs = append(o.subs, id)
}

func (o *busObject) pendingCount() int {
	return len(o.pending)
}

func (o *busObject) subscriptionCount() int {
	return len(o.subs)
}

// destroy cancels every pending call, then drops every subscription.
func (o *busObject) destroy() {
	if o.destroyed {
		return
	}
	o.destroyed = true

	pending := o.pending
	o.pending = nil
	for _, p := range pending {
		p.Cancel()
	}

	for _, id := range o.subs {
		o.client.transport.Unsubscribe(id)
	}
	o.subs = nil
}

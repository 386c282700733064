// SPDX-FileCopyrightText: 2018 - 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package ofono

import (
	"github.com/godbus/dbus/v5"
)

type CallHandle uint64

type SubscriptionID uint64

type MethodCall struct {
	Destination string
	Path        dbus.ObjectPath
	Interface   string
	Member      string
	Args        []interface{}
}

type Reply struct {
	Body []interface{}
	Err  error
}

// Store decodes the reply body into retValues, like dbus.Call.Store.
func (r *Reply) Store(retValues ...interface{}) error {
	if r.Err != nil {
		return r.Err
	}
	return dbus.Store(r.Body, retValues...)
}

// SignalRule selects signals by sender, path, interface and member.
// An empty Path matches every path.
type SignalRule struct {
	Sender    string
	Path      dbus.ObjectPath
	Interface string
	Member    string
}

// Transport is the message bus the object model sits on.
//
// SendMethodCall must not invoke done before it returns. Replies and signals
// are delivered on the goroutine that runs the Client's Loop, in the order the
// bus sent them.
type Transport interface {
	SendMethodCall(call *MethodCall, done func(*Reply)) (CallHandle, error)
	CancelCall(h CallHandle)
	SubscribeSignal(rule SignalRule, handler func(*dbus.Signal)) (SubscriptionID, error)
	Unsubscribe(id SubscriptionID)
}

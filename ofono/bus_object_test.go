// SPDX-FileCopyrightText: 2018 - 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package ofono

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestObject(e *testEnv, path dbus.ObjectPath) *busObject {
	o := &busObject{}
	o.init(e.client, testBusID, path)
	return o
}

func Test_SendReply(t *testing.T) {
	e := newTestEnv(t)
	o := newTestObject(e, "/obj")

	var replies []*Reply
	p := o.send("org.ofono.Test", "Get", func(r *Reply) {
		replies = append(replies, r)
	}, "arg")
	require.NotNil(t, p)
	assert.Len(t, replies, 0)
	assert.Equal(t, 1, o.pendingCount())

	fc := e.tr.mustPending(t, "/obj", "org.ofono.Test", "Get")
	assert.Equal(t, testBusID, fc.call.Destination)
	assert.Equal(t, []interface{}{"arg"}, fc.call.Args)

	e.tr.reply(fc, "value")
	require.Len(t, replies, 1)
	assert.NoError(t, replies[0].Err)
	assert.Equal(t, []interface{}{"value"}, replies[0].Body)
	assert.Equal(t, 0, o.pendingCount())
	assert.True(t, p.Done())
}

func Test_SendRemoteError(t *testing.T) {
	e := newTestEnv(t)
	o := newTestObject(e, "/obj")

	var got error
	o.send("org.ofono.Test", "Get", func(r *Reply) {
		got = r.Err
	})
	e.tr.replyError(e.tr.mustPending(t, "/obj", "org.ofono.Test", "Get"), "org.ofono.Error.InProgress")
	assert.Equal(t, ErrorInProgress, ErrorKindOf(got))
}

func Test_SendDispatchFailure(t *testing.T) {
	e := newTestEnv(t)
	o := newTestObject(e, "/obj")
	e.tr.failSend = true

	calls := 0
	var got error
	p := o.send("org.ofono.Test", "Get", func(r *Reply) {
		calls++
		got = r.Err
	})
	assert.Nil(t, p)
	assert.Equal(t, 1, calls)
	assert.Equal(t, ErrorFailed, ErrorKindOf(got))
	assert.Equal(t, 0, o.pendingCount())
}

func Test_CancelExactlyOnce(t *testing.T) {
	e := newTestEnv(t)
	o := newTestObject(e, "/obj")

	var kinds []ErrorKind
	p := o.send("org.ofono.Test", "Get", func(r *Reply) {
		kinds = append(kinds, ErrorKindOf(r.Err))
	})
	fc := e.tr.pending("/obj", "org.ofono.Test", "Get")
	require.NotNil(t, fc)

	p.Cancel()
	assert.Equal(t, []ErrorKind{ErrorCanceled}, kinds)
	assert.True(t, fc.canceled)
	assert.Equal(t, 0, o.pendingCount())

	// the bus answers anyway
	e.tr.reply(fc, "late")
	p.Cancel()
	assert.Equal(t, []ErrorKind{ErrorCanceled}, kinds)
}

func Test_DestroyTearsDown(t *testing.T) {
	e := newTestEnv(t)
	o := newTestObject(e, "/obj")

	const n, m = 3, 4
	canceled := 0
	for i := 0; i < n; i++ {
		o.send("org.ofono.Test", "Get", func(r *Reply) {
			if ErrorKindOf(r.Err) == ErrorCanceled {
				canceled++
			}
		})
	}
	signals := 0
	for i := 0; i < m; i++ {
		o.listen("org.ofono.Test", "Changed", func(*dbus.Signal) {
			signals++
		})
	}
	assert.Equal(t, m, e.tr.emitOfono("/obj", "org.ofono.Test", "Changed"))
	assert.Equal(t, m, signals)

	calls := e.tr.calls
	o.destroy()
	assert.Equal(t, n, canceled)
	assert.Len(t, e.tr.unsubscribed, m)
	assert.Equal(t, 0, o.pendingCount())
	assert.Equal(t, 0, o.subscriptionCount())

	for _, fc := range calls {
		e.tr.reply(fc)
	}
	assert.Equal(t, 0, e.tr.emitOfono("/obj", "org.ofono.Test", "Changed"))
	assert.Equal(t, n, canceled)
	assert.Equal(t, m, signals)

	// nothing goes out from a destroyed object
	var got error
	p := o.send("org.ofono.Test", "Get", func(r *Reply) {
		got = r.Err
	})
	assert.Nil(t, p)
	assert.Equal(t, ErrorFailed, ErrorKindOf(got))
}

func Test_SignalQueuedBeforeDestroyIsDropped(t *testing.T) {
	e := newTestEnv(t)
	o := newTestObject(e, "/obj")

	signals := 0
	o.listen("org.ofono.Test", "Changed", func(*dbus.Signal) {
		signals++
	})
	var handler func(*dbus.Signal)
	for _, sub := range e.tr.subs {
		handler = sub.handler
	}
	require.NotNil(t, handler)

	o.destroy()
	handler(&dbus.Signal{Path: "/obj", Name: "org.ofono.Test.Changed"})
	assert.Equal(t, 0, signals)
}

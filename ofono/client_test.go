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

func (e *testEnv) ownerChanged(oldOwner, newOwner string) {
	e.tr.emit(dbusServiceName, dbusPath, dbusInterface, "NameOwnerChanged",
		serviceName, oldOwner, newOwner)
}

func Test_ClientFollowsOwner(t *testing.T) {
	e := newTestEnv(t)
	var events []string
	e.client.AddModemConnectedCb(func() { events = append(events, "connected") })
	e.client.AddModemDisconnectedCb(func() { events = append(events, "disconnected") })

	e.client.Start()
	e.tr.replyError(e.tr.mustPending(t, dbusPath, dbusInterface, "GetNameOwner"),
		"org.freedesktop.DBus.Error.NameHasNoOwner")
	assert.False(t, e.client.Connected())
	assert.Len(t, events, 0)

	e.ownerChanged("", testBusID)
	assert.True(t, e.client.Connected())
	assert.Equal(t, testBusID, e.client.BusID())
	e.loadModems(testModem{"/hfp/1", modemProps("hfp", true)})
	assert.Len(t, e.client.Modems(), 1)

	// unrelated names are ignored
	e.tr.emit(dbusServiceName, dbusPath, dbusInterface, "NameOwnerChanged",
		"org.bluez", "", ":1.7")
	assert.Equal(t, []string{"connected"}, events)

	e.ownerChanged(testBusID, "")
	assert.False(t, e.client.Connected())
	assert.Len(t, e.client.Modems(), 0)
	assert.Equal(t, []string{"connected", "disconnected"}, events)
}

func Test_ClientOwnerReplaced(t *testing.T) {
	e := newTestEnv(t)
	e.connect()
	e.loadModems(testModem{"/hfp/1", modemProps("hfp", true)})

	var events []string
	e.client.AddModemConnectedCb(func() { events = append(events, "connected") })
	e.client.AddModemDisconnectedCb(func() { events = append(events, "disconnected") })

	e.ownerChanged(testBusID, ":1.99")
	assert.Equal(t, []string{"disconnected", "connected"}, events)
	assert.Equal(t, ":1.99", e.client.BusID())
	assert.Len(t, e.client.Modems(), 0)

	fc := e.tr.mustPending(t, "/", ifaceManager, "GetModems")
	assert.Equal(t, ":1.99", fc.call.Destination)
	// the old instance is no longer heard
	assert.Equal(t, 0, e.tr.emitOfono("/", ifaceManager, "ModemAdded",
		dbus.ObjectPath("/hfp/2"), modemProps("hfp", true)))
}

func Test_ClientDisconnectCancelsGetModems(t *testing.T) {
	e := newTestEnv(t)
	e.connect()
	fc := e.tr.mustPending(t, "/", ifaceManager, "GetModems")

	e.ownerChanged(testBusID, "")
	assert.True(t, fc.canceled)

	e.tr.reply(fc, [][]interface{}{{dbus.ObjectPath("/hfp/1"), modemProps("hfp", true)}})
	assert.Len(t, e.client.Modems(), 0)
}

func Test_ClientGetModemsReplacesModems(t *testing.T) {
	e := newTestEnv(t)
	e.connect()

	changed := 0
	e.client.AddModemChangedCb(func() { changed++ })
	e.loadModems(
		testModem{"/hfp/2", modemProps("hfp", true)},
		testModem{"/hfp/1", modemProps("hfp", false)},
	)
	require.Len(t, e.client.Modems(), 2)
	assert.Equal(t, dbus.ObjectPath("/hfp/1"), e.client.Modems()[0].Path())
	assert.True(t, changed > 0)

	// malformed list keeps what is known
	e.client.loadModems()
	e.tr.reply(e.tr.mustPending(t, "/", ifaceManager, "GetModems"), "nonsense")
	assert.Len(t, e.client.Modems(), 2)
}

func Test_ClientStop(t *testing.T) {
	e := newTestEnv(t)
	e.connect()
	e.loadModems(testModem{"/hfp/1", modemProps("hfp", true, "VoiceCallManager")})
	e.client.SetModemPathWanted("/hfp/1")

	disconnected := 0
	e.client.AddModemDisconnectedCb(func() { disconnected++ })
	e.client.Stop()
	assert.Equal(t, 1, disconnected)
	assert.False(t, e.client.Connected())
	assert.Equal(t, dbus.ObjectPath(""), e.client.ModemPathWanted())
	assert.Len(t, e.tr.subs, 0)

	e.ownerChanged("", testBusID)
	assert.False(t, e.client.Connected())

	// a second stop is harmless
	e.client.Stop()
	assert.Equal(t, 1, disconnected)
}

func Test_ClientAutoPower(t *testing.T) {
	e := newTestEnv(t)
	e.client.SetAutoPower(true)
	e.connect()
	e.loadModems(testModem{"/hfp/1", modemProps("hfp", false)})

	fc := e.tr.mustPending(t, "/hfp/1", ifaceModem, "SetProperty")
	assert.Equal(t, []interface{}{"Powered", dbus.MakeVariant(true)}, fc.call.Args)
	e.tr.reply(fc)
}

func Test_ClientNoAutoPowerWhenVoiceOnline(t *testing.T) {
	e := newTestEnv(t)
	e.client.SetAutoPower(true)
	e.connect()
	e.loadModems(testModem{"/hfp/1", modemProps("hfp", true, "VoiceCallManager")})
	assert.Nil(t, e.tr.pending("/hfp/1", ifaceModem, "SetProperty"))
}

func Test_SetPoweredTarget(t *testing.T) {
	e := newTestEnv(t)

	var errs []error
	cb := func(err error) { errs = append(errs, err) }
	assert.Nil(t, e.client.SetPowered(true, cb))
	require.Len(t, errs, 1)
	assert.Equal(t, ErrorOffline, ErrorKindOf(errs[0]))

	e.connect()
	e.loadModems(
		testModem{"/hardware_0", modemProps("hardware", false)},
		testModem{"/hfp/1", modemProps("hfp", false)},
	)
	require.NoError(t, e.client.ModemAPIRequire("VoiceCallManager"))
	require.Nil(t, e.client.SelectedModem())

	// no modem qualifies, the first hands-free one is powered
	e.client.SetPowered(true, cb)
	e.tr.mustPending(t, "/hfp/1", ifaceModem, "SetProperty")

	e.client.SetModemPathWanted("/hardware_0")
	e.client.SetPowered(true, cb)
	e.tr.mustPending(t, "/hardware_0", ifaceModem, "SetProperty")
}

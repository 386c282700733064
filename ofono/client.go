// SPDX-FileCopyrightText: 2018 - 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package ofono

import (
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/linuxdeepin/go-lib/log"
	"github.com/linuxdeepin/go-lib/strv"
)

var logger = log.NewLogger("daemon/ofono")

func SetLogLevel(pri log.Priority) {
	logger.SetLogLevel(pri)
}

const (
	dbusServiceName = "org.freedesktop.DBus"
	dbusPath        = "/org/freedesktop/DBus"
	dbusInterface   = dbusServiceName
)

// Clock supplies wall clock time and a monotonic loop time in seconds.
type Clock interface {
	Now() time.Time
	LoopTime() float64
}

type systemClock struct {
	base time.Time
}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (c systemClock) LoopTime() float64 {
	return time.Since(c.base).Seconds()
}

// Client is the oFono object model as seen from one bus connection. It is
// not safe for concurrent use: every method, and every callback it runs,
// belongs to the goroutine of the Loop the transport delivers into.
type Client struct {
	transport Transport
	clock     Clock
	autoPower bool

	// busID is the unique name of oFono, empty while it is not running.
	busID     string
	bus       *busObject
	manager   *busObject
	getModems *PendingCall

	modems     map[dbus.ObjectPath]*Modem
	selected   *Modem
	pathWanted dbus.ObjectPath
	apiMask    API
	modemTypes strv.Strv

	cbs callbacks
}

func NewClient(transport Transport) *Client {
	return &Client{
		transport:  transport,
		clock:      systemClock{base: time.Now()},
		modems:     make(map[dbus.ObjectPath]*Modem),
		modemTypes: strv.Strv(ModemTypeList()),
	}
}

func (c *Client) SetClock(clock Clock) {
	c.clock = clock
}

func (c *Client) LoopTime() float64 {
	return c.clock.LoopTime()
}

// SetAutoPower makes the client power on a modem after loading the modem
// list when no selected modem offers voice calls.
func (c *Client) SetAutoPower(enabled bool) {
	c.autoPower = enabled
}

// Start looks up the owner of org.ofono and follows it from then on.
func (c *Client) Start() {
	if c.bus != nil {
		return
	}
	c.bus = &busObject{}
	c.bus.init(c, dbusServiceName, dbusPath)
	c.bus.listen(dbusInterface, "NameOwnerChanged", c.handleNameOwnerChanged)
	c.bus.send(dbusInterface, "GetNameOwner", func(r *Reply) {
		if r.Err != nil {
			if ErrorKindOf(r.Err) != ErrorCanceled {
				logger.Infof("%s is not running: %v", serviceName, r.Err)
			}
			return
		}
		var owner string
		err := r.Store(&owner)
		if err != nil {
			logger.Warning("bad GetNameOwner reply:", err)
			return
		}
		if owner != "" && c.busID == "" {
			c.connected(owner)
		}
	}, serviceName)
}

// Stop drops every modem and stops following oFono.
func (c *Client) Stop() {
	c.disconnected()
	if c.bus != nil {
		c.bus.destroy()
		c.bus = nil
	}
	c.pathWanted = ""
}

func (c *Client) Connected() bool {
	return c.busID != ""
}

func (c *Client) BusID() string {
	return c.busID
}

func (c *Client) handleNameOwnerChanged(sig *dbus.Signal) {
	var name, oldOwner, newOwner string
	err := dbus.Store(sig.Body, &name, &oldOwner, &newOwner)
	if err != nil {
		logger.Warning("bad NameOwnerChanged:", err)
		return
	}
	if name != serviceName {
		return
	}
	logger.Debugf("%s owner changed: %q -> %q", name, oldOwner, newOwner)
	if oldOwner != "" {
		c.disconnected()
	}
	if newOwner != "" {
		c.connected(newOwner)
	}
}

func (c *Client) connected(id string) {
	if c.busID == id {
		return
	}
	if c.busID != "" {
		c.disconnected()
	}
	c.busID = id
	logger.Info("ofono connected:", id)

	c.manager = &busObject{}
	c.manager.init(c, id, "/")
	c.manager.listen(ifaceManager, "ModemAdded", c.handleModemAdded)
	c.manager.listen(ifaceManager, "ModemRemoved", c.handleModemRemoved)
	c.loadModems()

	c.cbs.modemConnected.each(func(fn ModemCallback) { fn() })
}

func (c *Client) disconnected() {
	if c.manager != nil {
		c.manager.destroy()
		c.manager = nil
	}
	c.removeAllModems()
	if c.busID == "" {
		return
	}
	logger.Info("ofono disconnected:", c.busID)
	c.busID = ""
	c.cbs.modemDisconnected.each(func(fn ModemCallback) { fn() })
}

func (c *Client) loadModems() {
	c.getModems.Cancel()
	c.getModems = c.manager.send(ifaceManager, "GetModems", func(r *Reply) {
		c.getModems = nil
		if r.Err != nil {
			if ErrorKindOf(r.Err) != ErrorCanceled {
				logger.Warning("failed to get modems:", r.Err)
			}
			return
		}
		list, err := decodePathPropertiesList(r.Body)
		if err != nil {
			logger.Warning("bad GetModems reply:", err)
			return
		}
		c.removeAllModems()
		for _, item := range list {
			c.addModem(item.Path, item.Props)
		}
		logger.Infof("loaded %d modems", len(list))
		c.notifyModemChanged()

		if c.autoPower && !c.VoiceIsOnline() {
			c.SetPowered(true, func(err error) {
				if err != nil {
					logger.Warning("failed to power modem:", err)
				}
			})
		}
	})
}

func (c *Client) handleModemAdded(sig *dbus.Signal) {
	path, props, err := decodePathProperties(sig.Body)
	if err != nil {
		logger.Warning("bad ModemAdded:", err)
		return
	}
	c.addModem(path, props)
}

func (c *Client) handleModemRemoved(sig *dbus.Signal) {
	var path dbus.ObjectPath
	err := dbus.Store(sig.Body, &path)
	if err != nil {
		logger.Warning("bad ModemRemoved:", err)
		return
	}
	c.removeModem(path)
}

// SPDX-FileCopyrightText: 2018 - 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package dbus

import (
	"github.com/godbus/dbus/v5"
	ofdbus "github.com/linuxdeepin/go-dbus-factory/system/org.freedesktop.dbus"
	"github.com/linuxdeepin/go-lib/log"
)

var logger = log.NewLogger("daemon/dbus")

// ActivateSystemService asks the bus daemon to start serviceName unless it
// already has an owner.
func ActivateSystemService(sysBus *dbus.Conn, serviceName string) (activated bool, err error) {
	sysBusObj := ofdbus.NewDBus(sysBus)

	has, err := sysBusObj.NameHasOwner(0, serviceName)
	if err != nil {
		return false, err
	}
	if has {
		logger.Debug("service activated", serviceName)
		return false, nil
	}

	_, err = sysBusObj.StartServiceByName(0, serviceName, 0)
	if err != nil {
		return false, err
	}
	return true, nil
}

// SPDX-FileCopyrightText: 2018 - 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package telephony

import (
	ddbus "github.com/linuxdeepin/dde-telephony/dbus"
	"github.com/linuxdeepin/dde-telephony/loader"
	"github.com/linuxdeepin/dde-telephony/ofono"
	"github.com/linuxdeepin/dde-telephony/ofono/sysbus"
	"github.com/linuxdeepin/go-lib/log"
	"golang.org/x/xerrors"
)

var logger = log.NewLogger("daemon/telephony")

const ofonoServiceName = "org.ofono"

func init() {
	loader.Register(NewModule())
}

type Module struct {
	t         *Telephony
	loop      *ofono.Loop
	transport *sysbus.Transport
	cfgLoader *configLoader
	*loader.ModuleBase
}

func (m *Module) GetDependencies() []string {
	return nil
}

func (m *Module) Start() error {
	if m.t != nil {
		return nil
	}
	logger.Debug("telephony module start")
	service := loader.GetService()
	if service == nil {
		return xerrors.New("no system bus service")
	}
	conn := service.Conn()

	// oFono is bus activated
	started, err := ddbus.ActivateSystemService(conn, ofonoServiceName)
	if err != nil {
		logger.Warningf("failed to activate %s: %v", ofonoServiceName, err)
	} else if started {
		logger.Info("activated", ofonoServiceName)
	}

	ds, err := newDSConfig(conn)
	if err != nil {
		logger.Warning(err)
	}
	m.cfgLoader = &configLoader{
		ds:        ds,
		file:      configFile,
		overrides: getOverrides(),
	}
	cfg := m.cfgLoader.load()

	m.loop = ofono.NewLoop(64)
	m.loop.Start()
	m.transport, err = sysbus.Dial(m.loop)
	if err != nil {
		m.loop.Stop()
		m.cfgLoader.stop()
		return xerrors.Errorf("connect ofono transport: %w", err)
	}
	m.t = newTelephony(service, m.loop, m.transport, cfg)
	m.loop.Call(m.t.start)

	err = service.Export(dbusPath, m.t)
	if err != nil {
		m.shutdown()
		return xerrors.Errorf("export telephony: %w", err)
	}
	err = service.RequestName(dbusServiceName)
	if err != nil {
		_ = service.StopExport(m.t)
		m.shutdown()
		return xerrors.Errorf("request name %s: %w", dbusServiceName, err)
	}

	err = m.cfgLoader.watch(m.t.applyConfig)
	if err != nil {
		logger.Warning(err)
	}
	return nil
}

func (m *Module) Stop() error {
	if m.t == nil {
		return nil
	}
	service := loader.GetService()
	err := service.ReleaseName(dbusServiceName)
	if err != nil {
		logger.Warning(err)
	}
	err = service.StopExport(m.t)
	if err != nil {
		logger.Warning(err)
	}
	m.shutdown()
	return nil
}

func (m *Module) shutdown() {
	m.loop.Call(m.t.stop)
	m.transport.Close()
	m.loop.Stop()
	m.cfgLoader.stop()
	m.t = nil
}

func NewModule() *Module {
	m := &Module{}
	m.ModuleBase = loader.NewModuleBase("telephony", m, logger)
	return m
}

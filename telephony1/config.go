// SPDX-FileCopyrightText: 2018 - 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package telephony

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/fsnotify/fsnotify"
	"github.com/godbus/dbus/v5"
	"github.com/linuxdeepin/dde-telephony/common/dconfig"
	"github.com/linuxdeepin/go-lib/keyfile"
	"github.com/linuxdeepin/go-lib/utils"
	"golang.org/x/xerrors"
)

const (
	dsettingsAppID         = "org.deepin.dde.daemon"
	dsettingsTelephonyName = "org.deepin.dde.daemon.telephony"

	dsettingsKeyModemAPI    = "modemApi"
	dsettingsKeyModemType   = "modemType"
	dsettingsKeyModemPath   = "modemPath"
	dsettingsKeyAutoPower   = "autoPower"
	dsettingsKeyCallTimeout = "callTimeout"

	configFile = "/etc/deepin/dde-telephony.conf"

	kfGroupModem       = "Modem"
	kfKeyAPI           = "Api"
	kfKeyType          = "Type"
	kfKeyPath          = "Path"
	kfKeyAutoPower     = "AutoPower"
	kfKeyCallTimeout   = "CallTimeout"
	defaultCallTimeout = 30 * time.Second
)

// Config selects the modem and bounds how long a D-Bus caller waits.
type Config struct {
	ModemAPI    string
	ModemType   string
	ModemPath   string
	AutoPower   bool
	CallTimeout time.Duration
}

func defaultConfig() Config {
	return Config{
		ModemAPI:    "VoiceCallManager",
		ModemType:   "hfp,sap,hardware",
		AutoPower:   false,
		CallTimeout: defaultCallTimeout,
	}
}

// Overrides come from the command line and win over every file.
type Overrides struct {
	ModemAPI  string
	ModemType string
	ModemPath string
}

var (
	overridesMu  sync.Mutex
	cliOverrides Overrides
)

func SetOverrides(o Overrides) {
	overridesMu.Lock()
	cliOverrides = o
	overridesMu.Unlock()
}

func getOverrides() Overrides {
	overridesMu.Lock()
	defer overridesMu.Unlock()
	return cliOverrides
}

func (c *Config) applyOverrides(o Overrides) {
	if o.ModemAPI != "" {
		c.ModemAPI = o.ModemAPI
	}
	if o.ModemType != "" {
		c.ModemType = o.ModemType
	}
	if o.ModemPath != "" {
		c.ModemPath = o.ModemPath
	}
}

// applyKeyFile takes the keys present in the [Modem] group of file.
func (c *Config) applyKeyFile(file string) error {
	if !utils.IsFileExist(file) {
		return nil
	}
	kf := keyfile.NewKeyFile()
	err := kf.LoadFromFile(file)
	if err != nil {
		return xerrors.Errorf("load %s: %w", file, err)
	}

	if v, err := kf.GetString(kfGroupModem, kfKeyAPI); err == nil && v != "" {
		c.ModemAPI = v
	}
	if v, err := kf.GetString(kfGroupModem, kfKeyType); err == nil && v != "" {
		c.ModemType = v
	}
	if v, err := kf.GetString(kfGroupModem, kfKeyPath); err == nil {
		c.ModemPath = v
	}
	if v, err := kf.GetBool(kfGroupModem, kfKeyAutoPower); err == nil {
		c.AutoPower = v
	}
	if v, err := kf.GetInt(kfGroupModem, kfKeyCallTimeout); err == nil {
		if v > 0 {
			c.CallTimeout = time.Duration(v) * time.Second
		} else {
			logger.Warningf("%s: ignore call timeout %d", file, v)
		}
	}
	return nil
}

// dsConfig holds the keys of the telephony DConfig resource.
type dsConfig struct {
	dc          *dconfig.DConfig
	modemAPI    dconfig.String
	modemType   dconfig.String
	modemPath   dconfig.String
	autoPower   dconfig.Bool
	callTimeout dconfig.Int64
}

func newDSConfig(conn *dbus.Conn) (*dsConfig, error) {
	dc, err := dconfig.NewDConfig(conn, dsettingsAppID, dsettingsTelephonyName, "")
	if err != nil {
		return nil, xerrors.Errorf("acquire dconfig: %w", err)
	}
	ds := &dsConfig{dc: dc}
	ds.modemAPI.Bind(dc, dsettingsKeyModemAPI)
	ds.modemType.Bind(dc, dsettingsKeyModemType)
	ds.modemPath.Bind(dc, dsettingsKeyModemPath)
	ds.autoPower.Bind(dc, dsettingsKeyAutoPower)
	ds.callTimeout.Bind(dc, dsettingsKeyCallTimeout)
	return ds, nil
}

func (ds *dsConfig) applyTo(c *Config) {
	if v := ds.modemAPI.Get(); v != "" {
		c.ModemAPI = v
	}
	if v := ds.modemType.Get(); v != "" {
		c.ModemType = v
	}
	c.ModemPath = ds.modemPath.Get()
	c.AutoPower = ds.autoPower.Get()
	if v := ds.callTimeout.Get(); v > 0 {
		c.CallTimeout = time.Duration(v) * time.Second
	}
}

func (ds *dsConfig) connectChanged(fn func()) {
	changed := func(interface{}) { fn() }
	ds.modemAPI.SetNotifyChangedFunc(changed)
	ds.modemType.SetNotifyChangedFunc(changed)
	ds.modemPath.SetNotifyChangedFunc(changed)
	ds.autoPower.SetNotifyChangedFunc(changed)
	ds.callTimeout.SetNotifyChangedFunc(changed)
}

func (ds *dsConfig) destroy() {
	ds.dc.Destroy()
}

// configLoader merges defaults, DConfig, the config file and the command
// line, in that order.
type configLoader struct {
	ds        *dsConfig
	file      string
	overrides Overrides

	watcher *fsnotify.Watcher
	quit    chan struct{}
}

func (l *configLoader) load() Config {
	cfg := defaultConfig()
	if l.ds != nil {
		l.ds.applyTo(&cfg)
	}
	err := cfg.applyKeyFile(l.file)
	if err != nil {
		logger.Warning(err)
	}
	cfg.applyOverrides(l.overrides)
	logger.Debug("telephony config:", spew.Sdump(cfg))
	return cfg
}

// watch calls fn with the merged config whenever DConfig or the config
// file changes.
func (l *configLoader) watch(fn func(Config)) error {
	if l.ds != nil {
		l.ds.connectChanged(func() {
			fn(l.load())
		})
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return xerrors.Errorf("new file watcher: %w", err)
	}
	dir := filepath.Dir(l.file)
	err = watcher.Add(dir)
	if err != nil {
		_ = watcher.Close()
		return xerrors.Errorf("watch %s: %w", dir, err)
	}
	l.watcher = watcher
	l.quit = make(chan struct{})
	go l.handleEvents(watcher, l.quit, fn)
	return nil
}

func (l *configLoader) handleEvents(watcher *fsnotify.Watcher, quit chan struct{}, fn func(Config)) {
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(l.file) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				logger.Debug("config file event:", event)
				fn(l.load())
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warning("config watcher:", err)
		case <-quit:
			return
		}
	}
}

func (l *configLoader) stop() {
	if l.watcher != nil {
		close(l.quit)
		_ = l.watcher.Close()
		l.watcher = nil
	}
	if l.ds != nil {
		l.ds.destroy()
	}
}

// SPDX-FileCopyrightText: 2018 - 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package ofono

import (
	"strings"

	"github.com/godbus/dbus/v5"
	"github.com/linuxdeepin/go-lib/strv"
	"golang.org/x/xerrors"
)

func (c *Client) addModem(path dbus.ObjectPath, props Properties) *Modem {
	m := c.modems[path]
	if m == nil {
		m = newModem(c, path)
		c.modems[path] = m
		c.invalidateSelection()
		logger.Info("modem added:", path)
	}
	if updateProperties(props, m.updateProperty) {
		c.notifyModemChanged()
	}
	return m
}

func (c *Client) removeModem(path dbus.ObjectPath) {
	m := c.modems[path]
	if m == nil {
		logger.Debug("remove unknown modem", path)
		return
	}
	delete(c.modems, path)
	if c.selected == m {
		c.selected = nil
	}
	m.destroy()
	logger.Info("modem removed:", path)
	c.notifyModemChanged()
}

func (c *Client) removeAllModems() {
	paths := sortedPaths(c.modems)
	c.selected = nil
	for _, path := range paths {
		m := c.modems[path]
		delete(c.modems, path)
		m.destroy()
	}
}

func (c *Client) invalidateSelection() {
	c.selected = nil
}

func (c *Client) modemTypeAllowed(t string) bool {
	return c.modemTypes.Contains(t)
}

// Modems returns every known modem, ordered by path.
func (c *Client) Modems() []*Modem {
	paths := sortedPaths(c.modems)
	result := make([]*Modem, 0, len(paths))
	for _, path := range paths {
		result = append(result, c.modems[path])
	}
	return result
}

func (c *Client) Modem(path dbus.ObjectPath) *Modem {
	return c.modems[path]
}

// SelectedModem returns the modem operations go to: the wanted one if it is
// known, otherwise one carrying every required interface, preferring one that
// is online and powered.
func (c *Client) SelectedModem() *Modem {
	if c.selected != nil {
		return c.selected
	}

	var foundPath, foundAPI *Modem
	online, powered := 0, 0
	for _, path := range sortedPaths(c.modems) {
		m := c.modems[path]
		if m.ignored {
			continue
		}
		if m.online {
			online++
		}
		if m.powered {
			powered++
		}
		if c.pathWanted != "" && m.path == c.pathWanted {
			foundPath = m
			break
		}
		if foundAPI == nil || !foundAPI.online || !foundAPI.powered {
			if m.interfaces.Has(c.apiMask) {
				foundAPI = m
			}
		}
	}

	if foundPath != nil {
		c.selected = foundPath
	} else {
		c.selected = foundAPI
	}

	if len(c.modems) > 0 {
		if powered == 0 {
			logger.Error("no modem is powered")
		} else if online == 0 {
			logger.Warning("no modem is online")
		}
	}
	if c.selected != nil {
		logger.Debugf("selected modem %s (interfaces %s)", c.selected.path, c.selected.interfaces)
	}
	return c.selected
}

// requireModem returns the selected modem if it carries api.
func (c *Client) requireModem(api API) (*Modem, error) {
	m := c.SelectedModem()
	if m == nil {
		return nil, newError(ErrorOffline, "no modem")
	}
	if !m.interfaces.Has(api) {
		return nil, newError(ErrorOffline, "modem lacks "+api.String())
	}
	return m, nil
}

func splitList(spec string) []string {
	var result []string
	for _, item := range strings.Split(spec, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}

// ModemAPIRequire sets the interfaces a modem must carry to be selected, as
// a comma separated list like "SimManager,VoiceCallManager".
func (c *Client) ModemAPIRequire(spec string) error {
	var mask API
	for _, name := range splitList(spec) {
		api, ok := apiByName(name)
		if !ok {
			logger.Warningf("unknown modem api %q", name)
			continue
		}
		mask |= api
	}
	if mask == 0 {
		return xerrors.Errorf("no known modem api in %q", spec)
	}
	if mask == c.apiMask {
		return nil
	}
	logger.Infof("modem api required: %s", mask)
	c.apiMask = mask
	c.invalidateSelection()
	return nil
}

// ModemTypeRequire sets the modem types that are not ignored, as a comma
// separated list like "hfp,hardware".
func (c *Client) ModemTypeRequire(spec string) error {
	var types strv.Strv
	for _, name := range splitList(spec) {
		if !strv.Strv(knownModemTypes).Contains(name) {
			logger.Warningf("unknown modem type %q", name)
			continue
		}
		types, _ = types.Add(name)
	}
	if len(types) == 0 {
		return xerrors.Errorf("no known modem type in %q", spec)
	}
	if c.modemTypes.Equal(types) {
		return nil
	}
	logger.Infof("modem types required: %s", strings.Join(types, ","))
	c.modemTypes = types
	for _, m := range c.Modems() {
		if m.modemType != "" {
			m.applyTypePolicy()
		}
	}
	c.invalidateSelection()
	return nil
}

func (c *Client) ModemAPIMask() API {
	return c.apiMask
}

func (c *Client) SetModemPathWanted(path dbus.ObjectPath) {
	if c.pathWanted == path {
		return
	}
	logger.Infof("modem path wanted: %q", path)
	c.pathWanted = path
	c.invalidateSelection()
}

func (c *Client) ModemPathWanted() dbus.ObjectPath {
	return c.pathWanted
}

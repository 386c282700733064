// SPDX-FileCopyrightText: 2018 - 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package ofono

import (
	"sort"

	"github.com/godbus/dbus/v5"
)

type Modem struct {
	busObject

	name       string
	serial     string
	modemType  string
	interfaces API
	powered    bool
	online     bool
	ignored    bool

	calls        map[dbus.ObjectPath]*Call
	sentMessages map[dbus.ObjectPath]*SentMessage

	// CallVolume
	muted         bool
	speakerVolume uint8
	micVolume     uint8

	// MessageWaiting
	voicemailWaiting bool
	voicemailCount   uint8
	voicemailNumber  string

	// SupplementaryServices
	ussdState USSDState

	// MessageManager
	serviceCenterAddress string
	useDeliveryReports   bool
	bearer               string
	alphabet             string
}

func newModem(c *Client, path dbus.ObjectPath) *Modem {
	m := &Modem{
		calls:        make(map[dbus.ObjectPath]*Call),
		sentMessages: make(map[dbus.ObjectPath]*SentMessage),
		ussdState:    USSDStateIdle,
	}
	m.init(c, c.busID, path)

	m.listen(ifaceModem, "PropertyChanged", m.propertyChangedHandler(m.updateProperty))
	m.listen(ifaceCallVolume, "PropertyChanged",
		m.propertyChangedHandler(m.updateCallVolumeProperty))
	m.listen(ifaceMessageWaiting, "PropertyChanged",
		m.propertyChangedHandler(m.updateMessageWaitingProperty))
	m.listen(ifaceSupplementaryServices, "PropertyChanged",
		m.propertyChangedHandler(m.updateSupplementaryServicesProperty))
	m.listen(ifaceMessageManager, "PropertyChanged",
		m.propertyChangedHandler(m.updateMessageManagerProperty))

	m.listen(ifaceVoiceCallManager, "CallAdded", m.handleCallAdded)
	m.listen(ifaceVoiceCallManager, "CallRemoved", m.handleCallRemoved)

	m.listen(ifaceSupplementaryServices, "NotificationReceived", func(sig *dbus.Signal) {
		m.handleUSSD(sig, false)
	})
	m.listen(ifaceSupplementaryServices, "RequestReceived", func(sig *dbus.Signal) {
		m.handleUSSD(sig, true)
	})

	m.listen(ifaceMessageManager, "ImmediateMessage", func(sig *dbus.Signal) {
		m.handleIncomingMessage(sig, 0)
	})
	m.listen(ifaceMessageManager, "IncomingMessage", func(sig *dbus.Signal) {
		m.handleIncomingMessage(sig, 1)
	})
	m.listen(ifaceMessageManager, "MessageAdded", m.handleMessageAdded)
	m.listen(ifaceMessageManager, "MessageRemoved", m.handleMessageRemoved)
	return m
}

func (m *Modem) propertyChangedHandler(update func(string, dbus.Variant) bool) func(*dbus.Signal) {
	return func(sig *dbus.Signal) {
		key, value, err := decodePropertyChanged(sig)
		if err != nil {
			logger.Warning(err)
			return
		}
		logger.Debugf("modem %s property %s changed: %v", m.path, key, value)
		if update(key, value) {
			m.client.notifyModemChanged()
		}
	}
}

func (m *Modem) updateProperty(key string, v dbus.Variant) bool {
	switch key {
	case "Powered":
		return setBool(&m.powered, key, v)
	case "Online":
		return setBool(&m.online, key, v)
	case "Interfaces":
		names, ok := variantStrings(key, v)
		if !ok {
			return false
		}
		return m.setInterfaces(parseInterfaces(names))
	case "Serial":
		return setString(&m.serial, key, v)
	case "Type":
		t, ok := variantString(key, v)
		if !ok {
			return false
		}
		changed := t != m.modemType
		m.modemType = t
		if m.applyTypePolicy() {
			changed = true
		}
		return changed
	case "Name":
		return setString(&m.name, key, v)
	}
	logger.Debugf("modem %s: ignore property %s", m.path, key)
	return false
}

func (m *Modem) setInterfaces(ifaces API) bool {
	if ifaces == m.interfaces {
		return false
	}
	added := ifaces &^ m.interfaces
	m.interfaces = ifaces
	logger.Debugf("modem %s interfaces: %s", m.path, ifaces)
	m.client.invalidateSelection()
	m.interfacesAdded(added)
	return true
}

// applyTypePolicy recomputes ignored against the client's type allow-list.
func (m *Modem) applyTypePolicy() bool {
	ignored := !m.client.modemTypeAllowed(m.modemType)
	if ignored == m.ignored {
		return false
	}
	m.ignored = ignored
	if ignored {
		logger.Infof("modem %s of type %q is ignored", m.path, m.modemType)
	}
	m.client.invalidateSelection()
	return true
}

func (m *Modem) interfacesAdded(added API) {
	if added&APICallVolume != 0 {
		m.loadProperties(ifaceCallVolume, m.updateCallVolumeProperty)
	}
	if added&APIMessageWaiting != 0 {
		m.loadProperties(ifaceMessageWaiting, m.updateMessageWaitingProperty)
	}
	if added&APISupplementaryServices != 0 {
		m.loadProperties(ifaceSupplementaryServices, m.updateSupplementaryServicesProperty)
	}
	if added&APIMessageManager != 0 {
		m.loadProperties(ifaceMessageManager, m.updateMessageManagerProperty)
	}
	if added&APIVoiceCallManager != 0 {
		m.loadCalls()
	}
}

func (m *Modem) loadProperties(iface string, update func(string, dbus.Variant) bool) {
	m.send(iface, "GetProperties", func(r *Reply) {
		if r.Err != nil {
			if ErrorKindOf(r.Err) != ErrorCanceled {
				logger.Warningf("failed to get %s properties of %s: %v", iface, m.path, r.Err)
			}
			return
		}
		var props map[string]dbus.Variant
		err := r.Store(&props)
		if err != nil {
			logger.Warningf("bad %s properties of %s: %v", iface, m.path, err)
			return
		}
		if updateProperties(props, update) {
			m.client.notifyModemChanged()
		}
	})
}

func (m *Modem) updateCallVolumeProperty(key string, v dbus.Variant) bool {
	switch key {
	case "Muted":
		return setBool(&m.muted, key, v)
	case "SpeakerVolume":
		return setByte(&m.speakerVolume, key, v)
	case "MicrophoneVolume":
		return setByte(&m.micVolume, key, v)
	}
	logger.Debugf("modem %s: ignore CallVolume property %s", m.path, key)
	return false
}

func (m *Modem) updateMessageWaitingProperty(key string, v dbus.Variant) bool {
	switch key {
	case "VoicemailWaiting":
		return setBool(&m.voicemailWaiting, key, v)
	case "VoicemailMessageCount":
		return setByte(&m.voicemailCount, key, v)
	case "VoicemailMailboxNumber":
		return setString(&m.voicemailNumber, key, v)
	}
	logger.Debugf("modem %s: ignore MessageWaiting property %s", m.path, key)
	return false
}

func (m *Modem) updateSupplementaryServicesProperty(key string, v dbus.Variant) bool {
	if key != "State" {
		logger.Debugf("modem %s: ignore SupplementaryServices property %s", m.path, key)
		return false
	}
	s, ok := variantString(key, v)
	if !ok {
		return false
	}
	state, ok := parseUSSDState(s)
	if !ok {
		logger.Warningf("modem %s: unknown USSD state %q", m.path, s)
		return false
	}
	if state == m.ussdState {
		return false
	}
	m.ussdState = state
	return true
}

func (m *Modem) updateMessageManagerProperty(key string, v dbus.Variant) bool {
	switch key {
	case "ServiceCenterAddress":
		return setString(&m.serviceCenterAddress, key, v)
	case "UseDeliveryReports":
		return setBool(&m.useDeliveryReports, key, v)
	case "Bearer":
		return setString(&m.bearer, key, v)
	case "Alphabet":
		return setString(&m.alphabet, key, v)
	}
	logger.Debugf("modem %s: ignore MessageManager property %s", m.path, key)
	return false
}

func (m *Modem) destroy() {
	for _, path := range sortedPaths(m.calls) {
		if call := m.calls[path]; call != nil {
			m.removeCall(call)
		}
	}
	for _, path := range sortedPaths(m.sentMessages) {
		if sms := m.sentMessages[path]; sms != nil {
			m.removeSentMessage(sms)
		}
	}
	m.busObject.destroy()
}

func (m *Modem) Name() string {
	return m.name
}

func (m *Modem) Serial() string {
	return m.serial
}

func (m *Modem) Type() string {
	return m.modemType
}

func (m *Modem) Interfaces() API {
	return m.interfaces
}

func (m *Modem) Powered() bool {
	return m.powered
}

func (m *Modem) Online() bool {
	return m.online
}

func (m *Modem) Ignored() bool {
	return m.ignored
}

// Calls returns the calls announced by CallAdded or GetCalls, ordered by path.
func (m *Modem) Calls() []*Call {
	var result []*Call
	for _, path := range sortedPaths(m.calls) {
		call := m.calls[path]
		if call.added {
			result = append(result, call)
		}
	}
	return result
}

func (m *Modem) Call(path dbus.ObjectPath) *Call {
	call := m.calls[path]
	if call == nil || !call.added {
		return nil
	}
	return call
}

func (m *Modem) SentMessages() []*SentMessage {
	var result []*SentMessage
	for _, path := range sortedPaths(m.sentMessages) {
		sms := m.sentMessages[path]
		if sms.added {
			result = append(result, sms)
		}
	}
	return result
}

func sortedPaths[T any](items map[dbus.ObjectPath]T) []dbus.ObjectPath {
	paths := make([]dbus.ObjectPath, 0, len(items))
	for path := range items {
		paths = append(paths, path)
	}
	sort.Slice(paths, func(i, j int) bool {
		return paths[i] < paths[j]
	})
	return paths
}

// SPDX-FileCopyrightText: 2018 - 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package ofono

import (
	"strings"
)

const (
	serviceName = "org.ofono"
	ifacePrefix = "org.ofono."

	ifaceManager               = ifacePrefix + "Manager"
	ifaceModem                 = ifacePrefix + "Modem"
	ifaceSimManager            = ifacePrefix + "SimManager"
	ifaceVoiceCallManager      = ifacePrefix + "VoiceCallManager"
	ifaceVoiceCall             = ifacePrefix + "VoiceCall"
	ifaceMessageManager        = ifacePrefix + "MessageManager"
	ifaceMessage               = ifacePrefix + "Message"
	ifaceMessageWaiting        = ifacePrefix + "MessageWaiting"
	ifaceCallVolume            = ifacePrefix + "CallVolume"
	ifaceSupplementaryServices = ifacePrefix + "SupplementaryServices"
)

// API is a set of oFono modem interfaces.
type API uint32

const (
	APISimManager API = 1 << iota
	APINetworkRegistration
	APIVoiceCallManager
	APIMessageManager
	APIMessageWaiting
	APISmartMessaging
	APISimToolkit
	APICallForwarding
	APICallVolume
	APICallMeter
	APICallSettings
	APICallBarring
	APISupplementaryServices
	APITextTelephony
	APICellBroadcast
	APIConnectionManager
	APIPushNotification
	APIPhonebook
	APIAssistedSatelliteNavigation
)

// apiNames is indexed by bit position.
var apiNames = []string{
	"SimManager",
	"NetworkRegistration",
	"VoiceCallManager",
	"MessageManager",
	"MessageWaiting",
	"SmartMessaging",
	"SimToolkit",
	"CallForwarding",
	"CallVolume",
	"CallMeter",
	"CallSettings",
	"CallBarring",
	"SupplementaryServices",
	"TextTelephony",
	"CellBroadcast",
	"ConnectionManager",
	"PushNotification",
	"Phonebook",
	"AssistedSatelliteNavigation",
}

var knownModemTypes = []string{"hfp", "sap", "hardware"}

func apiByName(name string) (API, bool) {
	name = strings.TrimPrefix(name, ifacePrefix)
	for i, n := range apiNames {
		if n == name {
			return API(1) << uint(i), true
		}
	}
	return 0, false
}

// parseInterfaces turns the modem Interfaces property into a mask. Names
// oFono has but this package does not model are ignored.
func parseInterfaces(names []string) API {
	var mask API
	for _, name := range names {
		api, ok := apiByName(name)
		if !ok {
			logger.Debug("ignore unknown interface", name)
			continue
		}
		mask |= api
	}
	return mask
}

func (a API) Has(mask API) bool {
	return a&mask == mask
}

func (a API) Strings() []string {
	var result []string
	for i, name := range apiNames {
		if a&(API(1)<<uint(i)) != 0 {
			result = append(result, name)
		}
	}
	return result
}

func (a API) String() string {
	return strings.Join(a.Strings(), ",")
}

// ModemAPIList returns every interface name usable with ModemAPIRequire.
func ModemAPIList() []string {
	result := make([]string, len(apiNames))
	copy(result, apiNames)
	return result
}

// ModemTypeList returns every modem type usable with ModemTypeRequire.
func ModemTypeList() []string {
	result := make([]string, len(knownModemTypes))
	copy(result, knownModemTypes)
	return result
}

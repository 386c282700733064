// SPDX-FileCopyrightText: 2018 - 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package ofono

import (
	"fmt"
	"sort"
	"strings"

	"github.com/godbus/dbus/v5"
	"golang.org/x/xerrors"
)

type USSDState int

const (
	USSDStateIdle USSDState = iota
	USSDStateActive
	USSDStateUserResponse
)

func parseUSSDState(s string) (USSDState, bool) {
	switch s {
	case "idle":
		return USSDStateIdle, true
	case "active":
		return USSDStateActive, true
	case "user-response":
		return USSDStateUserResponse, true
	}
	return USSDStateIdle, false
}

func (s USSDState) String() string {
	switch s {
	case USSDStateActive:
		return "active"
	case USSDStateUserResponse:
		return "user-response"
	}
	return "idle"
}

var ErrUnknownSSType = xerrors.New("unknown supplementary service type")

type ssConverter func(typeTag string, payload interface{}) (string, error)

var ssConverters = map[string]ssConverter{
	"USSD":                      convertUSSD,
	"CallBarring":               convertSSWithService,
	"CallForwarding":            convertSSWithService,
	"CallWaiting":               convertSSWithDict,
	"CallingLinePresentation":   convertSSStatus,
	"ConnectedLinePresentation": convertSSStatus,
	"CallingLineRestriction":    convertSSStatus,
	"ConnectedLineRestriction":  convertSSStatus,
}

// ConvertSSReply renders the (type, payload) reply of
// SupplementaryServices.Initiate as display text.
func ConvertSSReply(typeTag string, payload dbus.Variant) (string, error) {
	convert, ok := ssConverters[typeTag]
	if !ok {
		return "", xerrors.Errorf("type %q: %w", typeTag, ErrUnknownSSType)
	}
	return convert(typeTag, payload.Value())
}

func convertUSSD(typeTag string, payload interface{}) (string, error) {
	s, ok := payload.(string)
	if !ok {
		return "", xerrors.Errorf("%s: expected string, got %T", typeTag, payload)
	}
	return s, nil
}

func ssFields(typeTag string, payload interface{}, n int) ([]interface{}, error) {
	fields, ok := payload.([]interface{})
	if !ok || len(fields) != n {
		return nil, xerrors.Errorf("%s: expected struct of %d fields, got %T", typeTag, n, payload)
	}
	return fields, nil
}

func ssStrings(typeTag string, fields []interface{}) ([]string, error) {
	result := make([]string, len(fields))
	for i, f := range fields {
		s, ok := f.(string)
		if !ok {
			return nil, xerrors.Errorf("%s: field %d: expected string, got %T", typeTag, i, f)
		}
		result[i] = s
	}
	return result, nil
}

func writeSSDict(sb *strings.Builder, typeTag string, value interface{}) error {
	dict, ok := value.(map[string]dbus.Variant)
	if !ok {
		return xerrors.Errorf("%s: expected dict, got %T", typeTag, value)
	}
	keys := make([]string, 0, len(dict))
	for k := range dict {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(sb, "&nbsp;&nbsp;&nbsp;%s=%v<br>", k, dict[k].Value())
	}
	return nil
}

// (op, service, dict)
func convertSSWithService(typeTag string, payload interface{}) (string, error) {
	fields, err := ssFields(typeTag, payload, 3)
	if err != nil {
		return "", err
	}
	strs, err := ssStrings(typeTag, fields[:2])
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>%s %s=%s</b><br><br>", typeTag, strs[0], strs[1])
	err = writeSSDict(&sb, typeTag, fields[2])
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}

// (op, dict)
func convertSSWithDict(typeTag string, payload interface{}) (string, error) {
	fields, err := ssFields(typeTag, payload, 2)
	if err != nil {
		return "", err
	}
	strs, err := ssStrings(typeTag, fields[:1])
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>%s %s</b><br><br>", typeTag, strs[0])
	err = writeSSDict(&sb, typeTag, fields[1])
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}

// (op, status)
func convertSSStatus(typeTag string, payload interface{}) (string, error) {
	fields, err := ssFields(typeTag, payload, 2)
	if err != nil {
		return "", err
	}
	strs, err := ssStrings(typeTag, fields)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("<b>%s:</b><br><br>%s=%s", typeTag, strs[0], strs[1]), nil
}

func (m *Modem) handleUSSD(sig *dbus.Signal, needsReply bool) {
	var message string
	err := dbus.Store(sig.Body, &message)
	if err != nil {
		logger.Warningf("bad USSD notification from %s: %v", m.path, err)
		return
	}
	m.client.cbs.ussdNotify.each(func(fn USSDNotifyCallback) {
		fn(message, needsReply)
	})
}

func (m *Modem) USSDState() USSDState {
	return m.ussdState
}

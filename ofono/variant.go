// SPDX-FileCopyrightText: 2018 - 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package ofono

import (
	"time"

	"github.com/godbus/dbus/v5"
	"golang.org/x/xerrors"
)

// Properties is the a{sv} dictionary oFono hands out.
type Properties map[string]dbus.Variant

var timeLayouts = []string{
	"2006-01-02T15:04:05-0700",
	time.RFC3339,
	"2006-01-02T15:04:05",
}

func variantString(key string, v dbus.Variant) (string, bool) {
	s, ok := v.Value().(string)
	if !ok {
		logger.Warningf("property %s: expected string, got %s", key, v.Signature())
	}
	return s, ok
}

func variantBool(key string, v dbus.Variant) (bool, bool) {
	b, ok := v.Value().(bool)
	if !ok {
		logger.Warningf("property %s: expected bool, got %s", key, v.Signature())
	}
	return b, ok
}

func variantByte(key string, v dbus.Variant) (uint8, bool) {
	b, ok := v.Value().(byte)
	if !ok {
		logger.Warningf("property %s: expected byte, got %s", key, v.Signature())
	}
	return b, ok
}

func variantStrings(key string, v dbus.Variant) ([]string, bool) {
	list, ok := v.Value().([]string)
	if !ok {
		logger.Warningf("property %s: expected string array, got %s", key, v.Signature())
	}
	return list, ok
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		t, err := time.ParseInLocation(layout, s, time.Local)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, xerrors.Errorf("invalid time %q", s)
}

func setString(dst *string, key string, v dbus.Variant) bool {
	s, ok := variantString(key, v)
	if !ok || *dst == s {
		return false
	}
	*dst = s
	return true
}

func setBool(dst *bool, key string, v dbus.Variant) bool {
	b, ok := variantBool(key, v)
	if !ok || *dst == b {
		return false
	}
	*dst = b
	return true
}

func setByte(dst *uint8, key string, v dbus.Variant) bool {
	b, ok := variantByte(key, v)
	if !ok || *dst == b {
		return false
	}
	*dst = b
	return true
}

// updateProperties feeds every key of props to update and reports whether
// any of them changed something.
func updateProperties(props Properties, update func(key string, v dbus.Variant) bool) bool {
	changed := false
	for key, v := range props {
		if update(key, v) {
			changed = true
		}
	}
	return changed
}

// decodePropertyChanged unpacks the (s, v) body of a PropertyChanged signal.
func decodePropertyChanged(sig *dbus.Signal) (string, dbus.Variant, error) {
	var key string
	var value dbus.Variant
	err := dbus.Store(sig.Body, &key, &value)
	if err != nil {
		return "", dbus.Variant{}, xerrors.Errorf("bad PropertyChanged from %s: %w", sig.Path, err)
	}
	return key, value, nil
}

// decodePathProperties unpacks an (o, a{sv}) body, as in CallAdded.
func decodePathProperties(body []interface{}) (dbus.ObjectPath, Properties, error) {
	var path dbus.ObjectPath
	var props map[string]dbus.Variant
	err := dbus.Store(body, &path, &props)
	if err != nil {
		return "", nil, xerrors.Errorf("bad (oa{sv}) body: %w", err)
	}
	return path, props, nil
}

// pathProperties is one element of an a(oa{sv}) reply.
type pathProperties struct {
	Path  dbus.ObjectPath
	Props Properties
}

func decodePathPropertiesList(body []interface{}) ([]pathProperties, error) {
	if len(body) < 1 {
		return nil, xerrors.New("empty a(oa{sv}) body")
	}
	items, ok := body[0].([][]interface{})
	if !ok {
		if list, isList := body[0].([]interface{}); isList {
			for _, item := range list {
				fields, isStruct := item.([]interface{})
				if !isStruct {
					return nil, xerrors.Errorf("bad a(oa{sv}) element %T", item)
				}
				items = append(items, fields)
			}
		} else {
			return nil, xerrors.Errorf("bad a(oa{sv}) body %T", body[0])
		}
	}
	result := make([]pathProperties, 0, len(items))
	for _, fields := range items {
		path, props, err := decodePathProperties(fields)
		if err != nil {
			return nil, err
		}
		result = append(result, pathProperties{Path: path, Props: props})
	}
	return result, nil
}

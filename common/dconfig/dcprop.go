// SPDX-FileCopyrightText: 2025 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package dconfig

import (
	"errors"
	"reflect"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/linuxdeepin/go-lib/dbusutil"
)

type base struct {
	mu                sync.Mutex
	dc                *DConfig
	key               string
	notifyChangedList []func(val interface{})
}

func (b *base) bind(dc *DConfig, keyName string,
	getFn func() (interface{}, *dbus.Error)) {

	b.dc = dc
	b.key = keyName

	dc.ConnectConfigChanged(keyName, func(val interface{}) {
		b.mu.Lock()
		notifyChangedList := b.notifyChangedList
		b.mu.Unlock()

		if notifyChangedList != nil {
			currentVal, _ := getFn()
			for _, notifyChanged := range notifyChangedList {
				if notifyChanged != nil {
					notifyChanged(currentVal)
				}
			}
		}
	})
}

func (b *base) SetNotifyChangedFunc(fn func(val interface{})) {
	b.mu.Lock()
	b.notifyChangedList = append(b.notifyChangedList, fn)
	b.mu.Unlock()
}

func checkSet(setOk bool) *dbus.Error {
	if setOk {
		return nil
	}
	return dbusutil.ToError(errors.New("write failed"))
}

type Bool struct {
	base
}

func (b *Bool) Bind(dc *DConfig, key string) {
	b.bind(dc, key, b.GetValue)
}

func (b *Bool) SetValue(val interface{}) (changed bool, err *dbus.Error) {
	valBool, ok := val.(bool)
	if !ok {
		return false, dbusutil.ToError(errors.New("invalid value type"))
	}
	err = checkSet(b.Set(valBool))
	return
}

func (b *Bool) GetValue() (val interface{}, err *dbus.Error) {
	val = b.Get()
	return
}

func (b *Bool) Get() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	v, err := b.dc.GetValueBool(b.key)
	if err != nil {
		return false
	}
	return v
}

func (b *Bool) Set(val bool) bool {
	if b.Get() != val {
		b.mu.Lock()
		defer b.mu.Unlock()

		err := b.dc.SetValue(b.key, val)
		return err == nil
	}
	return true
}

func (*Bool) GetType() reflect.Type {
	return reflect.TypeOf(false)
}

type Int64 struct {
	base
}

func (i *Int64) Bind(dc *DConfig, key string) {
	i.bind(dc, key, i.GetValue)
}

func (i *Int64) SetValue(val interface{}) (changed bool, err *dbus.Error) {
	valInt64, ok := val.(int64)
	if !ok {
		return false, dbusutil.ToError(errors.New("invalid value type"))
	}
	err = checkSet(i.Set(valInt64))
	return
}

func (i *Int64) GetValue() (val interface{}, err *dbus.Error) {
	val = i.Get()
	return
}

func (*Int64) GetType() reflect.Type {
	return reflect.TypeOf(int64(0))
}

func (i *Int64) Set(val int64) bool {
	if i.Get() != val {
		i.mu.Lock()
		defer i.mu.Unlock()

		err := i.dc.SetValue(i.key, val)
		return err == nil
	}
	return true
}

func (i *Int64) Get() int64 {
	i.mu.Lock()
	defer i.mu.Unlock()

	v, err := i.dc.GetValueInt64(i.key)
	if err != nil {
		return 0
	}
	return v
}

type String struct {
	base
}

func (s *String) Bind(dc *DConfig, key string) {
	s.bind(dc, key, s.GetValue)
}

func (s *String) SetValue(val interface{}) (changed bool, err *dbus.Error) {
	valString, ok := val.(string)
	if !ok {
		return false, dbusutil.ToError(errors.New("invalid value type"))
	}
	err = checkSet(s.Set(valString))
	return
}

func (s *String) GetValue() (val interface{}, err *dbus.Error) {
	val = s.Get()
	return
}

func (*String) GetType() reflect.Type {
	return reflect.TypeOf("")
}

func (s *String) Get() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.dc.GetValueString(s.key)
	if err != nil {
		return ""
	}
	return v
}

func (s *String) Set(val string) bool {
	if s.Get() != val {
		s.mu.Lock()
		defer s.mu.Unlock()

		err := s.dc.SetValue(s.key, val)
		return err == nil
	}
	return true
}

// SPDX-FileCopyrightText: 2018 - 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package loader

import (
	"sync"

	"github.com/linuxdeepin/go-lib/dbusutil"
	"github.com/linuxdeepin/go-lib/log"
)

var loaderOnce sync.Once
var _loader *Loader

func getLoader() *Loader {
	loaderOnce.Do(func() {
		_loader = newLoader()
	})
	return _loader
}

func newLoader() *Loader {
	return &Loader{
		modules: Modules{},
		log:     log.NewLogger("daemon/loader"),
	}
}

// SetService sets the bus service the modules export on.
func SetService(s *dbusutil.Service) {
	getLoader().service = s
}

func GetService() *dbusutil.Service {
	return getLoader().service
}

func Register(m Module) {
	getLoader().AddModule(m)
}

func SetLogLevel(pri log.Priority) {
	getLoader().SetLogLevel(pri)
}

// StartAll enables every registered module, dependencies first.
func StartAll() error {
	l := getLoader()
	var names []string
	for _, m := range l.List() {
		names = append(names, m.Name())
	}
	return l.EnableModules(names, nil, EnableFlagNone)
}

// StopAll disables the enabled modules, dependents before what they depend on.
func StopAll() {
	l := getLoader()
	for _, m := range l.stopOrder() {
		if !m.IsEnable() {
			continue
		}
		err := m.Enable(false)
		if err != nil {
			l.log.Warningf("stop %s: %v", m.Name(), err)
		}
	}
}

func (l *Loader) stopOrder() []Module {
	modules := l.List()
	g := newDAG()
	byName := make(map[string]Module, len(modules))
	for _, m := range modules {
		byName[m.Name()] = m
		g.addNode(m.Name())
	}
	for _, m := range modules {
		for _, dep := range m.GetDependencies() {
			if _, ok := byName[dep]; ok {
				g.addEdge(dep, m.Name())
			}
		}
	}
	order, ok := g.topologicalOrder()
	if !ok {
		return modules
	}
	result := make([]Module, 0, len(order))
	for i := len(order) - 1; i >= 0; i-- {
		result = append(result, byName[order[i]])
	}
	return result
}

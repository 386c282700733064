// SPDX-FileCopyrightText: 2018 - 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package loader

import (
	"sort"

	"github.com/linuxdeepin/go-lib/log"
)

// dag holds modules as nodes and an edge from every dependency to the
// module needing it.
type dag struct {
	nodes    []string
	known    map[string]struct{}
	edges    map[string][]string
	inDegree map[string]int
}

func newDAG() *dag {
	return &dag{
		known:    make(map[string]struct{}),
		edges:    make(map[string][]string),
		inDegree: make(map[string]int),
	}
}

// addNode returns false if id is already in the graph.
func (g *dag) addNode(id string) bool {
	if _, ok := g.known[id]; ok {
		return false
	}
	g.known[id] = struct{}{}
	g.nodes = append(g.nodes, id)
	return true
}

func (g *dag) addEdge(from, to string) {
	for _, id := range g.edges[from] {
		if id == to {
			return
		}
	}
	g.edges[from] = append(g.edges[from], to)
	g.inDegree[to]++
}

// topologicalOrder lists dependencies before their dependents. ok is false
// when the graph has a cycle.
func (g *dag) topologicalOrder() (order []string, ok bool) {
	inDegree := make(map[string]int, len(g.nodes))
	var ready []string
	for _, id := range g.nodes {
		inDegree[id] = g.inDegree[id]
		if inDegree[id] == 0 {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)

	for len(ready) != 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		var next []string
		for _, to := range g.edges[id] {
			inDegree[to]--
			if inDegree[to] == 0 {
				next = append(next, to)
			}
		}
		sort.Strings(next)
		ready = append(ready, next...)
	}
	return order, len(order) == len(g.nodes)
}

type DAGBuilder struct {
	modules         Modules
	enablingModules []string
	disableModules  map[string]struct{}
	flag            EnableFlag

	log *log.Logger

	dag *dag
}

func NewDAGBuilder(loader *Loader, enablingModules []string, disableModules []string, flag EnableFlag) *DAGBuilder {
	disableModulesMap := map[string]struct{}{}
	for _, name := range disableModules {
		if _, ok := loader.modules[name]; !ok {
			loader.log.Warningf("disabled module(%s) is no existed", name)
			continue
		}
		disableModulesMap[name] = struct{}{}
	}

	return &DAGBuilder{
		modules:         loader.modules,
		enablingModules: enablingModules,
		disableModules:  disableModulesMap,
		flag:            flag,
		log:             loader.log,
		dag:             newDAG(),
	}
}

func (builder *DAGBuilder) buildDAG() error {
	queue := make([]string, 0, len(builder.enablingModules))
	for _, name := range builder.enablingModules {
		if builder.dag.addNode(name) {
			queue = append(queue, name)
		}
	}
	for len(queue) != 0 {
		name := queue[0]
		queue = queue[1:]
		module, ok := builder.modules[name]
		if !ok {
			if !builder.flag.HasFlag(EnableFlagIgnoreMissingModule) {
				return &EnableError{ModuleName: name, Code: ErrorMissingModule}
			}
			builder.log.Info("no such a module named", name)
			continue
		}
		if _, ok := builder.disableModules[name]; ok {
			if !builder.flag.HasFlag(EnableFlagForceStart) {
				return &EnableError{ModuleName: name, Code: ErrorConflict}
			}
		}
		for _, dependency := range module.GetDependencies() {
			if builder.dag.addNode(dependency) {
				queue = append(queue, dependency)
			}
			builder.dag.addEdge(dependency, name)
		}
	}
	return nil
}

func (builder *DAGBuilder) Execute() (*dag, error) {
	err := builder.buildDAG()
	if err != nil {
		return nil, err
	}

	return builder.dag, nil
}

// SPDX-FileCopyrightText: 2018 - 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package ofono

import (
	"sync"
)

// Loop runs posted functions one at a time on a single goroutine. The object
// model is only touched from inside the loop.
type Loop struct {
	events chan func()
	quit   chan struct{}
	done   chan struct{}

	mu      sync.Mutex
	started bool
	stopped bool
}

func NewLoop(bufSize int) *Loop {
	return &Loop{
		events: make(chan func(), bufSize),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (l *Loop) Start() {
	l.mu.Lock()
	if l.started {
		l.mu.Unlock()
		return
	}
	l.started = true
	l.mu.Unlock()

	go func() {
		defer close(l.done)
		for {
			select {
			case fn := <-l.events:
				fn()
			case <-l.quit:
				return
			}
		}
	}()
}

// Stop ends the loop. Events still queued are discarded.
func (l *Loop) Stop() {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.stopped = true
	started := l.started
	l.mu.Unlock()

	close(l.quit)
	if started {
		<-l.done
	}
}

// Post queues fn. It returns false if the loop is stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.quit:
		return false
	default:
	}
	select {
	case l.events <- fn:
		return true
	case <-l.quit:
		return false
	}
}

// Call runs fn in the loop and waits for it. It returns false if the loop
// was never started or is stopped, and must not be used from inside the loop.
func (l *Loop) Call(fn func()) bool {
	l.mu.Lock()
	started := l.started
	l.mu.Unlock()
	if !started {
		return false
	}
	ch := make(chan struct{})
	ok := l.Post(func() {
		fn()
		close(ch)
	})
	if !ok {
		return false
	}
	select {
	case <-ch:
		return true
	case <-l.done:
		return false
	}
}

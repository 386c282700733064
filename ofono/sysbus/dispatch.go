// SPDX-FileCopyrightText: 2018 - 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysbus

import (
	"sort"

	"github.com/godbus/dbus/v5"
	"github.com/linuxdeepin/dde-telephony/ofono"
)

// inboxItem is a signal or a finished call, sequenced by the connection.
type inboxItem struct {
	seq  dbus.Sequence
	sig  *dbus.Signal
	call *dbus.Call
}

// dispatch forwards signals and replies into the loop in connection order.
//
// godbus numbers every incoming message and hands it over before reading the
// next one, so once an item is received every item with a smaller number is
// already buffered. Draining both channels until they are empty together
// therefore collects everything that has to go before the batch.
func (t *Transport) dispatch() {
	defer close(t.exited)
	quit := t.quit
	for {
		var batch []inboxItem
		select {
		case sig := <-t.signals:
			batch = append(batch, inboxItem{seq: sig.Sequence, sig: sig})
		case c := <-t.replies:
			batch = append(batch, inboxItem{seq: c.ResponseSequence, call: c})
		case <-quit:
			quit = nil
		}
		batch = t.drain(batch)
		sort.SliceStable(batch, func(i, j int) bool {
			return batch[i].seq < batch[j].seq
		})
		t.release(batch)

		if quit == nil && t.idle() {
			return
		}
	}
}

func (t *Transport) drain(batch []inboxItem) []inboxItem {
	for {
		n := len(batch)
	signals:
		for {
			select {
			case sig := <-t.signals:
				batch = append(batch, inboxItem{seq: sig.Sequence, sig: sig})
			default:
				break signals
			}
		}
	replies:
		for {
			select {
			case c := <-t.replies:
				batch = append(batch, inboxItem{seq: c.ResponseSequence, call: c})
			default:
				break replies
			}
		}
		if len(batch) == n {
			return batch
		}
	}
}

// idle reports whether no godbus call can still hand over a Done value.
func (t *Transport) idle() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sending == 0 && len(t.calls) == 0
}

func (t *Transport) release(batch []inboxItem) {
	var fns []func()
	t.mu.Lock()
	for _, item := range batch {
		if item.sig != nil {
			fns = t.signalHandlers(item.sig, fns)
			continue
		}
		// the reply can beat SendMethodCall to tracking the call
		pc := t.calls[item.call]
		for pc == nil && t.sending > 0 {
			t.tracked.Wait()
			pc = t.calls[item.call]
		}
		if pc == nil {
			logger.Debug("drop reply of untracked call", item.call.Method)
			continue
		}
		delete(t.calls, item.call)
		if pc.canceled {
			logger.Debug("drop reply of canceled call", pc.label)
			continue
		}
		delete(t.handles, pc.handle)
		reply := &ofono.Reply{Body: item.call.Body, Err: item.call.Err}
		done := pc.done
		fns = append(fns, func() { done(reply) })
	}
	t.mu.Unlock()

	for _, fn := range fns {
		if !t.loop.Post(fn) {
			logger.Debug("drop bus message, loop stopped")
		}
	}
}

func (t *Transport) signalHandlers(sig *dbus.Signal, fns []func()) []func() {
	for _, id := range t.sortedSubs() {
		sub := t.subs[id]
		if ruleMatches(sub.rule, sig) {
			handler := sub.handler
			fns = append(fns, func() { handler(sig) })
		}
	}
	return fns
}

// sortedSubs returns subscription ids oldest first, handlers run in the
// order they subscribed.
func (t *Transport) sortedSubs() []ofono.SubscriptionID {
	ids := make([]ofono.SubscriptionID, 0, len(t.subs))
	for id := range t.subs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// SPDX-FileCopyrightText: 2018 - 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package ofono

// PendingCall is one method call in flight.
type PendingCall struct {
	handle CallHandle
	owner  *busObject
	method string
	cb     func(*Reply)
	done   bool

	// awaiting drops a wait that outlives the reply, see Client.Dial.
	awaiting func()
}

func (p *PendingCall) complete(r *Reply) {
	if p.done {
		logger.Debugf("drop reply of %s on %s, call already finished", p.method, p.owner.path)
		return
	}
	p.done = true
	p.owner.removePending(p)

	if r == nil {
		r = &Reply{}
	}
	if r.Err != nil {
		r = &Reply{Body: r.Body, Err: fromReplyError(r.Err)}
		logger.Debugf("%s on %s failed: %v", p.method, p.owner.path, r.Err)
	}
	p.cb(r)
}

// Cancel abandons the call. The continuation runs with ErrorCanceled before
// Cancel returns; a reply arriving later is dropped. After the reply, Cancel
// still aborts waiting for the announcement of a dialed call or sent message.
func (p *PendingCall) Cancel() {
	if p == nil {
		return
	}
	if p.done {
		if cancel := p.awaiting; cancel != nil {
			p.awaiting = nil
			cancel()
		}
		return
	}
	p.done = true
	p.owner.removePending(p)
	p.owner.client.transport.CancelCall(p.handle)
	p.cb(&Reply{Err: errCanceled})
}

func (p *PendingCall) Done() bool {
	return p.done
}

// SPDX-FileCopyrightText: 2018 - 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package ofono

type CallbackID uint64

type callbackNode[T any] struct {
	id      CallbackID
	fn      T
	removed bool
}

// callbackList keeps listeners in registration order. Listeners may add or
// remove listeners while being invoked: a dispatch walks a snapshot and skips
// nodes removed in the meantime, nodes added during it wait for the next one.
type callbackList[T any] struct {
	nodes []*callbackNode[T]
}

func (l *callbackList[T]) add(id CallbackID, fn T) {
	l.nodes = append(l.nodes, &callbackNode[T]{id: id, fn: fn})
}

func (l *callbackList[T]) remove(id CallbackID) bool {
	for i, n := range l.nodes {
		if n.id == id {
			n.removed = true
			l.nodes = append(l.nodes[:i:i], l.nodes[i+1:]...)
			return true
		}
	}
	return false
}

func (l *callbackList[T]) each(fn func(T)) {
	snapshot := l.nodes
	for _, n := range snapshot {
		if n.removed {
			continue
		}
		fn(n.fn)
	}
}

type (
	ModemCallback            func()
	CallCallback             func(call *Call)
	CallDisconnectedCallback func(call *Call, reason string)
	IncomingMessageCallback  func(msg *IncomingMessage)
	SentMessageCallback      func(err error, sms *SentMessage)
	USSDNotifyCallback       func(message string, needsReply bool)
)

type callbacks struct {
	nextID CallbackID

	modemChanged      callbackList[ModemCallback]
	modemConnected    callbackList[ModemCallback]
	modemDisconnected callbackList[ModemCallback]
	callAdded         callbackList[CallCallback]
	callRemoved       callbackList[CallCallback]
	callChanged       callbackList[CallCallback]
	callDisconnected  callbackList[CallDisconnectedCallback]
	incomingMessage   callbackList[IncomingMessageCallback]
	sentMessage       callbackList[SentMessageCallback]
	ussdNotify        callbackList[USSDNotifyCallback]
}

func (cbs *callbacks) genID() CallbackID {
	cbs.nextID++
	return cbs.nextID
}

func (c *Client) AddModemChangedCb(fn ModemCallback) CallbackID {
	id := c.cbs.genID()
	c.cbs.modemChanged.add(id, fn)
	return id
}

func (c *Client) RemoveModemChangedCb(id CallbackID) {
	c.cbs.modemChanged.remove(id)
}

func (c *Client) AddModemConnectedCb(fn ModemCallback) CallbackID {
	id := c.cbs.genID()
	c.cbs.modemConnected.add(id, fn)
	return id
}

func (c *Client) RemoveModemConnectedCb(id CallbackID) {
	c.cbs.modemConnected.remove(id)
}

func (c *Client) AddModemDisconnectedCb(fn ModemCallback) CallbackID {
	id := c.cbs.genID()
	c.cbs.modemDisconnected.add(id, fn)
	return id
}

func (c *Client) RemoveModemDisconnectedCb(id CallbackID) {
	c.cbs.modemDisconnected.remove(id)
}

func (c *Client) AddCallAddedCb(fn CallCallback) CallbackID {
	id := c.cbs.genID()
	c.cbs.callAdded.add(id, fn)
	return id
}

func (c *Client) RemoveCallAddedCb(id CallbackID) {
	c.cbs.callAdded.remove(id)
}

func (c *Client) AddCallRemovedCb(fn CallCallback) CallbackID {
	id := c.cbs.genID()
	c.cbs.callRemoved.add(id, fn)
	return id
}

func (c *Client) RemoveCallRemovedCb(id CallbackID) {
	c.cbs.callRemoved.remove(id)
}

func (c *Client) AddCallChangedCb(fn CallCallback) CallbackID {
	id := c.cbs.genID()
	c.cbs.callChanged.add(id, fn)
	return id
}

func (c *Client) RemoveCallChangedCb(id CallbackID) {
	c.cbs.callChanged.remove(id)
}

func (c *Client) AddCallDisconnectedCb(fn CallDisconnectedCallback) CallbackID {
	id := c.cbs.genID()
	c.cbs.callDisconnected.add(id, fn)
	return id
}

func (c *Client) RemoveCallDisconnectedCb(id CallbackID) {
	c.cbs.callDisconnected.remove(id)
}

func (c *Client) AddIncomingMessageCb(fn IncomingMessageCallback) CallbackID {
	id := c.cbs.genID()
	c.cbs.incomingMessage.add(id, fn)
	return id
}

func (c *Client) RemoveIncomingMessageCb(id CallbackID) {
	c.cbs.incomingMessage.remove(id)
}

func (c *Client) AddSentMessageChangedCb(fn SentMessageCallback) CallbackID {
	id := c.cbs.genID()
	c.cbs.sentMessage.add(id, fn)
	return id
}

func (c *Client) RemoveSentMessageChangedCb(id CallbackID) {
	c.cbs.sentMessage.remove(id)
}

func (c *Client) AddUSSDNotifyCb(fn USSDNotifyCallback) CallbackID {
	id := c.cbs.genID()
	c.cbs.ussdNotify.add(id, fn)
	return id
}

func (c *Client) RemoveUSSDNotifyCb(id CallbackID) {
	c.cbs.ussdNotify.remove(id)
}

func (c *Client) notifyModemChanged() {
	c.cbs.modemChanged.each(func(fn ModemCallback) { fn() })
}

func (c *Client) notifyCallAdded(call *Call) {
	c.cbs.callAdded.each(func(fn CallCallback) { fn(call) })
}

func (c *Client) notifyCallRemoved(call *Call) {
	c.cbs.callRemoved.each(func(fn CallCallback) { fn(call) })
}

func (c *Client) notifyCallChanged(call *Call) {
	c.cbs.callChanged.each(func(fn CallCallback) { fn(call) })
}

func (c *Client) notifySentMessageChanged(err error, sms *SentMessage) {
	c.cbs.sentMessage.each(func(fn SentMessageCallback) { fn(err, sms) })
}

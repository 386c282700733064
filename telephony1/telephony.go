// SPDX-FileCopyrightText: 2018 - 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package telephony

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/linuxdeepin/dde-telephony/ofono"
	"github.com/linuxdeepin/go-lib/dbusutil"
	"golang.org/x/xerrors"
)

const (
	dbusServiceName = "org.deepin.dde.Telephony1"
	dbusPath        = "/org/deepin/dde/Telephony1"
	dbusInterface   = dbusServiceName
	dbusErrorPrefix = dbusInterface + ".Error."
)

//go:generate dbusutil-gen em -type Telephony

// Telephony publishes the ofono object model on the system bus. Every
// access to client happens inside loop.
type Telephony struct {
	service *dbusutil.Service
	loop    *ofono.Loop
	client  *ofono.Client

	cfgMu sync.Mutex
	cfg   Config

	// emit sends a signal, service.Emit when exported
	emit func(name string, args ...interface{}) error

	// nolint
	signals *struct {
		ModemConnected    struct{}
		ModemDisconnected struct{}
		ModemChanged      struct {
			modemJSON string
		}

		CallAdded, CallChanged struct {
			callJSON string
		}
		CallRemoved struct {
			call dbus.ObjectPath
		}
		CallDisconnected struct {
			call   dbus.ObjectPath
			reason string
		}

		IncomingMessage struct {
			sender        string
			message       string
			localSentTime int64
		}
		SentMessageChanged struct {
			message dbus.ObjectPath
			state   string
		}

		UssdNotify struct {
			message    string
			needsReply bool
		}
	}
}

func newTelephony(service *dbusutil.Service, loop *ofono.Loop, transport ofono.Transport, cfg Config) *Telephony {
	t := &Telephony{
		service: service,
		loop:    loop,
		client:  ofono.NewClient(transport),
		cfg:     cfg,
	}
	t.emit = func(name string, args ...interface{}) error {
		if t.service == nil {
			return nil
		}
		return t.service.Emit(t, name, args...)
	}
	return t
}

func (*Telephony) GetInterfaceName() string {
	return dbusInterface
}

// start connects the callbacks and begins following oFono. It must run
// inside the loop.
func (t *Telephony) start() {
	c := t.client
	t.applyConfigInLoop(t.config())

	c.AddModemConnectedCb(func() {
		t.emitSignal("ModemConnected")
	})
	c.AddModemDisconnectedCb(func() {
		t.emitSignal("ModemDisconnected")
	})
	c.AddModemChangedCb(func() {
		t.emitSignal("ModemChanged", marshalJSON(t.newModemInfo(c.SelectedModem())))
	})
	c.AddCallAddedCb(func(call *ofono.Call) {
		t.emitSignal("CallAdded", marshalJSON(newCallInfo(call)))
	})
	c.AddCallChangedCb(func(call *ofono.Call) {
		t.emitSignal("CallChanged", marshalJSON(newCallInfo(call)))
	})
	c.AddCallRemovedCb(func(call *ofono.Call) {
		t.emitSignal("CallRemoved", call.Path())
	})
	c.AddCallDisconnectedCb(func(call *ofono.Call, reason string) {
		t.emitSignal("CallDisconnected", call.Path(), reason)
	})
	c.AddIncomingMessageCb(func(msg *ofono.IncomingMessage) {
		t.emitSignal("IncomingMessage", msg.Sender, msg.Message, msg.LocalSentTime.Unix())
	})
	c.AddSentMessageChangedCb(func(err error, sms *ofono.SentMessage) {
		if sms == nil {
			return
		}
		t.emitSignal("SentMessageChanged", sms.Path(), sms.State().String())
	})
	c.AddUSSDNotifyCb(func(message string, needsReply bool) {
		t.emitSignal("UssdNotify", message, needsReply)
	})

	c.Start()
}

// stop must run inside the loop.
func (t *Telephony) stop() {
	t.client.Stop()
}

func (t *Telephony) emitSignal(name string, args ...interface{}) {
	err := t.emit(name, args...)
	if err != nil {
		logger.Warningf("emit %s: %v", name, err)
	}
}

func (t *Telephony) config() Config {
	t.cfgMu.Lock()
	defer t.cfgMu.Unlock()
	return t.cfg
}

// applyConfig takes a new config from any goroutine.
func (t *Telephony) applyConfig(cfg Config) {
	t.loop.Post(func() {
		t.applyConfigInLoop(cfg)
	})
}

func (t *Telephony) applyConfigInLoop(cfg Config) {
	t.cfgMu.Lock()
	t.cfg = cfg
	t.cfgMu.Unlock()

	c := t.client
	err := c.ModemAPIRequire(cfg.ModemAPI)
	if err != nil {
		logger.Warning(err)
	}
	err = c.ModemTypeRequire(cfg.ModemType)
	if err != nil {
		logger.Warning(err)
	}
	c.SetModemPathWanted(dbus.ObjectPath(cfg.ModemPath))
	c.SetAutoPower(cfg.AutoPower)
}

func (t *Telephony) callTimeout() time.Duration {
	timeout := t.config().CallTimeout
	if timeout <= 0 {
		return defaultCallTimeout
	}
	return timeout
}

var errStopped = &ofono.Error{Kind: ofono.ErrorFailed, Message: "telephony service is stopping"}

// await starts an operation inside the loop and waits for its result. An
// operation still running after the call timeout is canceled.
func (t *Telephony) await(method string, start func(done func(error)) *ofono.PendingCall) error {
	ch := make(chan error, 1)
	done := func(err error) {
		select {
		case ch <- err:
		default:
		}
	}

	var pending *ofono.PendingCall
	if !t.loop.Call(func() { pending = start(done) }) {
		return errStopped
	}

	timer := time.NewTimer(t.callTimeout())
	defer timer.Stop()
	select {
	case err := <-ch:
		return err
	case <-timer.C:
		t.loop.Post(func() { pending.Cancel() })
		logger.Warningf("%s did not finish in %v", method, t.callTimeout())
		return &ofono.Error{Kind: ofono.ErrorTimedout, Message: method}
	}
}

// query runs fn inside the loop and waits for it.
func (t *Telephony) query(fn func()) error {
	if !t.loop.Call(fn) {
		return errStopped
	}
	return nil
}

// toBusError names errors after their kind so callers can tell them apart.
func toBusError(err error) *dbus.Error {
	if err == nil {
		return nil
	}
	var e *ofono.Error
	if xerrors.As(err, &e) {
		return dbus.NewError(dbusErrorPrefix+e.Kind.BusName(), []interface{}{e.Error()})
	}
	return dbusutil.ToError(err)
}

type modemInfo struct {
	Path       dbus.ObjectPath
	Name       string
	Serial     string
	Type       string
	Interfaces []string
	Powered    bool
	Online     bool
	Ignored    bool
	Selected   bool

	Muted            bool
	SpeakerVolume    uint8
	MicrophoneVolume uint8

	VoicemailWaiting bool
	VoicemailCount   uint8
	VoicemailNumber  string

	USSDState string

	ServiceCenterAddress string
	UseDeliveryReports   bool
	Bearer               string
	Alphabet             string
}

// newModemInfo must run inside the loop. The volume, voicemail, USSD and
// message fields describe the selected modem.
func (t *Telephony) newModemInfo(m *ofono.Modem) *modemInfo {
	if m == nil {
		return nil
	}
	c := t.client
	info := &modemInfo{
		Path:       m.Path(),
		Name:       m.Name(),
		Serial:     m.Serial(),
		Type:       m.Type(),
		Interfaces: m.Interfaces().Strings(),
		Powered:    m.Powered(),
		Online:     m.Online(),
		Ignored:    m.Ignored(),
	}
	if c.SelectedModem() != m {
		return info
	}
	info.Selected = true
	info.Muted = c.Muted()
	info.SpeakerVolume = c.SpeakerVolume()
	info.MicrophoneVolume = c.MicrophoneVolume()
	info.VoicemailWaiting = c.VoicemailWaiting()
	info.VoicemailCount = c.VoicemailCount()
	info.VoicemailNumber = c.VoicemailNumber()
	info.USSDState = c.USSDState().String()
	info.ServiceCenterAddress = c.ServiceCenterAddress()
	info.UseDeliveryReports = c.UseDeliveryReports()
	info.Bearer = c.MessageBearer()
	info.Alphabet = c.MessageAlphabet()
	return info
}

type callInfo struct {
	Path         dbus.ObjectPath
	Modem        dbus.ObjectPath
	LineID       string
	IncomingLine string
	Name         string
	State        string
	Priority     int
	Multiparty   bool
	Emergency    bool
	// StartTime is a unix time, 0 until the call is connected
	StartTime int64
}

func newCallInfo(call *ofono.Call) *callInfo {
	info := &callInfo{
		Path:         call.Path(),
		Modem:        call.Modem().Path(),
		LineID:       call.LineID(),
		IncomingLine: call.IncomingLine(),
		Name:         call.Name(),
		State:        call.State().String(),
		Priority:     call.State().Priority(),
		Multiparty:   call.Multiparty(),
		Emergency:    call.Emergency(),
	}
	if start := call.FullStartTime(); !start.IsZero() {
		info.StartTime = start.Unix()
	}
	return info
}

func marshalJSON(v interface{}) (strJSON string) {
	byteJSON, err := json.Marshal(v)
	if err != nil {
		logger.Error(err)
		return
	}
	strJSON = string(byteJSON)
	return
}

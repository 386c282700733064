// SPDX-FileCopyrightText: 2018 - 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package ofono

import (
	"strings"

	"github.com/godbus/dbus/v5"
)

// ChangePin changes the SIM PIN of type what, "pin" or "pin2" for example.
func (c *Client) ChangePin(what, oldPin, newPin string, cb ErrorCallback) *PendingCall {
	m, err := c.requireModem(APISimManager)
	if err != nil {
		return fail(cb, err)
	}
	return m.send(ifaceSimManager, "ChangePin", errorReply(cb), what, oldPin, newPin)
}

// ResetPin unlocks the SIM PIN of type what with puk.
func (c *Client) ResetPin(what, puk, newPin string, cb ErrorCallback) *PendingCall {
	m, err := c.requireModem(APISimManager)
	if err != nil {
		return fail(cb, err)
	}
	return m.send(ifaceSimManager, "ResetPin", errorReply(cb), what, puk, newPin)
}

func (c *Client) setCallVolumeProperty(name string, value interface{}, cb ErrorCallback) *PendingCall {
	m, err := c.requireModem(APICallVolume)
	if err != nil {
		return fail(cb, err)
	}
	return m.send(ifaceCallVolume, "SetProperty", errorReply(cb), name, dbus.MakeVariant(value))
}

func (c *Client) SetMuted(muted bool, cb ErrorCallback) *PendingCall {
	return c.setCallVolumeProperty("Muted", muted, cb)
}

func (c *Client) SetSpeakerVolume(volume uint8, cb ErrorCallback) *PendingCall {
	return c.setCallVolumeProperty("SpeakerVolume", volume, cb)
}

func (c *Client) SetMicrophoneVolume(volume uint8, cb ErrorCallback) *PendingCall {
	return c.setCallVolumeProperty("MicrophoneVolume", volume, cb)
}

// powerTarget is the modem SetPowered acts on: the selected modem, else the
// wanted one, else the first hands-free one.
func (c *Client) powerTarget() *Modem {
	if m := c.SelectedModem(); m != nil {
		return m
	}
	var hfp *Modem
	for _, m := range c.Modems() {
		if m.ignored {
			continue
		}
		if c.pathWanted != "" && m.path == c.pathWanted {
			return m
		}
		if hfp == nil && strings.HasPrefix(string(m.path), "/hfp") {
			hfp = m
		}
	}
	return hfp
}

func (c *Client) SetPowered(powered bool, cb ErrorCallback) *PendingCall {
	m := c.powerTarget()
	if m == nil {
		return fail(cb, newError(ErrorOffline, "no modem"))
	}
	logger.Infof("set modem %s powered %v", m.path, powered)
	return m.send(ifaceModem, "SetProperty", errorReply(cb), "Powered", dbus.MakeVariant(powered))
}

func (c *Client) Powered() bool {
	m := c.SelectedModem()
	return m != nil && m.powered
}

func (c *Client) ModemSerial() string {
	m := c.SelectedModem()
	if m == nil {
		return ""
	}
	return m.serial
}

func (c *Client) ModemInterfaces() API {
	m := c.SelectedModem()
	if m == nil {
		return 0
	}
	return m.interfaces
}

func (c *Client) Muted() bool {
	m := c.SelectedModem()
	return m != nil && m.muted
}

func (c *Client) SpeakerVolume() uint8 {
	m := c.SelectedModem()
	if m == nil {
		return 0
	}
	return m.speakerVolume
}

func (c *Client) MicrophoneVolume() uint8 {
	m := c.SelectedModem()
	if m == nil {
		return 0
	}
	return m.micVolume
}

func (c *Client) VoicemailWaiting() bool {
	m := c.SelectedModem()
	return m != nil && m.voicemailWaiting
}

func (c *Client) VoicemailCount() uint8 {
	m := c.SelectedModem()
	if m == nil {
		return 0
	}
	return m.voicemailCount
}

func (c *Client) VoicemailNumber() string {
	m := c.SelectedModem()
	if m == nil {
		return ""
	}
	return m.voicemailNumber
}

func (c *Client) USSDState() USSDState {
	m := c.SelectedModem()
	if m == nil {
		return USSDStateIdle
	}
	return m.ussdState
}

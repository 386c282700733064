// SPDX-FileCopyrightText: 2018 - 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package ofono

import (
	"github.com/godbus/dbus/v5"
	"golang.org/x/xerrors"
	C "gopkg.in/check.v1"
)

func (s *mySuite) TestConvertUSSD(c *C.C) {
	text, err := ConvertSSReply("USSD", dbus.MakeVariant("Balance: 10.00"))
	c.Assert(err, C.IsNil)
	c.Check(text, C.Equals, "Balance: 10.00")

	_, err = ConvertSSReply("USSD", dbus.MakeVariant(uint32(1)))
	c.Check(err, C.NotNil)
}

func (s *mySuite) TestConvertCallBarring(c *C.C) {
	payload := dbus.MakeVariant([]interface{}{
		"interrogation",
		"all",
		map[string]dbus.Variant{
			"VoiceOutgoing": dbus.MakeVariant("disabled"),
			"VoiceIncoming": dbus.MakeVariant("enabled"),
		},
	})
	text, err := ConvertSSReply("CallBarring", payload)
	c.Assert(err, C.IsNil)
	c.Check(text, C.Equals, "<b>CallBarring interrogation=all</b><br><br>"+
		"&nbsp;&nbsp;&nbsp;VoiceIncoming=enabled<br>"+
		"&nbsp;&nbsp;&nbsp;VoiceOutgoing=disabled<br>")
}

func (s *mySuite) TestConvertCallForwarding(c *C.C) {
	payload := dbus.MakeVariant([]interface{}{
		"activation",
		"unconditional",
		map[string]dbus.Variant{
			"VoiceUnconditional": dbus.MakeVariant("+4912345"),
		},
	})
	text, err := ConvertSSReply("CallForwarding", payload)
	c.Assert(err, C.IsNil)
	c.Check(text, C.Equals, "<b>CallForwarding activation=unconditional</b><br><br>"+
		"&nbsp;&nbsp;&nbsp;VoiceUnconditional=+4912345<br>")
}

func (s *mySuite) TestConvertCallWaiting(c *C.C) {
	payload := dbus.MakeVariant([]interface{}{
		"interrogation",
		map[string]dbus.Variant{
			"VoiceCallWaiting": dbus.MakeVariant("enabled"),
		},
	})
	text, err := ConvertSSReply("CallWaiting", payload)
	c.Assert(err, C.IsNil)
	c.Check(text, C.Equals, "<b>CallWaiting interrogation</b><br><br>"+
		"&nbsp;&nbsp;&nbsp;VoiceCallWaiting=enabled<br>")
}

func (s *mySuite) TestConvertPresentation(c *C.C) {
	for _, typeTag := range []string{
		"CallingLinePresentation",
		"ConnectedLinePresentation",
		"CallingLineRestriction",
		"ConnectedLineRestriction",
	} {
		payload := dbus.MakeVariant([]interface{}{"interrogation", "enabled"})
		text, err := ConvertSSReply(typeTag, payload)
		c.Assert(err, C.IsNil)
		c.Check(text, C.Equals, "<b>"+typeTag+":</b><br><br>interrogation=enabled")
	}
}

func (s *mySuite) TestConvertMalformed(c *C.C) {
	_, err := ConvertSSReply("CallWaiting", dbus.MakeVariant([]interface{}{"interrogation"}))
	c.Check(err, C.NotNil)

	_, err = ConvertSSReply("CallBarring", dbus.MakeVariant([]interface{}{"a", "b", "not a dict"}))
	c.Check(err, C.NotNil)

	_, err = ConvertSSReply("CallingLinePresentation", dbus.MakeVariant([]interface{}{"a", uint16(1)}))
	c.Check(err, C.NotNil)
}

func (s *mySuite) TestConvertUnknownType(c *C.C) {
	_, err := ConvertSSReply("CallMeter", dbus.MakeVariant("x"))
	c.Assert(err, C.NotNil)
	c.Check(xerrors.Is(err, ErrUnknownSSType), C.Equals, true)
}

func (s *mySuite) TestUSSDState(c *C.C) {
	state, ok := parseUSSDState("user-response")
	c.Check(ok, C.Equals, true)
	c.Check(state, C.Equals, USSDStateUserResponse)
	c.Check(state.String(), C.Equals, "user-response")

	_, ok = parseUSSDState("busy")
	c.Check(ok, C.Equals, false)
}

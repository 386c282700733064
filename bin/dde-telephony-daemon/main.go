// SPDX-FileCopyrightText: 2018 - 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/linuxdeepin/dde-telephony/loader"
	"github.com/linuxdeepin/dde-telephony/ofono"
	"github.com/linuxdeepin/dde-telephony/ofono/sysbus"
	telephony "github.com/linuxdeepin/dde-telephony/telephony1"
	"github.com/linuxdeepin/go-lib/dbusutil"
	. "github.com/linuxdeepin/go-lib/gettext"
	"github.com/linuxdeepin/go-lib/log"
)

const dbusServiceName = "org.deepin.dde.Telephony1"

var logger = log.NewLogger("daemon/dde-telephony-daemon")

var _options struct {
	verbose   bool
	logLevel  string
	listAPI   bool
	listTypes bool
	modem     string
	api       string
	modemType string
}

func toLogLevel(name string) (log.Priority, error) {
	name = strings.ToLower(name)
	logLevel := log.LevelInfo
	var err error
	switch name {
	case "":
		logLevel = log.LevelInfo
	case "error":
		logLevel = log.LevelError
	case "warn":
		logLevel = log.LevelWarning
	case "info":
		logLevel = log.LevelInfo
	case "debug":
		logLevel = log.LevelDebug
	case "no":
		logLevel = log.LevelDisable
	default:
		err = fmt.Errorf("%s is not support", name)
	}

	return logLevel, err
}

func init() {
	// -v | -verbose
	const verboseUsage = "Show much more message, shorthand for --loglevel debug."
	flag.BoolVar(&_options.verbose, "v", false, verboseUsage)
	flag.BoolVar(&_options.verbose, "verbose", false, verboseUsage)

	// -l | -loglevel
	const logLevelUsage = "Set log level, possible value is error/warn/info/debug/no, info is default"
	flag.StringVar(&_options.logLevel, "l", "", logLevelUsage)
	flag.StringVar(&_options.logLevel, "loglevel", "", logLevelUsage)

	flag.BoolVar(&_options.listAPI, "list-api", false, "List the modem interfaces that can be required.")
	flag.BoolVar(&_options.listTypes, "list-types", false, "List the known modem types.")

	flag.StringVar(&_options.modem, "modem", "", "Object path of the modem to use.")
	flag.StringVar(&_options.api, "api", "",
		"Comma separated modem interfaces to require, VoiceCallManager is default.")
	flag.StringVar(&_options.modemType, "type", "",
		"Comma separated modem types to use, hfp,sap,hardware is default.")
}

func printList(title string, items []string) {
	fmt.Println(title)
	for _, item := range items {
		fmt.Println("  " + item)
	}
}

func main() {
	flag.Parse()
	InitI18n()
	BindTextdomainCodeset("dde-telephony", "UTF-8")
	Textdomain("dde-telephony")

	if _options.listAPI || _options.listTypes {
		if _options.listAPI {
			printList(Tr("Modem interfaces:"), ofono.ModemAPIList())
		}
		if _options.listTypes {
			printList(Tr("Modem types:"), ofono.ModemTypeList())
		}
		os.Exit(0)
	}

	if _options.verbose {
		_options.logLevel = "debug"
	}
	logLevel, err := toLogLevel(_options.logLevel)
	if err != nil {
		logger.Warning("failed to parse loglevel:", err)
		os.Exit(1)
	}
	logger.SetLogLevel(logLevel)
	loader.SetLogLevel(logLevel)
	ofono.SetLogLevel(logLevel)
	sysbus.SetLogLevel(logLevel)

	service, err := dbusutil.NewSystemService()
	if err != nil {
		logger.Fatal("failed to new system service", err)
	}

	hasOwner, err := service.NameHasOwner(dbusServiceName)
	if err != nil {
		logger.Fatal("failed to call NameHasOwner:", err)
	}
	if hasOwner {
		logger.Warningf("name %q already has the owner", dbusServiceName)
		os.Exit(1)
	}

	telephony.SetOverrides(telephony.Overrides{
		ModemAPI:  _options.api,
		ModemType: _options.modemType,
		ModemPath: _options.modem,
	})

	loader.SetService(service)
	err = loader.StartAll()
	if err != nil {
		logger.Warning("failed to start modules:", err)
		os.Exit(1)
	}
	defer loader.StopAll()

	service.Wait()
}

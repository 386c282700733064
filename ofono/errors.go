// SPDX-FileCopyrightText: 2018 - 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package ofono

import (
	"context"
	"strings"

	"github.com/godbus/dbus/v5"
	. "github.com/linuxdeepin/go-lib/gettext"
	"golang.org/x/xerrors"
)

type ErrorKind int

const (
	ErrorNone ErrorKind = iota
	ErrorFailed
	ErrorDoesNotExist
	ErrorInProgress
	ErrorInUse
	ErrorInvalidArgs
	ErrorInvalidFormat
	ErrorAccessDenied
	ErrorAttachInProgress
	ErrorIncorrectPassword
	ErrorNotActive
	ErrorNotAllowed
	ErrorNotAttached
	ErrorNotAvailable
	ErrorNotFound
	ErrorNotImplemented
	ErrorNotRecognized
	ErrorNotRegistered
	ErrorNotSupported
	ErrorSimNotReady
	ErrorSimToolkit
	ErrorTimedout
	ErrorOffline
	ErrorCanceled
)

const (
	errorPrefix        = "org.ofono.Error."
	errorUnknownMethod = "org.freedesktop.DBus.Error.UnknownMethod"
)

var errorNames = map[string]ErrorKind{
	"Failed":            ErrorFailed,
	"DoesNotExist":      ErrorDoesNotExist,
	"InProgress":        ErrorInProgress,
	"InUse":             ErrorInUse,
	"InvalidArguments":  ErrorInvalidArgs,
	"InvalidFormat":     ErrorInvalidFormat,
	"AccessDenied":      ErrorAccessDenied,
	"AttachInProgress":  ErrorAttachInProgress,
	"IncorrectPassword": ErrorIncorrectPassword,
	"NotActive":         ErrorNotActive,
	"NotAllowed":        ErrorNotAllowed,
	"NotAttached":       ErrorNotAttached,
	"NotAvailable":      ErrorNotAvailable,
	"NotFound":          ErrorNotFound,
	"NotImplemented":    ErrorNotImplemented,
	"NotRecognized":     ErrorNotRecognized,
	"NotRegistered":     ErrorNotRegistered,
	"NotSupported":      ErrorNotSupported,
	"SimNotReady":       ErrorSimNotReady,
	"SimToolkitFailed":  ErrorSimToolkit,
	"SimToolkit":        ErrorSimToolkit,
	"Timedout":          ErrorTimedout,
}

// ParseError maps a D-Bus error name to an ErrorKind. It never fails:
// anything it does not know is ErrorFailed.
func ParseError(name string) ErrorKind {
	if name == errorUnknownMethod {
		// the interface is gone, usually because the modem went offline
		return ErrorOffline
	}
	if !strings.HasPrefix(name, errorPrefix) {
		return ErrorFailed
	}
	kind, ok := errorNames[name[len(errorPrefix):]]
	if !ok {
		return ErrorFailed
	}
	return kind
}

func (k ErrorKind) String() string {
	switch k {
	case ErrorNone:
		return Tr("No error")
	case ErrorFailed:
		return Tr("Failed")
	case ErrorDoesNotExist:
		return Tr("Does not exist")
	case ErrorInProgress:
		return Tr("Operation in progress")
	case ErrorInUse:
		return Tr("Already in use")
	case ErrorInvalidArgs:
		return Tr("Invalid arguments")
	case ErrorInvalidFormat:
		return Tr("Invalid format")
	case ErrorAccessDenied:
		return Tr("Access Denied")
	case ErrorAttachInProgress:
		return Tr("Attach is already in progress")
	case ErrorIncorrectPassword:
		return Tr("Incorrect password")
	case ErrorNotActive:
		return Tr("Not active")
	case ErrorNotAllowed:
		return Tr("Not allowed")
	case ErrorNotAttached:
		return Tr("Not attached")
	case ErrorNotAvailable:
		return Tr("Not available")
	case ErrorNotFound:
		return Tr("Not found")
	case ErrorNotImplemented:
		return Tr("Not implemented")
	case ErrorNotRecognized:
		return Tr("Not recognized")
	case ErrorNotRegistered:
		return Tr("Not registered")
	case ErrorNotSupported:
		return Tr("Not supported")
	case ErrorSimNotReady:
		return Tr("SIM not ready")
	case ErrorSimToolkit:
		return Tr("SIM Toolkit Failed")
	case ErrorTimedout:
		return Tr("Timed out")
	case ErrorOffline:
		return Tr("Offline")
	case ErrorCanceled:
		return Tr("Canceled")
	}
	return Tr("Unknown error")
}

// BusName is the error name suffix oFono uses for k. Local kinds get a
// name of their own.
func (k ErrorKind) BusName() string {
	switch k {
	case ErrorNone:
		return ""
	case ErrorSimToolkit:
		return "SimToolkitFailed"
	case ErrorOffline:
		return "Offline"
	case ErrorCanceled:
		return "Canceled"
	}
	for name, kind := range errorNames {
		if kind == k {
			return name
		}
	}
	return "Failed"
}

// Error is the value handed to continuations when an operation did not succeed.
type Error struct {
	Kind ErrorKind
	// Name is the remote error name, empty for local failures.
	Name    string
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Kind.String() + ": " + e.Message
	}
	return e.Kind.String()
}

func newError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

var errCanceled = newError(ErrorCanceled, "")

// fromReplyError converts a transport error into an *Error.
func fromReplyError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if xerrors.As(err, &e) {
		return e
	}
	var dbusErr dbus.Error
	if xerrors.As(err, &dbusErr) {
		e = &Error{Kind: ParseError(dbusErr.Name), Name: dbusErr.Name}
		if len(dbusErr.Body) > 0 {
			if msg, ok := dbusErr.Body[0].(string); ok {
				e.Message = msg
			}
		}
		return e
	}
	var dbusErrPtr *dbus.Error
	if xerrors.As(err, &dbusErrPtr) && dbusErrPtr != nil {
		return fromReplyError(*dbusErrPtr)
	}
	if xerrors.Is(err, context.Canceled) {
		return errCanceled
	}
	return newError(ErrorFailed, err.Error())
}

// ErrorKindOf reports the ErrorKind carried by err.
func ErrorKindOf(err error) ErrorKind {
	if err == nil {
		return ErrorNone
	}
	return fromReplyError(err).Kind
}

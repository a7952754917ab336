package services

import (
	"errors"
	"fmt"
)

// Error kinds, mapped to HTTP statuses by the routes layer.
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1 // malformed or missing input
	KindNotFound                        // absent or belongs to another tenant
	KindBusinessRule                    // state machine / availability / ledger rule
	KindGateway                         // external payment provider failure
	KindInternal                        // unexpected store or network failure
)

// Business-rule codes surfaced to callers.
const (
	CodeRoomUnavailable        = "ROOM_UNAVAILABLE"
	CodeFolioClosed            = "FOLIO_CLOSED"
	CodeInvalidStateTransition = "INVALID_STATE_TRANSITION"
	CodeNoRateFound            = "NO_RATE_FOUND"
	CodeUnsupportedGateway     = "UNSUPPORTED_GATEWAY"
	CodeGatewayNotConfigured   = "GATEWAY_NOT_CONFIGURED"
	CodeGatewayNotImplemented  = "GATEWAY_NOT_IMPLEMENTED"
	CodeGroupMemberCheckedIn   = "GROUP_MEMBER_CHECKED_IN"
)

type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func Validationf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError deliberately carries no detail: a missing entity and a
// cross-tenant entity must be indistinguishable to the caller.
func NotFoundError(entity string) *Error {
	return &Error{Kind: KindNotFound, Message: entity + " not found"}
}

func BusinessRule(code, format string, args ...interface{}) *Error {
	return &Error{Kind: KindBusinessRule, Code: code, Message: fmt.Sprintf(format, args...)}
}

func GatewayErrorf(code string, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindGateway, Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal error", Err: err}
}

// KindOf classifies any error; non-service errors count as internal.
func KindOf(err error) ErrorKind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

// CodeOf returns the business-rule code, or "" for errors without one.
func CodeOf(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

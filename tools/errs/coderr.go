package errs

import (
	"errors"
	"strconv"
)

// ===== error codes =====
//
// 11xx connection level (handshake fails, socket never opens)
// 12xx event level authorization
// 13xx event level validation
// 14xx event level persistence
const (
	CodeAuthentication = 1101
	CodeThrottled      = 1102
	CodeAuthorization  = 1201
	CodeValidation     = 1301
	CodePersistence    = 1401
)

var (
	ErrAuthentication = NewCodeError(CodeAuthentication, "authentication failed")
	ErrThrottled      = NewCodeError(CodeThrottled, "too many failed authentication attempts")
	ErrAuthorization  = NewCodeError(CodeAuthorization, "not a member of this room")
	ErrValidation     = NewCodeError(CodeValidation, "invalid payload")
	ErrPersistence    = NewCodeError(CodePersistence, "message could not be saved")
)

func NewCodeError(code int, msg string) *CodeError {
	return &CodeError{
		Code: code,
		Msg:  msg,
	}
}

type CodeError struct {
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
	Detail string `json:"detail,omitempty"`
}

func (e *CodeError) Error() string {
	s := strconv.Itoa(e.Code) + " " + e.Msg
	if e.Detail != "" {
		s += ": " + e.Detail
	}
	return s
}

// WithDetail returns a copy carrying extra diagnostic detail. The detail is
// for server-side logs only and never serialized into client frames.
func (e *CodeError) WithDetail(detail string) *CodeError {
	d := detail
	if e.Detail != "" {
		d = e.Detail + ", " + detail
	}
	return &CodeError{
		Code:   e.Code,
		Msg:    e.Msg,
		Detail: d,
	}
}

// Is matches by code so WithDetail copies still compare equal to the sentinel.
func (e *CodeError) Is(target error) bool {
	var ce *CodeError
	if !errors.As(target, &ce) {
		return false
	}
	return e.Code == ce.Code
}

// ECode reports the code of err if it is a CodeError, 0 otherwise.
func ECode(err error) int {
	var ce *CodeError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return 0
}

// EMsg reports the user-visible message for err. Unknown errors collapse to a
// generic string so internals never leak to clients.
func EMsg(err error) string {
	var ce *CodeError
	if errors.As(err, &ce) {
		return ce.Msg
	}
	return "internal error"
}

// ConnectionLevel reports whether err must terminate the transport session.
func ConnectionLevel(err error) bool {
	switch ECode(err) {
	case CodeAuthentication, CodeThrottled:
		return true
	}
	return false
}

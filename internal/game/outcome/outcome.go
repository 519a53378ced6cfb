// Package outcome defines the recoverable failures returned by game
// operations. None of them is fatal: the caller decides what happens next.
package outcome

import (
	"errors"
	"fmt"
)

// Code is a machine-readable failure reason
type Code string

const (
	CodeNone           Code = ""
	CodeNotFound       Code = "not_found"
	CodeNotOwner       Code = "not_owner"
	CodeAlreadyOwned   Code = "already_owned"
	CodeNotEnoughMoney Code = "not_enough_money"
	CodeHandFull       Code = "hand_full"
	CodeNoTarget       Code = "no_target"
	CodeGameOver       Code = "game_over"
)

// Error is a game failure with its code
type Error struct {
	Code    Code
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches errors by code so callers can compare against the sentinels.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

var (
	ErrNotFound       = &Error{Code: CodeNotFound}
	ErrNotOwner       = &Error{Code: CodeNotOwner}
	ErrAlreadyOwned   = &Error{Code: CodeAlreadyOwned}
	ErrNotEnoughMoney = &Error{Code: CodeNotEnoughMoney}
	ErrHandFull       = &Error{Code: CodeHandFull}
	ErrNoTarget       = &Error{Code: CodeNoTarget}
	ErrGameOver       = &Error{Code: CodeGameOver}
)

// New creates a game failure with a formatted message.
func New(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the code of a game failure, CodeNone for anything else.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeNone
}

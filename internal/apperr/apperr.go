// Copyright (c) 2026 Themehub Contributors. All rights reserved.
// See LICENSE for details.

// Package apperr defines the domain error taxonomy for themehub.
//
// Every error that leaves a service boundary is an *Error carrying a
// machine-readable code and an HTTP status. The Cause field is for
// server-side logging only and is never serialized to clients.
package apperr

import (
	"errors"
	"net/http"
)

// Code identifies a domain error condition.
type Code string

const (
	CodeNoThemes             Code = "NO_THEMES"
	CodePackMinThemes        Code = "PACK_MIN_THEMES"
	CodeInvalidThemeContents Code = "INVALID_THEME_CONTENTS"
	CodeLayoutNotFound       Code = "LAYOUT_NOT_FOUND"
	CodeThemeNotFound        Code = "THEME_NOT_FOUND"
	CodePackNotFound         Code = "PACK_NOT_FOUND"
	CodeFileTooBig           Code = "FILE_TOO_BIG"
	CodeFileSaveError        Code = "FILE_SAVE_ERROR"
	CodeOther                Code = "OTHER"
	CodeInternal             Code = "INTERNAL_ERROR"
)

// Error is the canonical domain error type.
type Error struct {
	// Code is the machine-readable error identifier.
	Code Code `json:"code"`
	// Message is a human-readable description safe to return to the client.
	Message string `json:"error"`
	// HTTPStatus is the HTTP response status code.
	HTTPStatus int `json:"-"`
	// Cause is the underlying error, used for server-side logging only.
	Cause error `json:"-"`
}

// Error implements the error interface. It returns the client-safe message.
func (e *Error) Error() string { return e.Message }

// Unwrap allows errors.Is and errors.As to traverse the cause chain.
func (e *Error) Unwrap() error { return e.Cause }

// NoThemes signals a submission containing zero items.
func NoThemes() *Error {
	return &Error{
		Code:       CodeNoThemes,
		Message:    "a submission must contain at least one theme",
		HTTPStatus: http.StatusBadRequest,
	}
}

// PackMinThemes signals a pack submission with fewer than two items.
func PackMinThemes() *Error {
	return &Error{
		Code:       CodePackMinThemes,
		Message:    "a pack requires at least 2 themes",
		HTTPStatus: http.StatusBadRequest,
	}
}

// InvalidThemeContents signals a missing or conflicting component set.
func InvalidThemeContents(msg string) *Error {
	return &Error{
		Code:       CodeInvalidThemeContents,
		Message:    msg,
		HTTPStatus: http.StatusBadRequest,
	}
}

// LayoutNotFound signals a dangling layout reference.
func LayoutNotFound() *Error {
	return &Error{
		Code:       CodeLayoutNotFound,
		Message:    "referenced layout does not exist",
		HTTPStatus: http.StatusNotFound,
	}
}

// ThemeNotFound signals an operation on a nonexistent theme or hbtheme id.
func ThemeNotFound() *Error {
	return &Error{
		Code:       CodeThemeNotFound,
		Message:    "theme not found",
		HTTPStatus: http.StatusNotFound,
	}
}

// PackNotFound signals an operation on a nonexistent pack id.
func PackNotFound() *Error {
	return &Error{
		Code:       CodePackNotFound,
		Message:    "pack not found",
		HTTPStatus: http.StatusNotFound,
	}
}

// FileTooBig signals an asset upload exceeding the configured size limit.
func FileTooBig() *Error {
	return &Error{
		Code:       CodeFileTooBig,
		Message:    "uploaded file exceeds the size limit",
		HTTPStatus: http.StatusRequestEntityTooLarge,
	}
}

// FileSaveError signals a non-size-related asset write failure.
// The partial file has already been removed by the asset store.
func FileSaveError(cause error) *Error {
	return &Error{
		Code:       CodeFileSaveError,
		Message:    "failed to save uploaded file",
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// Other is the catch-all for domain-rule violations that have no
// dedicated code, e.g. setting visibility on an item inside a pack.
func Other(msg string) *Error {
	return &Error{
		Code:       CodeOther,
		Message:    msg,
		HTTPStatus: http.StatusBadRequest,
	}
}

// Internal wraps an unexpected server-side error. The cause is stored for
// logging but never sent to the client.
func Internal(cause error) *Error {
	return &Error{
		Code:       CodeInternal,
		Message:    "an unexpected error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// As extracts the *Error from err's chain. It returns nil if not found.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}

// Is reports whether err (or any error in its chain) carries the given code.
func Is(err error, code Code) bool {
	e := As(err)
	return e != nil && e.Code == code
}

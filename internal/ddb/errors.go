// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package ddb

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
)

// ErrorNamespace prefixes every error type on the wire.
const ErrorNamespace = "com.amazonaws.dynamodb.v20111205"

// ErrorKind classifies the failures an operation can report to its caller.
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindResourceNotFound
	KindResourceInUse
	KindConditionalCheckFailed
	// KindSerialization marks payloads that could not be decoded at all.
	KindSerialization
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "ValidationException"
	case KindResourceNotFound:
		return "ResourceNotFoundException"
	case KindResourceInUse:
		return "ResourceInUseException"
	case KindConditionalCheckFailed:
		return "ConditionalCheckFailedException"
	case KindSerialization:
		return "SerializationException"
	default:
		return "InternalFailure"
	}
}

// Type is the value written to the __type field of an error envelope.
func (k ErrorKind) Type() string {
	return ErrorNamespace + "#" + k.String()
}

// StatusCode is the HTTP status associated with the kind.
func (k ErrorKind) StatusCode() int {
	switch k {
	case KindValidation, KindResourceNotFound, KindResourceInUse,
		KindConditionalCheckFailed, KindSerialization:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error is a failure of one of the well-known kinds.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Message
}

func newError(kind ErrorKind, format string, args ...any) error {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return errors.WithStack(&Error{Kind: kind, Message: msg})
}

func validationError(format string, args ...any) error {
	return newError(KindValidation, format, args...)
}

func notFoundError(format string, args ...any) error {
	return newError(KindResourceNotFound, format, args...)
}

func conditionalCheckFailed() error {
	return newError(KindConditionalCheckFailed, "The conditional request failed")
}

// KindOf reports the kind carried by err, if any.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// MessageOf returns the client facing message of err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

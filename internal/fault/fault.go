// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

// Package fault defines the tagged error model used across the pipeline.
//
// Every recovery boundary (scheduler retries, coordinator stage handling,
// HTTP error mapping) branches on an error's Kind rather than on string
// matching. Connector adapters wrap upstream failures in a *fault.Error so
// the scheduler can distinguish transient conditions worth retrying from
// terminal ones.
package fault

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
)

// Kind classifies an error for routing decisions.
type Kind string

// Error kinds. These are stable wire values: they appear in API error codes,
// investigation error lists, and audit records.
const (
	KindValidation          Kind = "validation"
	KindNotFound            Kind = "not_found"
	KindNotReady            Kind = "not_ready"
	KindUnauthorized        Kind = "unauthorized"
	KindRateLimited         Kind = "rate_limited"
	KindTimeout             Kind = "timeout"
	KindUpstreamUnavailable Kind = "upstream_unavailable"
	KindCredentialsInvalid  Kind = "credentials_invalid"
	KindMalformedResponse   Kind = "malformed_response"
	KindSecurityRejected    Kind = "security_rejected"
	KindInternal            Kind = "internal"
)

// Error is a classified error carrying pipeline context. Source and Query
// are optional; they identify the connector and query that produced the
// failure when the error crosses component boundaries.
type Error struct {
	Kind   Kind
	Source string
	Query  string
	Msg    string
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return string(e.Kind)
	}
}

// Unwrap returns the wrapped error for errors.Is/errors.As chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a *fault.Error with the same Kind.
// This lets callers write errors.Is(err, &fault.Error{Kind: KindTimeout}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New creates a classified error with a message.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf creates a classified error with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap wraps err with a kind and message. Returns nil if err is nil.
func Wrap(kind Kind, msg string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// WithSource returns a copy of e annotated with the connector name.
func (e *Error) WithSource(source string) *Error {
	clone := *e
	clone.Source = source
	return &clone
}

// WithQuery returns a copy of e annotated with the query ID.
func (e *Error) WithQuery(queryID string) *Error {
	clone := *e
	clone.Query = queryID
	return &clone
}

// KindOf extracts the Kind from an error chain. Errors that are not
// *fault.Error are classified by Classify.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Classify(err)
}

// Classify maps an arbitrary error to a Kind. Context cancellation and
// deadline expiry map to timeout; network-level failures map to
// upstream_unavailable; everything else is internal.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, context.Canceled):
		return KindTimeout
	case errors.Is(err, os.ErrDeadlineExceeded):
		return KindTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return KindTimeout
		}
		return KindUpstreamUnavailable
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return KindUpstreamUnavailable
	}

	return KindInternal
}

// IsTransient reports whether a failure of this kind is worth retrying.
// Rate limiting is deliberately not transient here: the rate-limit
// controller owns its backoff window and retrying through the scheduler
// would double-penalize the source.
func IsTransient(kind Kind) bool {
	switch kind {
	case KindTimeout, KindUpstreamUnavailable:
		return true
	default:
		return false
	}
}

// FromHTTPStatus classifies an upstream HTTP status code. Connector
// adapters use this to tag non-2xx responses.
func FromHTTPStatus(status int) Kind {
	switch {
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindCredentialsInvalid
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return KindTimeout
	case status >= 500:
		return KindUpstreamUnavailable
	case status >= 400:
		return KindMalformedResponse
	default:
		return ""
	}
}

// HTTPStatus maps a Kind to the HTTP status the API surfaces for it.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindNotReady:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusForbidden
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindTimeout:
		return http.StatusGatewayTimeout
	case KindUpstreamUnavailable:
		return http.StatusBadGateway
	case KindCredentialsInvalid:
		return http.StatusBadGateway
	case KindMalformedResponse:
		return http.StatusBadGateway
	case KindSecurityRejected:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Code returns the uppercase API error code for a kind, e.g. "RATE_LIMITED".
func Code(kind Kind) string {
	switch kind {
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindNotFound:
		return "NOT_FOUND"
	case KindNotReady:
		return "NOT_READY"
	case KindUnauthorized:
		return "AUTHORIZATION_ERROR"
	case KindRateLimited:
		return "RATE_LIMIT_EXCEEDED"
	case KindTimeout:
		return "TIMEOUT"
	case KindUpstreamUnavailable:
		return "UPSTREAM_UNAVAILABLE"
	case KindCredentialsInvalid:
		return "CREDENTIALS_INVALID"
	case KindMalformedResponse:
		return "MALFORMED_RESPONSE"
	case KindSecurityRejected:
		return "SECURITY_REJECTED"
	default:
		return "INTERNAL_ERROR"
	}
}

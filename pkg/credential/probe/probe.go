/*
SPDX-FileCopyrightText: 2025 the credcheck contributors

SPDX-License-Identifier: Apache-2.0
*/

// Package probe defines the contract for the optional live authentication
// check: exchanging a validated credential for an access token at an
// identity service. The engine only depends on the Prober interface; the
// network-bound implementation lives behind it.
package probe

import (
	"context"
	"errors"
	"fmt"

	"github.com/credcheck/credcheck/pkg/credential"
)

// ErrorKind classifies why a probe failed.
type ErrorKind string

const (
	// KindNoToken means the identity service answered but returned no token.
	KindNoToken ErrorKind = "NO_TOKEN"
	// KindInvalidGrant means the service rejected the credential (revoked,
	// expired, or unknown).
	KindInvalidGrant ErrorKind = "INVALID_GRANT"
	// KindInvalidKeyMaterial means the key parsed structurally but is not
	// usable for signing.
	KindInvalidKeyMaterial ErrorKind = "INVALID_KEY_MATERIAL"
	// KindMalformedStructure means the key could not even be parsed.
	KindMalformedStructure ErrorKind = "MALFORMED_STRUCTURE"
	// KindTransportFailure means the service could not be reached.
	KindTransportFailure ErrorKind = "TRANSPORT_FAILURE"
)

// Error is a classified probe failure.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

// Error implements the error interface. The cause is included because probe
// failures never carry key material.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("authentication probe failed (%s): %s: %v", e.Kind, e.Message, e.Cause)
	}

	return fmt.Sprintf("authentication probe failed (%s): %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Prober exchanges a normalized credential for a token at an identity
// service. Implementations must honor context cancellation and deadlines,
// and must return either nil or an *Error.
type Prober interface {
	Probe(ctx context.Context, cred credential.Normalized) error
}

// KindOf extracts the error kind, defaulting to transport failure for
// unclassified errors.
func KindOf(err error) ErrorKind {
	var probeErr *Error
	if errors.As(err, &probeErr) {
		return probeErr.Kind
	}

	return KindTransportFailure
}

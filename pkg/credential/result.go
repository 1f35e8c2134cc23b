/*
SPDX-FileCopyrightText: 2025 the credcheck contributors

SPDX-License-Identifier: Apache-2.0
*/

package credential

import (
	"encoding/json"
)

// Normalized is a credential in canonical form: a syntactically valid email
// plus exactly one PKCS#8 PEM block. It is only attached to a Result once
// every blocking check has passed, and is never mutated afterwards.
type Normalized struct {
	Email         string
	PrivateKeyPEM string
}

// KeyLength returns the length of the canonical PEM text in characters.
func (n Normalized) KeyLength() int {
	return len(n.PrivateKeyPEM)
}

// MarshalJSON serializes only the email and the key length. The key material
// itself must never reach any externally-exposed surface.
func (n Normalized) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Email     string `json:"email"`
		KeyLength int    `json:"keyLength"`
	}{
		Email:     n.Email,
		KeyLength: n.KeyLength(),
	})
}

// Result is the outcome of one validation run. It is constructed once per
// run, returned to the caller, and never mutated afterwards. The invariant
// Valid == (no errors && Credential != nil) is established by Finalize.
type Result struct {
	Valid       bool         `json:"valid"`
	Credential  *Normalized  `json:"credential,omitempty"`
	Errors      []Finding    `json:"errors"`
	Warnings    []Finding    `json:"warnings"`
	Diagnostics *Diagnostics `json:"diagnostics"`
}

// NewResult returns an empty result owning the given diagnostics.
func NewResult(diagnostics *Diagnostics) *Result {
	return &Result{
		Errors:      []Finding{},
		Warnings:    []Finding{},
		Diagnostics: diagnostics,
	}
}

// Add appends findings in discovery order, routing by severity.
func (r *Result) Add(findings ...Finding) {
	for _, f := range findings {
		if f.IsError() {
			r.Errors = append(r.Errors, f)
		} else {
			r.Warnings = append(r.Warnings, f)
		}
	}
}

// HasErrors reports whether any blocking finding has been recorded.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// Finalize establishes the validity invariant. It must be called exactly once,
// after the last finding has been recorded.
func (r *Result) Finalize() {
	r.Valid = len(r.Errors) == 0 && r.Credential != nil
}

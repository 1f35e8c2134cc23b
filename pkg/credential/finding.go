/*
SPDX-FileCopyrightText: 2025 the credcheck contributors

SPDX-License-Identifier: Apache-2.0
*/

package credential

// Stable finding codes. These are part of the serialized output contract and
// must never be renamed.
const (
	// Extraction codes.
	CodeUnknownFormat       = "UNKNOWN_FORMAT"
	CodeInvalidJSON         = "INVALID_JSON"
	CodeIncompleteJSON      = "INCOMPLETE_JSON"
	CodeMissingEmail        = "MISSING_EMAIL"
	CodeMissingPrivateKey   = "MISSING_PRIVATE_KEY"
	CodeUsingEncodedVariant = "USING_ENCODED_VARIANT"

	// Normalization codes.
	CodeNullPrivateKey     = "NULL_PRIVATE_KEY"
	CodeBase64DecodeFailed = "BASE64_DECODE_FAILED"
	CodeKeyTransformed     = "KEY_TRANSFORMED"

	// Structural codes.
	CodeMissingBeginMarker = "MISSING_BEGIN_MARKER"
	CodeMissingEndMarker   = "MISSING_END_MARKER"
	CodeKeyTooShort        = "KEY_TOO_SHORT"
	CodeKeyTooLong         = "KEY_TOO_LONG"
	CodeInvalidKeyContent  = "INVALID_KEY_CONTENT"
	CodeFewKeyLines        = "FEW_KEY_LINES"
	CodeWrongKeyType       = "WRONG_KEY_TYPE"
	CodeCertificateNotKey  = "CERTIFICATE_NOT_KEY"

	// Semantic codes.
	CodeInvalidEmailFormat     = "INVALID_EMAIL_FORMAT"
	CodeNonServiceAccountEmail = "NON_SERVICE_ACCOUNT_EMAIL"

	// Authentication probe codes.
	CodeAuthTestFailed   = "AUTH_TEST_FAILED"
	CodeAuthNoToken      = "AUTH_NO_TOKEN"
	CodeAuthInvalidGrant = "AUTH_INVALID_GRANT"
	CodeAuthInvalidKey   = "AUTH_INVALID_KEY"
	CodeAuthMalformedKey = "AUTH_MALFORMED_KEY"

	// Catch-all for internal faults.
	CodeUnexpectedError = "UNEXPECTED_ERROR"
)

// Severity distinguishes validation-blocking findings from informational ones.
type Severity string

const (
	// SeverityError marks a finding that blocks validation.
	SeverityError Severity = "error"
	// SeverityWarning marks a non-blocking, informational finding.
	SeverityWarning Severity = "warning"
)

// Finding is a structured validation error or warning. Findings are value
// types and are never mutated after creation; the With* helpers return
// augmented copies. Messages and context must never contain key material.
type Finding struct {
	Code       string         `json:"code"`
	Severity   Severity       `json:"severity"`
	Message    string         `json:"message"`
	Suggestion string         `json:"suggestion,omitempty"`
	Context    map[string]any `json:"context,omitempty"`
}

// NewError returns a blocking finding with the given code and message.
func NewError(code, message string) Finding {
	return Finding{Code: code, Severity: SeverityError, Message: message}
}

// NewWarning returns a non-blocking finding with the given code and message.
func NewWarning(code, message string) Finding {
	return Finding{Code: code, Severity: SeverityWarning, Message: message}
}

// WithSuggestion returns a copy of the finding with a remediation hint.
func (f Finding) WithSuggestion(suggestion string) Finding {
	f.Suggestion = suggestion
	return f
}

// WithContext returns a copy of the finding with an extra context field.
// The context map is copied so that shared findings stay immutable.
func (f Finding) WithContext(key string, value any) Finding {
	ctx := make(map[string]any, len(f.Context)+1)
	for k, v := range f.Context {
		ctx[k] = v
	}

	ctx[key] = value
	f.Context = ctx

	return f
}

// IsError reports whether the finding blocks validation.
func (f Finding) IsError() bool {
	return f.Severity == SeverityError
}

/*
SPDX-FileCopyrightText: 2025 the credcheck contributors

SPDX-License-Identifier: Apache-2.0
*/

// Package normalize turns a raw private-key string, in whatever mangled
// encoding it arrived, into canonical PEM text. The pipeline is an ordered
// list of idempotent transformations; each one is a no-op unless its
// precondition holds, so re-running the normalizer on its own output changes
// nothing.
package normalize

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"k8s.io/klog/v2"

	"github.com/credcheck/credcheck/pkg/credential"
)

// Transformation step names, recorded in Diagnostics in execution order.
const (
	StepBase64Decode       = "base64_decode"
	StepUnescapeNewlines   = "unescape_newlines"
	StepUnescapeDoubled    = "unescape_double_escaped_newlines"
	StepTrimWhitespace     = "trim_whitespace"
	StepStripQuotes        = "strip_wrapping_quotes"
	StepJSONStringUnescape = "json_string_unescape"
	StepNormalizeLineEnds  = "normalize_line_endings"
	StepFinalTrim          = "final_trim"
)

const (
	pemMarker = "-----BEGIN"

	// Text shorter than this cannot be a base64-wrapped key, so the decode
	// step leaves it alone and lets structural validation report it.
	base64LengthThreshold = 100
)

// Step is a named, idempotent string transformation. Apply returns the
// transformed text and whether the step fired.
type Step struct {
	Name  string
	Apply func(string) (string, bool)
}

// Outcome is the result of one normalization run.
type Outcome struct {
	// PEM is the canonical key text. Only meaningful when Errors is empty.
	PEM string
	// Applied lists the names of the steps that fired, in order.
	Applied []string
	// Warnings describe each fired transformation (names only, no content).
	Warnings []credential.Finding
	// Errors are blocking normalization failures.
	Errors []credential.Finding
}

// Normalizer applies the transformation pipeline to raw key text.
type Normalizer struct {
	logger klog.Logger
}

// NewNormalizer creates a normalizer that logs via the context's logger.
func NewNormalizer(ctx context.Context) *Normalizer {
	return &Normalizer{logger: klog.FromContext(ctx)}
}

// Normalize runs the pipeline. Base64 decoding is the only step that can
// fail hard; every other step either fires or silently passes the text
// through.
func (n *Normalizer) Normalize(rawKey string) Outcome {
	out := Outcome{}

	if strings.TrimSpace(rawKey) == "" {
		out.Errors = append(out.Errors, credential.NewError(
			credential.CodeNullPrivateKey, "the private key is empty").
			WithSuggestion("check that the key variable or field is actually set"))

		return out
	}

	text, fired, err := decodeIfBase64(rawKey)
	if err != nil {
		out.Errors = append(out.Errors, credential.NewError(
			credential.CodeBase64DecodeFailed, "the key looks base64-encoded but cannot be decoded").
			WithSuggestion("regenerate the encoded value, e.g. base64 -w0 < key.pem"))

		return out
	}

	if fired {
		n.record(&out, StepBase64Decode)
	}

	text = n.runSteps(&out, text)

	// Quote stripping or unescaping may have uncovered a base64 wrapper the
	// first decode attempt could not see. Decoded output itself is never fed
	// back through the decoder.
	if !fired {
		decoded, uncovered, err := decodeIfBase64(text)
		if err != nil {
			out.Errors = append(out.Errors, credential.NewError(
				credential.CodeBase64DecodeFailed, "the key looks base64-encoded but cannot be decoded").
				WithSuggestion("regenerate the encoded value, e.g. base64 -w0 < key.pem"))

			return out
		}

		if uncovered {
			n.record(&out, StepBase64Decode)
			text = n.runSteps(&out, decoded)
		}
	}

	out.PEM = text

	return out
}

func (n *Normalizer) runSteps(out *Outcome, text string) string {
	for _, step := range Pipeline() {
		next, fired := step.Apply(text)
		if fired {
			n.record(out, step.Name)
			text = next
		}
	}

	return text
}

func (n *Normalizer) record(out *Outcome, name string) {
	n.logger.V(6).Info("Key transformation fired", "transformation", name)

	out.Applied = append(out.Applied, name)
	out.Warnings = append(out.Warnings, credential.NewWarning(
		credential.CodeKeyTransformed,
		fmt.Sprintf("the private key text was adjusted by the %s transformation", name)).
		WithContext("transformation", name))
}

// Pipeline returns the ordered transformation steps that follow base64
// decoding. The steps are pure; the slice is rebuilt on every call so
// callers cannot corrupt shared state.
func Pipeline() []Step {
	return []Step{
		{Name: StepUnescapeNewlines, Apply: unescapeNewlines},
		{Name: StepUnescapeDoubled, Apply: unescapeDoubledNewlines},
		{Name: StepTrimWhitespace, Apply: trimWhitespace},
		{Name: StepStripQuotes, Apply: stripWrappingQuotes},
		{Name: StepJSONStringUnescape, Apply: jsonStringUnescape},
		{Name: StepNormalizeLineEnds, Apply: normalizeLineEndings},
		{Name: StepFinalTrim, Apply: trimWhitespace},
	}
}

// decodeIfBase64 decodes the text when it has no PEM marker and is long
// enough to plausibly be a base64-wrapped key. A decode that succeeds but
// does not reveal a PEM marker is not an error here; structural validation
// reports it. Decoding is single-level only: the output is never fed back
// through the decoder.
func decodeIfBase64(s string) (string, bool, error) {
	trimmed := strings.TrimSpace(s)

	if strings.Contains(trimmed, pemMarker) || len(trimmed) <= base64LengthThreshold {
		return s, false, nil
	}

	if !isBase64Alphabet(trimmed) {
		// Contains characters base64 never produces (escaped newlines,
		// quotes); leave it for the later steps.
		return s, false, nil
	}

	compact := stripAllWhitespace(trimmed)

	decoded, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		decoded, err = base64.RawStdEncoding.DecodeString(compact)
	}

	if err != nil {
		return "", false, err
	}

	return string(decoded), true, nil
}

func unescapeNewlines(s string) (string, bool) {
	// A double-escaped sequence contains the single-escaped one as a
	// substring, so mask it before deciding whether this step fires.
	const mask = "\x00\x00"

	masked := strings.ReplaceAll(s, `\\n`, mask)
	if !strings.Contains(masked, `\n`) {
		return s, false
	}

	masked = strings.ReplaceAll(masked, `\n`, "\n")

	return strings.ReplaceAll(masked, mask, `\\n`), true
}

func unescapeDoubledNewlines(s string) (string, bool) {
	if !strings.Contains(s, `\\n`) {
		return s, false
	}

	return strings.ReplaceAll(s, `\\n`, "\n"), true
}

func trimWhitespace(s string) (string, bool) {
	trimmed := strings.TrimSpace(s)

	return trimmed, trimmed != s
}

func stripWrappingQuotes(s string) (string, bool) {
	stripped := false

	// Nested shell quoting can stack several pairs; strip to a fixed point
	// so the step stays idempotent.
	for len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first != last || (first != '"' && first != '\'') {
			break
		}

		s = s[1 : len(s)-1]
		stripped = true
	}

	return s, stripped
}

// jsonStringUnescape interprets the text as the body of a JSON string
// literal. The unescaped form is only adopted when it differs and actually
// contains a PEM marker; anything else is left untouched.
func jsonStringUnescape(s string) (string, bool) {
	if strings.ContainsAny(s, "\n\"") {
		// Raw line breaks or quotes make the wrapped form invalid JSON.
		return s, false
	}

	var unescaped string
	if err := json.Unmarshal([]byte(`"`+s+`"`), &unescaped); err != nil {
		return s, false
	}

	if unescaped != s && strings.Contains(unescaped, pemMarker) {
		return unescaped, true
	}

	return s, false
}

func normalizeLineEndings(s string) (string, bool) {
	if !strings.Contains(s, "\r\n") {
		return s, false
	}

	return strings.ReplaceAll(s, "\r\n", "\n"), true
}

func isBase64Alphabet(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		case r == '+' || r == '/' || r == '=':
		case r == '\n' || r == '\r' || r == ' ' || r == '\t':
		default:
			return false
		}
	}

	return true
}

func stripAllWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == ' ' || r == '\t' {
			return -1
		}

		return r
	}, s)
}

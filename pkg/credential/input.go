/*
SPDX-FileCopyrightText: 2025 the credcheck contributors

SPDX-License-Identifier: Apache-2.0
*/

package credential

// Source is the closed set of input shapes the detector can classify.
// Callers may hand the engine arbitrary values; classification turns them
// into exactly one of these variants (or none), so downstream stages switch
// over a known set instead of probing field presence ad hoc.
type Source interface {
	// Shape returns a short, non-sensitive description of the variant,
	// suitable for diagnostics.
	Shape() string
}

// Fields is an environment-variable-style mapping of named string fields.
type Fields map[string]string

// Shape implements Source.
func (Fields) Shape() string { return "fields" }

// Names returns the field names in map iteration order. Diagnostics need a
// deterministic order, so callers should sort the result.
func (f Fields) Names() []string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}

	return names
}

// Text is an opaque text blob: JSON, base64, or something unrecognizable.
type Text string

// Shape implements Source.
func (Text) Shape() string { return "text" }

// Pair is an explicit email/private-key object.
type Pair struct {
	Email      string `json:"email"`
	PrivateKey string `json:"privateKey"`
}

// Shape implements Source.
func (Pair) Shape() string { return "pair" }

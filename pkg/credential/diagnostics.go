/*
SPDX-FileCopyrightText: 2025 the credcheck contributors

SPDX-License-Identifier: Apache-2.0
*/

package credential

import (
	"github.com/google/uuid"
)

// Format identifies the input shape the detector recognized.
type Format string

const (
	// FormatEnvPair is a flat mapping with recognizable email/key field names.
	FormatEnvPair Format = "env_pair"
	// FormatJSONText is a JSON text blob with service account fields.
	FormatJSONText Format = "json_text"
	// FormatObjectPair is an explicit email/private-key object.
	FormatObjectPair Format = "object_pair"
	// FormatBase64Text is a base64 blob that decodes to one of the other shapes.
	FormatBase64Text Format = "base64_text"
	// FormatUnknown is anything the detector could not classify.
	FormatUnknown Format = "unknown"
)

// Diagnostics records the provenance of a single validation run: which format
// was detected, which transformations fired, which validation steps executed,
// and how long the run took. A fresh Diagnostics is created for every run and
// owned exclusively by the Result it belongs to; it must never be stored on
// long-lived state or shared between concurrent runs.
type Diagnostics struct {
	// ID uniquely identifies this validation run.
	ID string `json:"id"`
	// DetectedFormat is the input shape the detector recognized, if any.
	DetectedFormat Format `json:"detectedFormat,omitempty"`
	// TransformationsApplied lists the normalization steps that fired, in
	// execution order.
	TransformationsApplied []string `json:"transformationsApplied"`
	// ValidationSteps lists the pipeline stages that executed, in order.
	ValidationSteps []string `json:"validationSteps"`
	// ElapsedMillis is the wall-clock duration of the run.
	ElapsedMillis int64 `json:"elapsedMillis"`
}

// NewDiagnostics returns an empty per-run diagnostics record.
func NewDiagnostics() *Diagnostics {
	return &Diagnostics{
		ID:                     uuid.NewString(),
		TransformationsApplied: []string{},
		ValidationSteps:        []string{},
	}
}

// RecordTransformation appends a fired transformation name.
func (d *Diagnostics) RecordTransformation(name string) {
	d.TransformationsApplied = append(d.TransformationsApplied, name)
}

// RecordStep appends an executed validation step name.
func (d *Diagnostics) RecordStep(name string) {
	d.ValidationSteps = append(d.ValidationSteps, name)
}

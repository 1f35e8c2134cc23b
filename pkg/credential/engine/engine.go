/*
SPDX-FileCopyrightText: 2025 the credcheck contributors

SPDX-License-Identifier: Apache-2.0
*/

// Package engine orchestrates credential validation: format detection, key
// normalization, structural and email checks, and the optional live
// authentication probe. Each Validate call owns its own diagnostics and
// result, so concurrent calls never share state.
package engine

import (
	"context"
	"time"

	"k8s.io/klog/v2"

	"github.com/credcheck/credcheck/internal/util"
	"github.com/credcheck/credcheck/pkg/credential"
	"github.com/credcheck/credcheck/pkg/credential/check"
	"github.com/credcheck/credcheck/pkg/credential/detect"
	"github.com/credcheck/credcheck/pkg/credential/normalize"
	"github.com/credcheck/credcheck/pkg/credential/probe"
)

// Validation step names, recorded in Diagnostics in execution order.
const (
	StepFormatDetection      = "format_detection"
	StepKeyNormalization     = "key_normalization"
	StepStructuralValidation = "structural_validation"
	StepEmailValidation      = "email_validation"
	StepAuthenticationProbe  = "authentication_probe"
)

// Default engine settings.
const (
	DefaultMinKeyLength = 1600
	DefaultMaxKeyLength = 4096
	DefaultProbeTimeout = 10 * time.Second
)

// Options configures an Engine. The engine never reads ambient state; every
// knob is passed in here.
type Options struct {
	// MinKeyLength is the minimum accepted PEM length.
	MinKeyLength int
	// MaxKeyLength is the maximum expected PEM length (warning only).
	MaxKeyLength int
	// TestAuthentication enables the live authentication probe.
	TestAuthentication bool
	// StrictMode tightens the email grammar check.
	StrictMode bool
	// ServiceAccountDomains are accepted email domain suffixes.
	ServiceAccountDomains []string
	// Prober performs the live authentication check. Required when
	// TestAuthentication is set.
	Prober probe.Prober
	// ProbeTimeout bounds the probe call.
	ProbeTimeout time.Duration
	// Clock provides the current time for elapsed measurement.
	Clock util.Clock
}

func (o *Options) applyDefaults() {
	if o.MinKeyLength == 0 {
		o.MinKeyLength = DefaultMinKeyLength
	}

	if o.MaxKeyLength == 0 {
		o.MaxKeyLength = DefaultMaxKeyLength
	}

	if o.ProbeTimeout == 0 {
		o.ProbeTimeout = DefaultProbeTimeout
	}

	if o.Clock == nil {
		o.Clock = &util.RealClock{}
	}
}

// Engine validates credentials. It is stateless across calls and safe for
// concurrent use.
type Engine struct {
	opts Options
}

// New creates an engine with the given options.
func New(opts Options) *Engine {
	opts.applyDefaults()

	return &Engine{opts: opts}
}

// Validate runs the full pipeline over an untrusted input value. It never
// panics: internal faults surface as a single UNEXPECTED_ERROR finding.
func (e *Engine) Validate(ctx context.Context, input any) (result *credential.Result) {
	logger := klog.FromContext(ctx)
	diagnostics := credential.NewDiagnostics()
	result = credential.NewResult(diagnostics)
	start := e.opts.Clock.Now()

	defer func() {
		if r := recover(); r != nil {
			logger.Error(nil, "Validation pipeline panicked", "id", diagnostics.ID)

			// Discard whatever partial state the fault left behind.
			result = credential.NewResult(diagnostics)
			result.Add(credential.NewError(credential.CodeUnexpectedError,
				"the validator hit an unexpected internal fault"))
		}

		diagnostics.ElapsedMillis = e.opts.Clock.Now().Sub(start).Milliseconds()
		result.Finalize()
	}()

	diagnostics.RecordStep(StepFormatDetection)

	extraction, extractErrs := detect.NewDetector(ctx).Detect(input)
	diagnostics.DetectedFormat = extraction.Format
	result.Add(extraction.Warnings...)

	if len(extractErrs) > 0 {
		result.Add(extractErrs...)

		return result
	}

	diagnostics.RecordStep(StepKeyNormalization)

	outcome := normalize.NewNormalizer(ctx).Normalize(extraction.RawKey)
	for _, name := range outcome.Applied {
		diagnostics.RecordTransformation(name)
	}

	result.Add(outcome.Warnings...)

	if len(outcome.Errors) > 0 {
		result.Add(outcome.Errors...)

		return result
	}

	// Structural and email checks are independent; both always run so one
	// pass surfaces every problem.
	diagnostics.RecordStep(StepStructuralValidation)
	result.Add(check.Structural(outcome.PEM, check.StructuralOptions{
		MinLength: e.opts.MinKeyLength,
		MaxLength: e.opts.MaxKeyLength,
	})...)

	diagnostics.RecordStep(StepEmailValidation)
	result.Add(check.Email(extraction.RawEmail, check.EmailOptions{
		Strict:                e.opts.StrictMode,
		ServiceAccountDomains: e.opts.ServiceAccountDomains,
	})...)

	if result.HasErrors() {
		return result
	}

	cred := credential.Normalized{Email: extraction.RawEmail, PrivateKeyPEM: outcome.PEM}

	if e.opts.TestAuthentication {
		diagnostics.RecordStep(StepAuthenticationProbe)

		// A result must never claim the probe passed when it could not run.
		if e.opts.Prober == nil {
			result.Add(credential.NewError(credential.CodeAuthTestFailed,
				"authentication testing is enabled but no prober is configured").
				WithSuggestion("set a Prober in the engine options or disable TestAuthentication"))

			return result
		}

		probeCtx, cancel := context.WithTimeout(ctx, e.opts.ProbeTimeout)
		defer cancel()

		if err := e.opts.Prober.Probe(probeCtx, cred); err != nil {
			result.Add(probeFinding(err))

			return result
		}
	}

	result.Credential = &cred

	return result
}

// probeFinding maps a probe failure onto a blocking finding. Kinds the probe
// can distinguish get their own code; everything else is the generic
// authentication failure.
func probeFinding(err error) credential.Finding {
	kind := probe.KindOf(err)

	var finding credential.Finding

	switch kind {
	case probe.KindNoToken:
		finding = credential.NewError(credential.CodeAuthNoToken,
			"the identity service answered without issuing a token")
	case probe.KindInvalidGrant:
		finding = credential.NewError(credential.CodeAuthInvalidGrant,
			"the identity service rejected the credential").
			WithSuggestion("the key may be revoked or the service account deleted; issue a fresh key")
	case probe.KindInvalidKeyMaterial:
		finding = credential.NewError(credential.CodeAuthInvalidKey,
			"the key material is structurally sound but unusable for signing").
			WithSuggestion("re-export the service account key; this one appears damaged")
	case probe.KindMalformedStructure:
		finding = credential.NewError(credential.CodeAuthMalformedKey,
			"the key could not be parsed when preparing the authentication request")
	default:
		finding = credential.NewError(credential.CodeAuthTestFailed,
			"the live authentication test failed").
			WithSuggestion("check network access to the identity service and retry")
	}

	return finding.WithContext("probeErrorKind", string(kind))
}

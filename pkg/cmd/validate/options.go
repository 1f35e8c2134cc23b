/*
SPDX-FileCopyrightText: 2025 the credcheck contributors

SPDX-License-Identifier: Apache-2.0
*/

package validate

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"k8s.io/klog/v2"

	"github.com/credcheck/credcheck/internal/util"
	"github.com/credcheck/credcheck/pkg/cmd/base"
	"github.com/credcheck/credcheck/pkg/config"
	"github.com/credcheck/credcheck/pkg/credential"
	"github.com/credcheck/credcheck/pkg/credential/engine"
	"github.com/credcheck/credcheck/pkg/credential/probe"
)

// Environment variable names recognized when no explicit source flag is
// given.
var environmentNames = []string{
	"GOOGLE_SERVICE_ACCOUNT_CREDENTIALS",
	"SERVICE_ACCOUNT_CREDENTIALS",
	"GOOGLE_SERVICE_ACCOUNT_EMAIL",
	"GOOGLE_CLIENT_EMAIL",
	"SERVICE_ACCOUNT_EMAIL",
	"GOOGLE_PRIVATE_KEY",
	"PRIVATE_KEY",
}

// Options is a struct to support the validate command.
type Options struct {
	base.Options

	// File is a path to a credential document (JSON or base64 blob).
	File string
	// EnvFile is a path to a dotenv file with credential variables.
	EnvFile string
	// Stdin reads the credential document from standard input.
	Stdin bool
	// MinKeyLength overrides the configured minimum key length when set.
	MinKeyLength int
	// MaxKeyLength overrides the configured maximum key length when set.
	MaxKeyLength int
	// Probe overrides the configured testAuthentication setting when the
	// flag was given.
	Probe bool

	probeFlagSet bool
	input        any
	cfg          *config.Config
}

// NewOptions returns initialized Options.
func NewOptions(ioStreams util.IOStreams) *Options {
	return &Options{
		Options: base.Options{
			IOStreams: ioStreams,
		},
	}
}

// AddFlags binds the validate flags to the flag set.
func (o *Options) AddFlags(flags *pflag.FlagSet) {
	flags.StringVarP(&o.File, "file", "f", o.File, "Path to a credential document (service account JSON or base64 blob).")
	flags.StringVar(&o.EnvFile, "env-file", o.EnvFile, "Path to a dotenv file holding credential variables.")
	flags.BoolVar(&o.Stdin, "stdin", o.Stdin, "Read the credential document from standard input.")
	flags.IntVar(&o.MinKeyLength, "min-key-length", o.MinKeyLength, "Minimum accepted private key length (overrides config).")
	flags.IntVar(&o.MaxKeyLength, "max-key-length", o.MaxKeyLength, "Maximum expected private key length (overrides config).")
	flags.BoolVar(&o.Probe, "probe", o.Probe, "Exchange the credential for a token at the identity service (overrides config).")
	o.Options.AddFlags(flags)
}

// Complete loads the configuration and resolves the credential source.
func (o *Options) Complete(f util.Factory, cmd *cobra.Command, _ []string) error {
	cfg, err := f.Configuration()
	if err != nil {
		return err
	}

	o.cfg = cfg
	o.probeFlagSet = cmd.Flags().Changed("probe")

	switch {
	case o.File != "":
		content, err := os.ReadFile(o.File) // #nosec G304 -- Accepting user-provided credential file path by design
		if err != nil {
			return fmt.Errorf("failed to read credential file: %w", err)
		}

		o.input = string(content)
	case o.EnvFile != "":
		fields, err := godotenv.Read(o.EnvFile)
		if err != nil {
			return fmt.Errorf("failed to read env file: %w", err)
		}

		o.input = fields
	case o.Stdin:
		content, err := io.ReadAll(o.IOStreams.In)
		if err != nil {
			return fmt.Errorf("failed to read standard input: %w", err)
		}

		o.input = string(content)
	default:
		o.input = environmentFields()
	}

	return nil
}

// Validate validates the provided options.
func (o *Options) Validate() error {
	sources := 0
	for _, set := range []bool{o.File != "", o.EnvFile != "", o.Stdin} {
		if set {
			sources++
		}
	}

	if sources > 1 {
		return errors.New("--file, --env-file and --stdin are mutually exclusive")
	}

	if o.MinKeyLength < 0 || o.MaxKeyLength < 0 {
		return errors.New("key length bounds must not be negative")
	}

	return o.Options.Validate()
}

// Run validates the credential and prints the result.
func (o *Options) Run(f util.Factory) error {
	opts := o.engineOptions()
	eng := engine.New(opts)

	ctx := klog.NewContext(f.Context(), klog.Background())
	result := eng.Validate(ctx, o.input)

	if o.Output == "" {
		if _, err := fmt.Fprint(o.IOStreams.Out, engine.Report(result)); err != nil {
			return err
		}
	} else if err := o.PrintObject(result); err != nil {
		return err
	}

	if !result.Valid {
		return fmt.Errorf("credential validation failed with %d error(s)", len(result.Errors))
	}

	return nil
}

// engineOptions folds the config file and the flag overrides into engine
// options. Flags win over the file; defaults fill the rest.
func (o *Options) engineOptions() engine.Options {
	opts := engine.Options{
		MinKeyLength:          o.MinKeyLength,
		MaxKeyLength:          o.MaxKeyLength,
		ServiceAccountDomains: o.cfg.ServiceAccountDomains,
	}

	if opts.MinKeyLength == 0 && o.cfg.MinKeyLength != nil {
		opts.MinKeyLength = *o.cfg.MinKeyLength
	}

	if opts.MaxKeyLength == 0 && o.cfg.MaxKeyLength != nil {
		opts.MaxKeyLength = *o.cfg.MaxKeyLength
	}

	if o.cfg.StrictMode != nil {
		opts.StrictMode = *o.cfg.StrictMode
	}

	if o.probeFlagSet {
		opts.TestAuthentication = o.Probe
	} else if o.cfg.TestAuthentication != nil {
		opts.TestAuthentication = *o.cfg.TestAuthentication
	}

	if opts.TestAuthentication {
		tokenURL := ""

		var scopes []string

		if o.cfg.Probe != nil {
			tokenURL = o.cfg.Probe.TokenURL
			scopes = o.cfg.Probe.Scopes

			if o.cfg.Probe.TimeoutSeconds > 0 {
				opts.ProbeTimeout = time.Duration(o.cfg.Probe.TimeoutSeconds) * time.Second
			}
		}

		opts.Prober = probe.NewGoogleTokenProber(tokenURL, scopes)
	}

	return opts
}

func environmentFields() credential.Fields {
	fields := credential.Fields{}

	for _, name := range environmentNames {
		if value, ok := os.LookupEnv(name); ok {
			fields[name] = value
		}
	}

	return fields
}

/*
SPDX-FileCopyrightText: 2025 the credcheck contributors

SPDX-License-Identifier: Apache-2.0
*/

package encode

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/credcheck/credcheck/internal/util"
	"github.com/credcheck/credcheck/pkg/cmd/base"
)

// Output formats of the encode command.
const (
	FormatBase64 = "base64"
	FormatEnv    = "env"
	FormatJSON   = "json"
)

// Options is a struct to support the encode command.
type Options struct {
	base.Options

	// File is the path to the service account JSON file.
	File string
	// Format selects the output encoding.
	Format string

	document map[string]any
	raw      []byte
}

// NewOptions returns initialized Options.
func NewOptions(ioStreams util.IOStreams) *Options {
	return &Options{
		Options: base.Options{
			IOStreams: ioStreams,
		},
		Format: FormatBase64,
	}
}

// AddFlags binds the encode flags to the flag set.
func (o *Options) AddFlags(flags *pflag.FlagSet) {
	flags.StringVarP(&o.File, "file", "f", o.File, "Path to the service account JSON file.")
	flags.StringVar(&o.Format, "format", o.Format, "One of 'base64', 'env' or 'json'.")
}

// Complete reads and parses the credential document.
func (o *Options) Complete(_ util.Factory, _ *cobra.Command, _ []string) error {
	if o.File == "" {
		return nil // rejected in Validate
	}

	raw, err := os.ReadFile(o.File) // #nosec G304 -- Accepting user-provided credential file path by design
	if err != nil {
		return fmt.Errorf("failed to read credential file: %w", err)
	}

	o.raw = raw

	if err := json.Unmarshal(raw, &o.document); err != nil {
		return fmt.Errorf("the credential file is not valid JSON: %w", err)
	}

	return nil
}

// Validate validates the provided options.
func (o *Options) Validate() error {
	if o.File == "" {
		return errors.New("--file is required")
	}

	switch o.Format {
	case FormatBase64, FormatEnv, FormatJSON:
		return nil
	default:
		return fmt.Errorf("--format must be one of 'base64', 'env' or 'json', got %q", o.Format)
	}
}

// Run renders the requested encoding.
func (o *Options) Run(_ util.Factory) error {
	switch o.Format {
	case FormatBase64:
		compact, err := compactJSON(o.raw)
		if err != nil {
			return err
		}

		fmt.Fprintln(o.IOStreams.Out, base64.StdEncoding.EncodeToString(compact))
	case FormatJSON:
		compact, err := compactJSON(o.raw)
		if err != nil {
			return err
		}

		fmt.Fprintln(o.IOStreams.Out, string(compact))
	case FormatEnv:
		lines, err := o.envLines()
		if err != nil {
			return err
		}

		fmt.Fprintln(o.IOStreams.Out, lines)
	}

	return nil
}

// envLines renders the email and key as dotenv assignments, with the key's
// line breaks escaped so the value survives a single-line variable.
func (o *Options) envLines() (string, error) {
	email, _ := o.document["client_email"].(string)
	key, _ := o.document["private_key"].(string)

	if email == "" || key == "" {
		return "", errors.New("the credential file has no client_email or private_key to export")
	}

	escaped := strings.ReplaceAll(strings.TrimRight(key, "\n"), "\n", `\n`)

	return godotenv.Marshal(map[string]string{
		"GOOGLE_SERVICE_ACCOUNT_EMAIL": email,
		"GOOGLE_PRIVATE_KEY":           escaped,
	})
}

func compactJSON(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

/*
SPDX-FileCopyrightText: 2025 the credcheck contributors

SPDX-License-Identifier: Apache-2.0
*/

// Package validate implements the credcheck validate command. It feeds a
// credential from a file, a dotenv file, standard input, or the process
// environment through the validation engine and renders the outcome.
package validate

import (
	"github.com/spf13/cobra"

	"github.com/credcheck/credcheck/internal/util"
	"github.com/credcheck/credcheck/pkg/cmd/base"
)

// NewCommand returns a new validate command.
func NewCommand(f util.Factory, o *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a service account credential",
		Long: `Validate a service account credential in whatever encoding it arrives.

The credential is read from --file, --env-file, --stdin, or, by default, from
the recognized environment variables (GOOGLE_SERVICE_ACCOUNT_CREDENTIALS,
GOOGLE_SERVICE_ACCOUNT_EMAIL, GOOGLE_PRIVATE_KEY, ...). The key is normalized
to canonical PEM form and checked structurally; with --probe it is also
exchanged for a token at the identity service.`,
		Example: `  # Validate a service account JSON file
  credcheck validate --file serviceaccount.json

  # Validate credentials from a dotenv file and emit JSON
  credcheck validate --env-file .env -o json

  # Validate the environment variables and test authentication live
  credcheck validate --probe`,
		RunE: base.WrapRunE(o, f),
	}

	o.AddFlags(cmd.Flags())
	o.RegisterCompletionsForOutputFlag(cmd)

	return cmd
}

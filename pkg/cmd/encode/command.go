/*
SPDX-FileCopyrightText: 2025 the credcheck contributors

SPDX-License-Identifier: Apache-2.0
*/

// Package encode implements the credcheck encode command, the counterpart of
// validate: it turns a service account JSON file into one of the encodings
// the detector accepts, for pasting into deployment environments.
package encode

import (
	"github.com/spf13/cobra"

	"github.com/credcheck/credcheck/internal/util"
	"github.com/credcheck/credcheck/pkg/cmd/base"
)

// NewCommand returns a new encode command.
func NewCommand(f util.Factory, o *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode a service account JSON file for deployment",
		Long: `Encode a service account JSON file into a shape that survives deployment
environments: a single base64 blob, dotenv lines with escaped newlines, or
compact JSON.`,
		Example: `  # Produce a single base64 blob for GOOGLE_SERVICE_ACCOUNT_CREDENTIALS
  credcheck encode --file serviceaccount.json --format base64

  # Produce dotenv lines with the key's newlines escaped
  credcheck encode --file serviceaccount.json --format env`,
		RunE: base.WrapRunE(o, f),
	}

	o.AddFlags(cmd.Flags())

	return cmd
}

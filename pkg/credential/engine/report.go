/*
SPDX-FileCopyrightText: 2025 the credcheck contributors

SPDX-License-Identifier: Apache-2.0
*/

package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/credcheck/credcheck/pkg/credential"
)

var (
	passedText = color.New(color.FgGreen, color.Bold).SprintFunc()
	failedText = color.New(color.FgRed, color.Bold).SprintFunc()
)

// Report renders a deterministic, human-readable summary of a validation
// result. Key material never appears in the output; only the email and the
// key length are shown for valid credentials.
func Report(result *credential.Result) string {
	var b strings.Builder

	if result.Valid {
		fmt.Fprintf(&b, "Credential validation %s\n", passedText("PASSED"))
	} else {
		fmt.Fprintf(&b, "Credential validation %s\n", failedText("FAILED"))
	}

	b.WriteString("\nDiagnostics:\n")
	fmt.Fprintf(&b, "  id:              %s\n", result.Diagnostics.ID)
	fmt.Fprintf(&b, "  detected format: %s\n", formatOrDash(result.Diagnostics.DetectedFormat))
	fmt.Fprintf(&b, "  transformations: %s\n", listOrDash(result.Diagnostics.TransformationsApplied))
	fmt.Fprintf(&b, "  steps:           %s\n", listOrDash(result.Diagnostics.ValidationSteps))
	fmt.Fprintf(&b, "  elapsed:         %dms\n", result.Diagnostics.ElapsedMillis)

	if len(result.Errors) > 0 {
		fmt.Fprintf(&b, "\nErrors (%d):\n", len(result.Errors))
		writeFindings(&b, result.Errors)
	}

	if len(result.Warnings) > 0 {
		fmt.Fprintf(&b, "\nWarnings (%d):\n", len(result.Warnings))
		writeFindings(&b, result.Warnings)
	}

	if result.Valid && result.Credential != nil {
		fmt.Fprintf(&b, "\nEmail:      %s\n", result.Credential.Email)
		fmt.Fprintf(&b, "Key length: %d characters\n", result.Credential.KeyLength())
	}

	return b.String()
}

func writeFindings(b *strings.Builder, findings []credential.Finding) {
	for i, f := range findings {
		fmt.Fprintf(b, "  %d. [%s] %s\n", i+1, f.Code, f.Message)

		if f.Suggestion != "" {
			fmt.Fprintf(b, "     suggestion: %s\n", f.Suggestion)
		}

		if len(f.Context) > 0 {
			keys := make([]string, 0, len(f.Context))
			for k := range f.Context {
				keys = append(keys, k)
			}

			sort.Strings(keys)

			pairs := make([]string, 0, len(keys))
			for _, k := range keys {
				pairs = append(pairs, fmt.Sprintf("%s=%v", k, f.Context[k]))
			}

			fmt.Fprintf(b, "     context: %s\n", strings.Join(pairs, ", "))
		}
	}
}

func formatOrDash(format credential.Format) string {
	if format == "" {
		return "-"
	}

	return string(format)
}

func listOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}

	return strings.Join(items, ", ")
}

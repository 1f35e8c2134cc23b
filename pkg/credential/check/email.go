/*
SPDX-FileCopyrightText: 2025 the credcheck contributors

SPDX-License-Identifier: Apache-2.0
*/

package check

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/credcheck/credcheck/pkg/credential"
)

// The grammar is deliberately permissive: local@domain.tld with no
// whitespace. Strict mode additionally rejects dot abuse in the local part.
var emailRegexp = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s.]{2,}$`)

// DefaultServiceAccountDomains are the domain suffixes recognized as
// service account identities.
func DefaultServiceAccountDomains() []string {
	return []string{
		".iam.gserviceaccount.com",
		".gserviceaccount.com",
	}
}

// EmailOptions configures the email checks.
type EmailOptions struct {
	// Strict tightens the grammar: no leading, trailing, or consecutive
	// dots in the local part.
	Strict bool
	// ServiceAccountDomains are the accepted domain suffixes; addresses
	// outside them only produce a warning.
	ServiceAccountDomains []string
}

// Email checks the raw email for syntactic validity and flags addresses
// that do not look like service accounts.
func Email(rawEmail string, opts EmailOptions) []credential.Finding {
	if strings.TrimSpace(rawEmail) == "" {
		return []credential.Finding{
			credential.NewError(credential.CodeMissingEmail, "no service account email was provided"),
		}
	}

	if !emailRegexp.MatchString(rawEmail) || (opts.Strict && hasDotAbuse(rawEmail)) {
		return []credential.Finding{
			credential.NewError(credential.CodeInvalidEmailFormat,
				fmt.Sprintf("%q is not a valid email address", rawEmail)).
				WithSuggestion("expected the local@domain.tld form, e.g. name@project.iam.gserviceaccount.com"),
		}
	}

	domains := opts.ServiceAccountDomains
	if len(domains) == 0 {
		domains = DefaultServiceAccountDomains()
	}

	for _, suffix := range domains {
		if strings.HasSuffix(rawEmail, suffix) {
			return nil
		}
	}

	return []credential.Finding{
		credential.NewWarning(credential.CodeNonServiceAccountEmail,
			fmt.Sprintf("%q does not end in a recognized service account domain", rawEmail)).
			WithContext("recognizedDomains", domains),
	}
}

func hasDotAbuse(email string) bool {
	local := email[:strings.LastIndex(email, "@")]

	return strings.HasPrefix(local, ".") || strings.HasSuffix(local, ".") || strings.Contains(local, "..")
}

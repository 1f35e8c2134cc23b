/*
SPDX-FileCopyrightText: 2025 the credcheck contributors

SPDX-License-Identifier: Apache-2.0
*/

package detect

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"k8s.io/klog/v2"

	"github.com/credcheck/credcheck/pkg/credential"
)

// Field name sets recognized by the detector. Order matters: the first
// present name wins, so lookups stay deterministic.
var (
	emailFieldNames = []string{
		"client_email",
		"email",
		"GOOGLE_SERVICE_ACCOUNT_EMAIL",
		"GOOGLE_CLIENT_EMAIL",
		"SERVICE_ACCOUNT_EMAIL",
	}

	keyFieldNames = []string{
		"private_key",
		"privateKey",
		"key",
		"GOOGLE_PRIVATE_KEY",
		"PRIVATE_KEY",
	}

	encodedFieldNames = []string{
		"GOOGLE_SERVICE_ACCOUNT_CREDENTIALS",
		"SERVICE_ACCOUNT_CREDENTIALS",
		"credentials_json",
	}
)

const pemBeginPrefix = "-----BEGIN "

// Extraction is the successful (or partially successful) outcome of format
// detection: the recognized shape plus the raw email and key text it carried.
type Extraction struct {
	Format   credential.Format
	RawEmail string
	RawKey   string
	Warnings []credential.Finding
}

// Detector classifies untrusted credential input into one of the supported
// shapes and extracts the raw email/key pair. It holds no per-call state.
type Detector struct {
	logger klog.Logger
}

// NewDetector creates a detector that logs via the context's logger.
func NewDetector(ctx context.Context) *Detector {
	return &Detector{logger: klog.FromContext(ctx)}
}

// Detect classifies the input and extracts the raw credential pair.
// The returned extraction is always non-nil so the caller can record the
// detected format even when extraction failed; a non-empty findings slice
// means extraction failed and the pipeline must stop.
func (d *Detector) Detect(input any) (*Extraction, []credential.Finding) {
	src := Classify(input)

	switch s := src.(type) {
	case credential.Fields:
		return d.detectFields(s)
	case credential.Text:
		return d.detectText(string(s))
	case credential.Pair:
		return d.detectPair(s)
	default:
		return d.unknown(input)
	}
}

// Classify maps an arbitrary input value onto the closed Source set.
// Unsupported values yield nil.
func Classify(input any) credential.Source {
	switch v := input.(type) {
	case credential.Fields:
		return v
	case map[string]string:
		return credential.Fields(v)
	case map[string]any:
		fields := make(credential.Fields, len(v))
		for name, value := range v {
			if s, ok := coerceString(value); ok {
				fields[name] = s
			}
		}

		return fields
	case string:
		return credential.Text(v)
	case []byte:
		return credential.Text(v)
	case credential.Text:
		return v
	case credential.Pair:
		return v
	case *credential.Pair:
		if v == nil {
			return nil
		}

		return *v
	default:
		return nil
	}
}

// detectFields handles flat mappings: environment-variable pairs, separate
// fields, and the encoded-blob variable.
func (d *Detector) detectFields(fields credential.Fields) (*Extraction, []credential.Finding) {
	encodedName, encoded := firstPresent(fields, encodedFieldNames)
	emailName, email := firstPresent(fields, emailFieldNames)
	keyName, key := firstPresent(fields, keyFieldNames)

	if encoded != "" {
		var warnings []credential.Finding

		if email != "" || key != "" {
			ignored := nonEmptyNames(emailName, keyName)
			warnings = append(warnings, credential.NewWarning(
				credential.CodeUsingEncodedVariant,
				fmt.Sprintf("both an encoded credential variable and a plain variable are set; using %s", encodedName)).
				WithContext("used", encodedName).
				WithContext("ignored", ignored))
			d.logger.V(4).Info("Preferring encoded credential variable", "used", encodedName, "ignored", ignored)
		}

		extraction, findings := d.detectBlob(encoded)
		extraction.Warnings = append(warnings, extraction.Warnings...)

		return extraction, findings
	}

	switch {
	case email != "" && key != "":
		d.logger.V(4).Info("Detected credential pair in field mapping", "emailField", emailName, "keyField", keyName)

		return &Extraction{Format: credential.FormatEnvPair, RawEmail: email, RawKey: key}, nil
	case email != "":
		return &Extraction{Format: credential.FormatEnvPair}, []credential.Finding{
			credential.NewError(credential.CodeMissingPrivateKey, "a service account email is set but no private key was found").
				WithSuggestion("set the private key variable alongside the email, or supply a full service account JSON").
				WithContext("emailField", emailName),
		}
	case key != "":
		return &Extraction{Format: credential.FormatEnvPair}, []credential.Finding{
			credential.NewError(credential.CodeMissingEmail, "a private key is set but no service account email was found").
				WithSuggestion("set the email variable alongside the key, or supply a full service account JSON").
				WithContext("keyField", keyName),
		}
	default:
		return d.unknown(fields)
	}
}

// detectText handles opaque text blobs: JSON first, then whole-blob base64.
func (d *Detector) detectText(text string) (*Extraction, []credential.Finding) {
	trimmed := strings.TrimSpace(text)

	if looksLikeJSON(trimmed) {
		return d.detectJSON(trimmed, credential.FormatJSONText)
	}

	// Raw PEM on its own cannot form a credential; there is no email to go
	// with it. Let it fall through to the unknown branch rather than
	// guessing.
	if !strings.Contains(trimmed, pemBeginPrefix) {
		if decoded, ok := decodeBase64(trimmed); ok && looksLikeJSON(strings.TrimSpace(decoded)) {
			d.logger.V(4).Info("Decoded whole-blob base64 input")

			return d.detectJSON(strings.TrimSpace(decoded), credential.FormatBase64Text)
		}
	}

	return d.unknown(text)
}

// detectJSON parses a JSON credential document and extracts both fields.
// The format parameter distinguishes plain JSON from base64-wrapped JSON.
func (d *Detector) detectJSON(text string, format credential.Format) (*Extraction, []credential.Finding) {
	var doc map[string]any
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return &Extraction{Format: format}, []credential.Finding{
			credential.NewError(credential.CodeInvalidJSON, "the credential document is not valid JSON").
				WithSuggestion("check for truncation or shell-quoting damage; re-export the service account JSON"),
		}
	}

	fields := make(credential.Fields, len(doc))
	for name, value := range doc {
		if s, ok := coerceString(value); ok {
			fields[name] = s
		}
	}

	_, email := firstPresent(fields, emailFieldNames)
	_, key := firstPresent(fields, keyFieldNames)

	if email == "" || key == "" {
		missing := []string{}
		if email == "" {
			missing = append(missing, "client_email")
		}

		if key == "" {
			missing = append(missing, "private_key")
		}

		return &Extraction{Format: format}, []credential.Finding{
			credential.NewError(credential.CodeIncompleteJSON, "the credential JSON is missing required fields").
				WithSuggestion("export the complete service account JSON including client_email and private_key").
				WithContext("missingFields", missing),
		}
	}

	return &Extraction{Format: format, RawEmail: email, RawKey: key}, nil
}

// detectBlob handles the value of an encoded credential variable, which may
// be plain JSON or base64-wrapped JSON.
func (d *Detector) detectBlob(blob string) (*Extraction, []credential.Finding) {
	trimmed := strings.TrimSpace(blob)

	if looksLikeJSON(trimmed) {
		return d.detectJSON(trimmed, credential.FormatJSONText)
	}

	if decoded, ok := decodeBase64(trimmed); ok && looksLikeJSON(strings.TrimSpace(decoded)) {
		return d.detectJSON(strings.TrimSpace(decoded), credential.FormatBase64Text)
	}

	// The variable was explicitly credential-bearing, so a blob that is
	// neither JSON nor base64-of-JSON is malformed rather than unknown.
	return &Extraction{Format: credential.FormatBase64Text}, []credential.Finding{
		credential.NewError(credential.CodeInvalidJSON, "the encoded credential variable does not contain JSON or base64-encoded JSON").
			WithSuggestion("regenerate the value, e.g. base64 -w0 < serviceaccount.json"),
	}
}

// detectPair handles the explicit object form.
func (d *Detector) detectPair(pair credential.Pair) (*Extraction, []credential.Finding) {
	switch {
	case pair.Email == "" && pair.PrivateKey == "":
		return d.unknown(pair)
	case pair.Email == "":
		return &Extraction{Format: credential.FormatObjectPair}, []credential.Finding{
			credential.NewError(credential.CodeMissingEmail, "the credential object has no email"),
		}
	case pair.PrivateKey == "":
		return &Extraction{Format: credential.FormatObjectPair}, []credential.Finding{
			credential.NewError(credential.CodeMissingPrivateKey, "the credential object has no private key"),
		}
	default:
		return &Extraction{Format: credential.FormatObjectPair, RawEmail: pair.Email, RawKey: pair.PrivateKey}, nil
	}
}

// unknown reports an unclassifiable input. The context describes the shape
// of the input (type and field names) but never its content.
func (d *Detector) unknown(input any) (*Extraction, []credential.Finding) {
	finding := credential.NewError(credential.CodeUnknownFormat, "the input does not match any supported credential format").
		WithSuggestion("supply a service account JSON, a base64-encoded JSON, or separate email and private key fields").
		WithContext("inputType", fmt.Sprintf("%T", input))

	if fields, ok := Classify(input).(credential.Fields); ok {
		names := fields.Names()
		sort.Strings(names)
		finding = finding.WithContext("fieldNames", names)
	}

	d.logger.V(4).Info("Unrecognized credential input", "inputType", fmt.Sprintf("%T", input))

	return &Extraction{Format: credential.FormatUnknown}, []credential.Finding{finding}
}

func firstPresent(fields credential.Fields, names []string) (string, string) {
	for _, name := range names {
		if value, ok := fields[name]; ok && strings.TrimSpace(value) != "" {
			return name, value
		}
	}

	return "", ""
}

func nonEmptyNames(names ...string) []string {
	out := []string{}

	for _, name := range names {
		if name != "" {
			out = append(out, name)
		}
	}

	return out
}

// decodeBase64 decodes a whole blob, tolerating embedded line breaks and
// missing padding.
func decodeBase64(s string) (string, bool) {
	compact := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == ' ' || r == '\t' {
			return -1
		}

		return r
	}, s)

	if compact == "" {
		return "", false
	}

	if decoded, err := base64.StdEncoding.DecodeString(compact); err == nil {
		return string(decoded), true
	}

	if decoded, err := base64.RawStdEncoding.DecodeString(compact); err == nil {
		return string(decoded), true
	}

	return "", false
}

func looksLikeJSON(s string) bool {
	return strings.HasPrefix(s, "{") || strings.Contains(s, `"client_email"`) || strings.Contains(s, `"private_key"`)
}

func coerceString(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	default:
		return "", false
	}
}

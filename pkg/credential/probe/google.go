/*
SPDX-FileCopyrightText: 2025 the credcheck contributors

SPDX-License-Identifier: Apache-2.0
*/

package probe

import (
	"context"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/hashicorp/go-retryablehttp"
	"k8s.io/klog/v2"

	"github.com/credcheck/credcheck/pkg/credential"
)

const (
	// DefaultTokenURL is the Google OAuth2 token endpoint.
	DefaultTokenURL = "https://oauth2.googleapis.com/token"
	// DefaultScope is requested when no scopes are configured.
	DefaultScope = "https://www.googleapis.com/auth/cloud-platform"

	jwtBearerGrantType = "urn:ietf:params:oauth:grant-type:jwt-bearer"
	assertionLifetime  = 5 * time.Minute
)

// GoogleTokenProber implements Prober against the Google OAuth2 token
// endpoint using the JWT-bearer grant.
type GoogleTokenProber struct {
	// TokenURL is the token endpoint; DefaultTokenURL when empty.
	TokenURL string
	// Scopes are the OAuth2 scopes to request; DefaultScope when empty.
	Scopes []string
	// Client is the HTTP client; a quiet retryable client when nil.
	Client *retryablehttp.Client
	// Now provides the current time for assertion claims; time.Now when nil.
	Now func() time.Time
}

var _ Prober = &GoogleTokenProber{}

// NewGoogleTokenProber returns a prober with resilient transport defaults.
func NewGoogleTokenProber(tokenURL string, scopes []string) *GoogleTokenProber {
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.Logger = nil

	return &GoogleTokenProber{
		TokenURL: tokenURL,
		Scopes:   scopes,
		Client:   client,
	}
}

// Probe signs a JWT assertion with the credential's private key and posts it
// to the token endpoint. The returned error, if any, is always an *Error.
func (p *GoogleTokenProber) Probe(ctx context.Context, cred credential.Normalized) error {
	logger := klog.FromContext(ctx)

	assertion, err := p.signAssertion(cred)
	if err != nil {
		return err
	}

	form := url.Values{}
	form.Set("grant_type", jwtBearerGrantType)
	form.Set("assertion", assertion)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, p.tokenURL(), strings.NewReader(form.Encode()))
	if err != nil {
		return &Error{Kind: KindTransportFailure, Message: "failed to build token request", Cause: err}
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client().Do(req)
	if err != nil {
		return &Error{Kind: KindTransportFailure, Message: "token endpoint unreachable", Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &Error{Kind: KindTransportFailure, Message: "failed to read token response", Cause: err}
	}

	logger.V(6).Info("Token endpoint answered", "status", resp.StatusCode)

	return classifyResponse(resp.StatusCode, body)
}

// signAssertion builds and signs the JWT-bearer assertion. Parse failures
// are classified so the caller can distinguish a mangled key from a rejected
// one.
func (p *GoogleTokenProber) signAssertion(cred credential.Normalized) (string, error) {
	block, _ := pem.Decode([]byte(cred.PrivateKeyPEM))
	if block == nil {
		return "", &Error{Kind: KindMalformedStructure, Message: "the key is not a parsable PEM block"}
	}

	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return "", &Error{Kind: KindInvalidKeyMaterial, Message: "the key material cannot be parsed as PKCS#8", Cause: err}
	}

	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.RS256, Key: key}, nil)
	if err != nil {
		return "", &Error{Kind: KindInvalidKeyMaterial, Message: "the key cannot be used for RS256 signing", Cause: err}
	}

	now := time.Now()
	if p.Now != nil {
		now = p.Now()
	}

	claims, err := json.Marshal(map[string]any{
		"iss":   cred.Email,
		"scope": strings.Join(p.scopes(), " "),
		"aud":   p.tokenURL(),
		"iat":   now.Unix(),
		"exp":   now.Add(assertionLifetime).Unix(),
	})
	if err != nil {
		return "", &Error{Kind: KindMalformedStructure, Message: "failed to encode assertion claims", Cause: err}
	}

	jws, err := signer.Sign(claims)
	if err != nil {
		return "", &Error{Kind: KindInvalidKeyMaterial, Message: "signing the assertion failed", Cause: err}
	}

	serialized, err := jws.CompactSerialize()
	if err != nil {
		return "", &Error{Kind: KindMalformedStructure, Message: "failed to serialize the assertion", Cause: err}
	}

	return serialized, nil
}

func classifyResponse(status int, body []byte) error {
	var payload struct {
		AccessToken      string `json:"access_token"`
		ErrorCode        string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}

	// The body is best-effort JSON; classification falls back to the status
	// code when it is not.
	_ = json.Unmarshal(body, &payload)

	switch {
	case status >= 200 && status < 300:
		if payload.AccessToken == "" {
			return &Error{Kind: KindNoToken, Message: "the token endpoint answered without an access token"}
		}

		return nil
	case payload.ErrorCode == "invalid_grant":
		return &Error{Kind: KindInvalidGrant, Message: describeOAuthError(payload.ErrorCode, payload.ErrorDescription)}
	case status >= 400 && status < 500:
		return &Error{Kind: KindMalformedStructure, Message: describeOAuthError(payload.ErrorCode, payload.ErrorDescription)}
	default:
		return &Error{Kind: KindTransportFailure, Message: fmt.Sprintf("the token endpoint answered with status %d", status)}
	}
}

func describeOAuthError(code, description string) string {
	switch {
	case code != "" && description != "":
		return fmt.Sprintf("the token endpoint rejected the credential: %s (%s)", code, description)
	case code != "":
		return fmt.Sprintf("the token endpoint rejected the credential: %s", code)
	default:
		return "the token endpoint rejected the credential"
	}
}

func (p *GoogleTokenProber) tokenURL() string {
	if p.TokenURL == "" {
		return DefaultTokenURL
	}

	return p.TokenURL
}

func (p *GoogleTokenProber) scopes() []string {
	if len(p.Scopes) == 0 {
		return []string{DefaultScope}
	}

	return p.Scopes
}

func (p *GoogleTokenProber) client() *retryablehttp.Client {
	if p.Client == nil {
		client := retryablehttp.NewClient()
		client.Logger = nil

		return client
	}

	return p.Client
}

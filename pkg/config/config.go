/*
SPDX-FileCopyrightText: 2025 the credcheck contributors

SPDX-License-Identifier: Apache-2.0
*/

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"sigs.k8s.io/yaml"
)

// Config holds the credcheck configuration.
type Config struct {
	// Filename is the name of the credcheck configuration file
	Filename string `json:"-"`
	// MinKeyLength is the minimum accepted private key PEM length
	// +optional
	MinKeyLength *int `json:"minKeyLength,omitempty"`
	// MaxKeyLength is the maximum expected private key PEM length
	// +optional
	MaxKeyLength *int `json:"maxKeyLength,omitempty"`
	// TestAuthentication enables the live authentication probe
	// +optional
	TestAuthentication *bool `json:"testAuthentication,omitempty"`
	// StrictMode enables stricter validation checks
	// +optional
	StrictMode *bool `json:"strictMode,omitempty"`
	// ServiceAccountDomains overrides the recognized service account domain suffixes
	// +optional
	ServiceAccountDomains []string `json:"serviceAccountDomains,omitempty"`
	// Probe holds settings for the authentication probe
	// +optional
	Probe *ProbeConfig `json:"probe,omitempty"`
}

// ProbeConfig represents authentication probe configuration options.
type ProbeConfig struct {
	// TokenURL is the identity service token endpoint
	// +optional
	TokenURL string `json:"tokenURL,omitempty"`
	// TimeoutSeconds bounds the probe call
	// +optional
	TimeoutSeconds int `json:"timeoutSeconds,omitempty"`
	// Scopes are the OAuth2 scopes requested by the probe
	// +optional
	Scopes []string `json:"scopes,omitempty"`
}

// LoadFromFile parses a credcheck config file and returns a Config struct.
// A missing file is not an error; it yields an empty config with defaults
// applied downstream.
func LoadFromFile(filename string) (*Config, error) {
	config := &Config{Filename: filename}

	if filename == "" {
		return config, nil
	}

	expanded, err := homedir.Expand(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve ~ in config path: %w", err)
	}

	f, err := os.Open(expanded) // #nosec G304 -- Accepting user-provided config file path by design
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}

		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to determine filesize: %w", err)
	}

	if stat.Size() > 0 {
		buf, err := os.ReadFile(expanded) // #nosec G304 -- Accepting user-provided config file path by design
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err = yaml.Unmarshal(buf, config); err != nil {
			return nil, fmt.Errorf("failed to decode as YAML: %w", err)
		}

		config.Filename = filename
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate rejects configurations the engine could not honor.
func (c *Config) Validate() error {
	if c.MinKeyLength != nil && *c.MinKeyLength < 0 {
		return errors.New("minKeyLength must not be negative")
	}

	if c.MaxKeyLength != nil && *c.MaxKeyLength < 0 {
		return errors.New("maxKeyLength must not be negative")
	}

	if c.MinKeyLength != nil && c.MaxKeyLength != nil && *c.MinKeyLength > *c.MaxKeyLength {
		return fmt.Errorf("minKeyLength (%d) must not exceed maxKeyLength (%d)", *c.MinKeyLength, *c.MaxKeyLength)
	}

	if c.Probe != nil && c.Probe.TimeoutSeconds < 0 {
		return errors.New("probe.timeoutSeconds must not be negative")
	}

	return nil
}

// Save writes the configuration back to its file, creating parent
// directories as needed.
func (c *Config) Save() error {
	if c.Filename == "" {
		return errors.New("the configuration has no filename")
	}

	expanded, err := homedir.Expand(c.Filename)
	if err != nil {
		return fmt.Errorf("failed to resolve ~ in config path: %w", err)
	}

	buf, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(expanded), 0o700); err != nil {
		return err
	}

	return os.WriteFile(expanded, buf, 0o600)
}

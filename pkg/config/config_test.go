/*
SPDX-FileCopyrightText: 2025 the credcheck contributors

SPDX-License-Identifier: Apache-2.0
*/

package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"k8s.io/utils/ptr"

	"github.com/credcheck/credcheck/pkg/config"
)

var _ = Describe("Config", func() {
	var configFile string

	BeforeEach(func() {
		configFile = filepath.Join(GinkgoT().TempDir(), "credcheck.yaml")
	})

	Describe("LoadFromFile", func() {
		It("should return an empty config for an empty filename", func() {
			cfg, err := config.LoadFromFile("")

			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.MinKeyLength).To(BeNil())
			Expect(cfg.Probe).To(BeNil())
		})

		It("should tolerate a missing file", func() {
			cfg, err := config.LoadFromFile(configFile)

			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Filename).To(Equal(configFile))
			Expect(cfg.MinKeyLength).To(BeNil())
		})

		It("should tolerate an empty file", func() {
			Expect(os.WriteFile(configFile, nil, 0o600)).To(Succeed())

			cfg, err := config.LoadFromFile(configFile)

			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.MinKeyLength).To(BeNil())
		})

		It("should parse a populated file", func() {
			Expect(os.WriteFile(configFile, []byte(`minKeyLength: 1000
maxKeyLength: 5000
testAuthentication: true
strictMode: false
serviceAccountDomains:
- .example.com
probe:
  tokenURL: https://token.example.com/token
  timeoutSeconds: 3
  scopes:
  - https://www.googleapis.com/auth/cloud-platform
`), 0o600)).To(Succeed())

			cfg, err := config.LoadFromFile(configFile)

			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.MinKeyLength).To(Equal(ptr.To(1000)))
			Expect(cfg.MaxKeyLength).To(Equal(ptr.To(5000)))
			Expect(cfg.TestAuthentication).To(Equal(ptr.To(true)))
			Expect(cfg.StrictMode).To(Equal(ptr.To(false)))
			Expect(cfg.ServiceAccountDomains).To(Equal([]string{".example.com"}))
			Expect(cfg.Probe).NotTo(BeNil())
			Expect(cfg.Probe.TokenURL).To(Equal("https://token.example.com/token"))
			Expect(cfg.Probe.TimeoutSeconds).To(Equal(3))
		})

		It("should reject malformed YAML", func() {
			Expect(os.WriteFile(configFile, []byte("minKeyLength: [not a number"), 0o600)).To(Succeed())

			_, err := config.LoadFromFile(configFile)

			Expect(err).To(MatchError(ContainSubstring("failed to decode as YAML")))
		})

		It("should reject invalid settings on load", func() {
			Expect(os.WriteFile(configFile, []byte("minKeyLength: -1"), 0o600)).To(Succeed())

			_, err := config.LoadFromFile(configFile)

			Expect(err).To(MatchError(ContainSubstring("minKeyLength")))
		})
	})

	Describe("Validate", func() {
		It("should accept an empty config", func() {
			Expect((&config.Config{}).Validate()).To(Succeed())
		})

		It("should reject negative lengths", func() {
			Expect((&config.Config{MinKeyLength: ptr.To(-1)}).Validate()).NotTo(Succeed())
			Expect((&config.Config{MaxKeyLength: ptr.To(-1)}).Validate()).NotTo(Succeed())
		})

		It("should reject a minimum above the maximum", func() {
			cfg := &config.Config{MinKeyLength: ptr.To(5000), MaxKeyLength: ptr.To(1000)}

			Expect(cfg.Validate()).To(MatchError(ContainSubstring("must not exceed")))
		})

		It("should reject a negative probe timeout", func() {
			cfg := &config.Config{Probe: &config.ProbeConfig{TimeoutSeconds: -1}}

			Expect(cfg.Validate()).To(MatchError(ContainSubstring("timeoutSeconds")))
		})
	})

	Describe("Save", func() {
		It("should round-trip through the file", func() {
			cfg := &config.Config{
				Filename:     configFile,
				MinKeyLength: ptr.To(1200),
				Probe:        &config.ProbeConfig{TimeoutSeconds: 7},
			}

			Expect(cfg.Save()).To(Succeed())

			loaded, err := config.LoadFromFile(configFile)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.MinKeyLength).To(Equal(ptr.To(1200)))
			Expect(loaded.Probe.TimeoutSeconds).To(Equal(7))
		})

		It("should create missing parent directories", func() {
			nested := filepath.Join(GinkgoT().TempDir(), "a", "b", "credcheck.yaml")
			cfg := &config.Config{Filename: nested, MaxKeyLength: ptr.To(4096)}

			Expect(cfg.Save()).To(Succeed())
			Expect(nested).To(BeARegularFile())
		})

		It("should refuse to save without a filename", func() {
			Expect((&config.Config{}).Save()).NotTo(Succeed())
		})
	})
})

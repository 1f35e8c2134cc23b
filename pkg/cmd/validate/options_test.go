/*
SPDX-FileCopyrightText: 2025 the credcheck contributors

SPDX-License-Identifier: Apache-2.0
*/

package validate_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"
	"k8s.io/utils/ptr"

	"github.com/credcheck/credcheck/internal/util"
	"github.com/credcheck/credcheck/pkg/cmd/validate"
	"github.com/credcheck/credcheck/pkg/config"
)

type testFactory struct {
	cfg *config.Config
}

var _ util.Factory = &testFactory{}

func (f *testFactory) Context() context.Context {
	return context.Background()
}

func (f *testFactory) Clock() util.Clock {
	return &util.RealClock{}
}

func (f *testFactory) HomeDir() string {
	return ""
}

func (f *testFactory) Configuration() (*config.Config, error) {
	if f.cfg != nil {
		return f.cfg, nil
	}

	return &config.Config{}, nil
}

var _ = Describe("Validate Command", func() {
	const email = "svc@test-project.iam.gserviceaccount.com"

	var (
		factory *testFactory
		streams util.IOStreams
		in      *util.SafeBytesBuffer
		out     *util.SafeBytesBuffer
		cmd     *cobra.Command
		tempDir string
	)

	BeforeEach(func() {
		color.NoColor = true

		factory = &testFactory{}
		streams, in, out, _ = util.NewTestIOStreams()
		cmd = validate.NewCommand(factory, validate.NewOptions(streams))
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		cmd.SetOut(out)
		cmd.SetErr(out)
		tempDir = GinkgoT().TempDir()
	})

	writeCredentialFile := func(key string) string {
		doc, err := json.Marshal(map[string]string{
			"type":         "service_account",
			"client_email": email,
			"private_key":  key,
		})
		Expect(err).NotTo(HaveOccurred())

		filename := filepath.Join(tempDir, "serviceaccount.json")
		Expect(os.WriteFile(filename, doc, 0o600)).To(Succeed())

		return filename
	}

	It("should validate a credential file", func() {
		cmd.SetArgs([]string{"--file", writeCredentialFile(testKeyPEM)})

		Expect(cmd.Execute()).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Credential validation PASSED"))
		Expect(out.String()).To(ContainSubstring("detected format: json_text"))
	})

	It("should fail with a non-zero outcome for a broken credential", func() {
		cmd.SetArgs([]string{"--file", writeCredentialFile(testKeyPEM[:300])})

		err := cmd.Execute()

		Expect(err).To(MatchError(ContainSubstring("credential validation failed")))
		Expect(out.String()).To(ContainSubstring("Credential validation FAILED"))
		Expect(out.String()).To(ContainSubstring("MISSING_END_MARKER"))
	})

	It("should emit machine-readable JSON without key material", func() {
		cmd.SetArgs([]string{"--file", writeCredentialFile(testKeyPEM), "-o", "json"})

		Expect(cmd.Execute()).To(Succeed())

		var result struct {
			Valid      bool `json:"valid"`
			Credential struct {
				Email     string `json:"email"`
				KeyLength int    `json:"keyLength"`
			} `json:"credential"`
		}
		Expect(json.Unmarshal([]byte(out.String()), &result)).To(Succeed())
		Expect(result.Valid).To(BeTrue())
		Expect(result.Credential.Email).To(Equal(email))
		Expect(result.Credential.KeyLength).To(Equal(len(testKeyPEM)))
		Expect(out.String()).NotTo(ContainSubstring("BEGIN PRIVATE KEY"))
	})

	It("should read credentials from a dotenv file", func() {
		escaped := strings.ReplaceAll(testKeyPEM, "\n", `\n`)
		envFile := filepath.Join(tempDir, ".env")
		content := fmt.Sprintf("GOOGLE_SERVICE_ACCOUNT_EMAIL=%s\nGOOGLE_PRIVATE_KEY='%s'\n", email, escaped)
		Expect(os.WriteFile(envFile, []byte(content), 0o600)).To(Succeed())

		cmd.SetArgs([]string{"--env-file", envFile})

		Expect(cmd.Execute()).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Credential validation PASSED"))
		Expect(out.String()).To(ContainSubstring("unescape_newlines"))
	})

	It("should read the credential document from standard input", func() {
		doc, err := json.Marshal(map[string]string{
			"client_email": email,
			"private_key":  testKeyPEM,
		})
		Expect(err).NotTo(HaveOccurred())

		_, err = in.Write(doc)
		Expect(err).NotTo(HaveOccurred())

		cmd.SetArgs([]string{"--stdin"})

		Expect(cmd.Execute()).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Credential validation PASSED"))
	})

	It("should reject combined credential sources", func() {
		cmd.SetArgs([]string{"--file", writeCredentialFile(testKeyPEM), "--stdin"})

		Expect(cmd.Execute()).To(MatchError(ContainSubstring("mutually exclusive")))
	})

	It("should reject negative length bounds", func() {
		cmd.SetArgs([]string{"--file", writeCredentialFile(testKeyPEM), "--min-key-length=-1"})

		Expect(cmd.Execute()).To(MatchError(ContainSubstring("must not be negative")))
	})

	It("should fail for an unreadable credential file", func() {
		cmd.SetArgs([]string{"--file", filepath.Join(tempDir, "missing.json")})

		Expect(cmd.Execute()).To(MatchError(ContainSubstring("failed to read credential file")))
	})

	Context("with a configuration file", func() {
		BeforeEach(func() {
			factory.cfg = &config.Config{MinKeyLength: ptr.To(100000)}
		})

		It("should honor configured bounds", func() {
			cmd.SetArgs([]string{"--file", writeCredentialFile(testKeyPEM)})

			err := cmd.Execute()

			Expect(err).To(MatchError(ContainSubstring("credential validation failed")))
			Expect(out.String()).To(ContainSubstring("KEY_TOO_SHORT"))
		})

		It("should let flags win over the configuration", func() {
			cmd.SetArgs([]string{"--file", writeCredentialFile(testKeyPEM), "--min-key-length", "100"})

			Expect(cmd.Execute()).To(Succeed())
			Expect(out.String()).To(ContainSubstring("Credential validation PASSED"))
		})

		It("should apply strict mode from the configuration", func() {
			factory.cfg.StrictMode = ptr.To(true)

			doc, err := json.Marshal(map[string]string{
				"client_email": "bad..local@test-project.iam.gserviceaccount.com",
				"private_key":  testKeyPEM,
			})
			Expect(err).NotTo(HaveOccurred())

			filename := filepath.Join(tempDir, "strict.json")
			Expect(os.WriteFile(filename, doc, 0o600)).To(Succeed())

			cmd.SetArgs([]string{"--file", filename})

			Expect(cmd.Execute()).To(MatchError(ContainSubstring("credential validation failed")))
			Expect(out.String()).To(ContainSubstring("INVALID_EMAIL_FORMAT"))
		})
	})
})

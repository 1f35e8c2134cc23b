/*
SPDX-FileCopyrightText: 2025 the credcheck contributors

SPDX-License-Identifier: Apache-2.0
*/

package base_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/credcheck/credcheck/internal/util"
	"github.com/credcheck/credcheck/pkg/cmd/base"
)

type recordingRunnable struct {
	base.Options

	calls       []string
	validateErr error
	runErr      error
}

func (r *recordingRunnable) Complete(_ util.Factory, _ *cobra.Command, _ []string) error {
	r.calls = append(r.calls, "complete")

	return nil
}

func (r *recordingRunnable) Validate() error {
	r.calls = append(r.calls, "validate")

	return r.validateErr
}

func (r *recordingRunnable) Run(_ util.Factory) error {
	r.calls = append(r.calls, "run")

	return r.runErr
}

var _ = Describe("Options", func() {
	var (
		streams util.IOStreams
		out     *util.SafeBytesBuffer
		options *base.Options
	)

	BeforeEach(func() {
		streams, _, out, _ = util.NewTestIOStreams()
		options = base.NewOptions(streams)
	})

	Describe("Validate", func() {
		It("should accept the empty, yaml and json formats", func() {
			for _, format := range []string{"", "yaml", "json"} {
				options.Output = format
				Expect(options.Validate()).To(Succeed())
			}
		})

		It("should reject other formats", func() {
			options.Output = "table"
			Expect(options.Validate()).NotTo(Succeed())
		})
	})

	Describe("PrintObject", func() {
		type payload struct {
			Name  string `json:"name"`
			Count int    `json:"count"`
		}

		It("should print JSON", func() {
			options.Output = "json"

			Expect(options.PrintObject(payload{Name: "x", Count: 2})).To(Succeed())
			Expect(out.String()).To(MatchJSON(`{"name": "x", "count": 2}`))
		})

		It("should print YAML", func() {
			options.Output = "yaml"

			Expect(options.PrintObject(payload{Name: "x", Count: 2})).To(Succeed())
			Expect(out.String()).To(Equal("count: 2\nname: x\n"))
		})

		It("should reject unvalidated output formats", func() {
			options.Output = "table"

			Expect(options.PrintObject(payload{})).NotTo(Succeed())
		})
	})

	Describe("WrapRunE", func() {
		var runnable *recordingRunnable

		BeforeEach(func() {
			runnable = &recordingRunnable{}
		})

		It("should complete, validate and run in order", func() {
			err := base.WrapRunE(runnable, &util.FactoryImpl{})(&cobra.Command{}, nil)

			Expect(err).NotTo(HaveOccurred())
			Expect(runnable.calls).To(Equal([]string{"complete", "validate", "run"}))
		})

		It("should stop at a validation failure", func() {
			runnable.validateErr = errors.New("invalid")

			err := base.WrapRunE(runnable, &util.FactoryImpl{})(&cobra.Command{}, nil)

			Expect(err).To(MatchError("invalid"))
			Expect(runnable.calls).To(Equal([]string{"complete", "validate"}))
		})

		It("should propagate run failures", func() {
			runnable.runErr = errors.New("boom")

			err := base.WrapRunE(runnable, &util.FactoryImpl{})(&cobra.Command{}, nil)

			Expect(err).To(MatchError("boom"))
		})
	})
})

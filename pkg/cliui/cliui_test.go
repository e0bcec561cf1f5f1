package cliui_test

import (
	"bytes"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/ragchat/pkg/cliui"
)

var _ = Describe("cliui", func() {
	DescribeTable("FormatDuration",
		func(d time.Duration, want string) {
			Expect(cliui.FormatDuration(d)).To(Equal(want))
		},
		Entry("milliseconds", 12*time.Millisecond, "12ms"),
		Entry("seconds", 3200*time.Millisecond, "3.2s"),
	)

	It("truncates to display width", func() {
		Expect(cliui.Truncate("Kirstenbosch", 20)).To(Equal("Kirstenbosch"))
		Expect(cliui.Truncate("Kirstenbosch", 6)).To(Equal("Kirst…"))
	})

	It("marks success and failure", func() {
		Expect(cliui.Mark(nil)).To(Equal(cliui.SuccessMark))
		Expect(cliui.Mark(errors.New("boom"))).To(Equal(cliui.FailMark))
	})

	It("reports the step result", func() {
		var buf bytes.Buffer
		err := cliui.Step(&buf, "Building index", func() error { return errors.New("no source") })
		Expect(err).To(MatchError("no source"))
		Expect(buf.String()).To(ContainSubstring("Building index"))
	})
})

package chunker_test

import (
	"fmt"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/ragchat/pkg/chunker"
)

// words returns n distinct words w0 w1 ... so window boundaries are visible.
func words(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("word%04d", i)
	}
	return out
}

var _ = Describe("Chunk", func() {
	It("returns no chunks for empty input", func() {
		chunks, err := chunker.Chunk("", chunker.DefaultOptions())
		Expect(err).NotTo(HaveOccurred())
		Expect(chunks).To(BeEmpty())
	})

	It("drops text at or under the minimum length", func() {
		chunks, err := chunker.Chunk("Cape Town is lovely", chunker.DefaultOptions())
		Expect(err).NotTo(HaveOccurred())
		Expect(chunks).To(BeEmpty())
	})

	It("collapses any whitespace into single spaces", func() {
		text := "Table   Mountain\n\nis a flat-topped\tmountain forming a prominent landmark overlooking Cape Town"
		chunks, err := chunker.Chunk(text, chunker.DefaultOptions())
		Expect(err).NotTo(HaveOccurred())
		Expect(chunks).To(ConsistOf("Table Mountain is a flat-topped mountain forming a prominent landmark overlooking Cape Town"))
	})

	It("emits overlapping windows of the configured size", func() {
		w := words(1000)
		chunks, err := chunker.Chunk(strings.Join(w, " "), chunker.DefaultOptions())
		Expect(err).NotTo(HaveOccurred())

		// starts at 0, 450, 900
		Expect(chunks).To(HaveLen(3))
		Expect(chunks[0]).To(Equal(strings.Join(w[0:500], " ")))
		Expect(chunks[1]).To(Equal(strings.Join(w[450:950], " ")))
		Expect(chunks[2]).To(Equal(strings.Join(w[900:1000], " ")))
	})

	It("shares exactly overlap words between consecutive full windows", func() {
		w := words(1200)
		chunks, err := chunker.Chunk(strings.Join(w, " "), chunker.DefaultOptions())
		Expect(err).NotTo(HaveOccurred())

		first := strings.Fields(chunks[0])
		second := strings.Fields(chunks[1])
		Expect(first[450:]).To(Equal(second[:50]))
	})

	It("drops a short trailing window", func() {
		w := words(455)
		// the second window holds five words, 44 characters
		chunks, err := chunker.Chunk(strings.Join(w, " "), chunker.DefaultOptions())
		Expect(err).NotTo(HaveOccurred())
		Expect(chunks).To(HaveLen(1))
	})

	It("honours custom options", func() {
		w := words(14)
		chunks, err := chunker.Chunk(strings.Join(w, " "), chunker.Options{Size: 10, Overlap: 2})
		Expect(err).NotTo(HaveOccurred())
		Expect(chunks).To(HaveLen(2))
		Expect(chunks[1]).To(Equal(strings.Join(w[8:14], " ")))
	})

	DescribeTable("fails fast on a window that does not advance",
		func(size, overlap int) {
			_, err := chunker.Chunk("anything", chunker.Options{Size: size, Overlap: overlap})
			Expect(err).To(MatchError(chunker.ErrInvalidWindow))
		},
		Entry("overlap equal to size", 50, 50),
		Entry("overlap larger than size", 10, 20),
		Entry("zero size", 0, 0),
		Entry("negative overlap", 10, -1),
	)
})

package sse

import (
	"bytes"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// chatStream is a complete chat API response as the server writes it.
const chatStream = "event: rag_results\n" +
	`data: {"sources":[{"text":"Table Mountain is a flat-topped mountain","score":0.87}]}` + "\n\n" +
	"event: message\n" +
	`data: {"content":"Table"}` + "\n\n" +
	"event: message\n" +
	`data: {"content":" Mountain"}` + "\n\n" +
	"event: done\n" +
	`data: {"chat_id":"5f0c"}` + "\n\n"

func collect(r *Reader) []*Event {
	var out []*Event
	for {
		ev, err := r.Next()
		Expect(err).NotTo(HaveOccurred())
		if ev == nil {
			return out
		}
		out = append(out, ev)
	}
}

var _ = Describe("Reader", func() {
	Describe("Next", func() {
		Context("with a chat stream", func() {
			It("yields every named event in order", func() {
				events := collect(NewReader(strings.NewReader(chatStream)))
				Expect(events).To(HaveLen(4))

				types := make([]string, len(events))
				for i, ev := range events {
					types[i] = ev.Type
				}
				Expect(types).To(Equal([]string{"rag_results", "message", "message", "done"}))
				Expect(events[1].Data).To(Equal(`{"content":"Table"}`))
				Expect(events[3].Data).To(Equal(`{"chat_id":"5f0c"}`))
			})

			It("copies the raw bytes verbatim to the tee destination", func() {
				dst := &bytes.Buffer{}
				collect(NewTeeReader(strings.NewReader(chatStream), dst))
				Expect(dst.String()).To(Equal(chatStream))
			})
		})

		Context("with field variations", func() {
			It("parses ids", func() {
				events := collect(NewReader(strings.NewReader("id: 7\ndata: x\n\n")))
				Expect(events[0].ID).To(Equal("7"))
			})

			It("joins multiple data lines with newline", func() {
				events := collect(NewReader(strings.NewReader("data: line1\ndata: line2\ndata: line3\n\n")))
				Expect(events[0].Data).To(Equal("line1\nline2\nline3"))
			})

			It("handles a data field with no space after the colon", func() {
				events := collect(NewReader(strings.NewReader("data:hello\n\n")))
				Expect(events[0].Data).To(Equal("hello"))
			})

			It("treats a data field with only a space as empty", func() {
				events := collect(NewReader(strings.NewReader("data: \n\n")))
				Expect(events).To(HaveLen(1))
				Expect(events[0].Data).To(BeEmpty())
			})

			It("ignores unknown fields and retry", func() {
				events := collect(NewReader(strings.NewReader("retry: 1000\nfoo: bar\ndata: ok\n\n")))
				Expect(events).To(HaveLen(1))
				Expect(events[0].Data).To(Equal("ok"))
			})

			It("handles a field with no colon", func() {
				events := collect(NewReader(strings.NewReader("data\n\n")))
				Expect(events).To(HaveLen(1))
				Expect(events[0].Data).To(BeEmpty())
			})
		})

		Context("with comments", func() {
			It("skips comments but still tees them", func() {
				src := ": keep-alive\nevent: message\ndata: {}\n\n"
				dst := &bytes.Buffer{}
				events := collect(NewTeeReader(strings.NewReader(src), dst))
				Expect(events).To(HaveLen(1))
				Expect(events[0].Type).To(Equal("message"))
				Expect(dst.String()).To(Equal(src))
			})
		})

		Context("edge cases", func() {
			It("returns nil on empty input", func() {
				ev, err := NewReader(strings.NewReader("")).Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev).To(BeNil())
			})

			It("returns nil on input with only blank lines", func() {
				ev, err := NewReader(strings.NewReader("\n\n\n")).Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev).To(BeNil())
			})

			It("yields the last event when the stream ends without a blank line", func() {
				events := collect(NewReader(strings.NewReader("event: done\ndata: {}")))
				Expect(events).To(HaveLen(1))
				Expect(events[0].Type).To(Equal("done"))
			})
		})
	})
})

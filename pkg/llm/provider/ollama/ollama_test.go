package ollama_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/ragchat/pkg/llm"
	"github.com/papercomputeco/ragchat/pkg/llm/provider/ollama"
)

var _ = Describe("Ollama Provider", func() {
	var (
		server   *httptest.Server
		response func(w http.ResponseWriter)
		lastBody map[string]any
	)

	BeforeEach(func() {
		lastBody = nil
		response = func(w http.ResponseWriter) {
			_, _ = io.WriteString(w, `{"model":"llama3.2","message":{"role":"assistant","content":"Robben"},"done":false}`+"\n")
			_, _ = io.WriteString(w, "\n")
			_, _ = io.WriteString(w, `{"model":"llama3.2","message":{"role":"assistant","content":" Island"},"done":false}`+"\n")
			_, _ = io.WriteString(w, `{"model":"llama3.2","message":{"role":"assistant","content":""},"done":true,"done_reason":"stop"}`+"\n")
		}
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.URL.Path).To(Equal("/api/chat"))
			Expect(json.NewDecoder(r.Body).Decode(&lastBody)).To(Succeed())
			response(w)
		}))
		DeferCleanup(server.Close)
	})

	newStreamer := func() llm.Streamer {
		return ollama.New(ollama.Config{BaseURL: server.URL})
	}

	Describe("Name", func() {
		It("returns 'ollama'", func() {
			Expect(newStreamer().Name()).To(Equal("ollama"))
		})
	})

	Describe("Stream", func() {
		It("parses NDJSON chunks until done", func() {
			temp := float32(0.2)
			s, err := newStreamer().Stream(context.Background(), &llm.ChatRequest{
				Model:       "llama3.2",
				Messages:    []llm.Message{llm.NewTextMessage(llm.RoleUser, "Which island?")},
				Temperature: &temp,
			})
			Expect(err).NotTo(HaveOccurred())
			defer s.Close()

			var text string
			for {
				c, err := s.Recv()
				if err == io.EOF {
					break
				}
				Expect(err).NotTo(HaveOccurred())
				text += c.Content
				if c.Done {
					Expect(c.StopReason).To(Equal("stop"))
				}
			}
			Expect(text).To(Equal("Robben Island"))

			Expect(lastBody["stream"]).To(BeTrue())
			Expect(lastBody["options"]).To(HaveKey("temperature"))
			Expect(lastBody["options"]).NotTo(HaveKey("num_predict"))
		})

		It("omits options when no generation parameters are set", func() {
			s, err := newStreamer().Stream(context.Background(), &llm.ChatRequest{Model: "llama3.2"})
			Expect(err).NotTo(HaveOccurred())
			s.Close()
			Expect(lastBody).NotTo(HaveKey("options"))
		})

		It("returns an error for non-200 responses", func() {
			response = func(w http.ResponseWriter) {
				w.WriteHeader(http.StatusNotFound)
				_, _ = io.WriteString(w, `{"error":"model \"nope\" not found"}`)
			}

			_, err := newStreamer().Stream(context.Background(), &llm.ChatRequest{Model: "nope"})
			Expect(err).To(MatchError(ContainSubstring(`model "nope" not found`)))
		})

		It("surfaces in-stream errors from Recv", func() {
			response = func(w http.ResponseWriter) {
				_, _ = io.WriteString(w, `{"message":{"content":"Hi"},"done":false}`+"\n")
				_, _ = io.WriteString(w, `{"error":"out of memory"}`+"\n")
			}

			s, err := newStreamer().Stream(context.Background(), &llm.ChatRequest{Model: "llama3.2"})
			Expect(err).NotTo(HaveOccurred())
			defer s.Close()

			c, err := s.Recv()
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Content).To(Equal("Hi"))

			_, err = s.Recv()
			Expect(err).To(MatchError(ContainSubstring("out of memory")))
		})

		It("fails when the body ends without a done chunk", func() {
			response = func(w http.ResponseWriter) {
				_, _ = io.WriteString(w, `{"message":{"content":"Hi"},"done":false}`+"\n")
			}

			s, err := newStreamer().Stream(context.Background(), &llm.ChatRequest{Model: "llama3.2"})
			Expect(err).NotTo(HaveOccurred())
			defer s.Close()

			_, err = s.Recv()
			Expect(err).NotTo(HaveOccurred())
			_, err = s.Recv()
			Expect(err).To(HaveOccurred())
			Expect(err).NotTo(Equal(io.EOF))
		})
	})
})

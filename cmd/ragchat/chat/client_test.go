package chatcmder

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/ragchat/api"
	"github.com/papercomputeco/ragchat/pkg/chat"
	"github.com/papercomputeco/ragchat/pkg/conversation"
	"github.com/papercomputeco/ragchat/pkg/llm"
	"github.com/papercomputeco/ragchat/pkg/sse"
)

var _ = Describe("sendTurn", func() {
	var (
		events   []chat.Event
		status   int
		received api.ChatRequest
		server   *httptest.Server
	)

	BeforeEach(func() {
		status = http.StatusOK
		events = nil
		received = api.ChatRequest{}

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			Expect(r.URL.Path).To(Equal("/api/chat"))
			Expect(json.NewDecoder(r.Body).Decode(&received)).To(Succeed())

			if status != http.StatusOK {
				w.WriteHeader(status)
				_ = json.NewEncoder(w).Encode(llm.ErrorResponse{Error: "message is required"})
				return
			}

			w.Header().Set("Content-Type", "text/event-stream")
			for _, ev := range events {
				Expect(sse.Encode(w, ev.Name, ev.Data)).To(Succeed())
			}
		}))
		DeferCleanup(server.Close)
	})

	It("collects a full turn", func() {
		events = []chat.Event{
			{Name: chat.EventRagResults, Data: chat.RagResultsPayload{Sources: []conversation.Source{{Text: "Boulders Beach penguins", Score: 0.81}}}},
			{Name: chat.EventToolResult, Data: chat.ToolResultPayload{Tool: "get_current_time", Result: "Saturday, 17 October 2026 at 10:30:05 (SAST)"}},
			{Name: chat.EventMessage, Data: chat.MessagePayload{Content: "Visit "}},
			{Name: chat.EventMessage, Data: chat.MessagePayload{Content: "Boulders."}},
			{Name: chat.EventDone, Data: chat.DonePayload{ChatID: "8a3c1f1e-6a55-4c1e-9f59-0d7e7f2b4c11"}},
		}

		var tokens []string
		var transcript bytes.Buffer
		result, err := sendTurn(context.Background(), server.Client(), server.URL, api.ChatRequest{Message: "penguins?"}, &transcript, turnHandlers{
			OnToken: func(tok string) { tokens = append(tokens, tok) },
		})
		Expect(err).NotTo(HaveOccurred())

		Expect(received.Message).To(Equal("penguins?"))
		Expect(tokens).To(Equal([]string{"Visit ", "Boulders."}))
		Expect(result.Content).To(Equal("Visit Boulders."))
		Expect(result.ChatID).To(Equal("8a3c1f1e-6a55-4c1e-9f59-0d7e7f2b4c11"))
		Expect(result.Sources).To(HaveLen(1))
		Expect(result.Tool).NotTo(BeNil())
		Expect(result.Tool.Tool).To(Equal("get_current_time"))

		Expect(transcript.String()).To(ContainSubstring("event: rag_results\n"))
		Expect(transcript.String()).To(ContainSubstring(`data: {"chat_id":"8a3c1f1e-6a55-4c1e-9f59-0d7e7f2b4c11"}`))
	})

	It("sends the chat id to continue a conversation", func() {
		events = []chat.Event{{Name: chat.EventDone, Data: chat.DonePayload{ChatID: "abc"}}}

		_, err := sendTurn(context.Background(), server.Client(), server.URL+"/", api.ChatRequest{Message: "hi", ChatID: "abc"}, nil, turnHandlers{})
		Expect(err).NotTo(HaveOccurred())
		Expect(received.ChatID).To(Equal("abc"))
	})

	It("returns the server's error event", func() {
		events = []chat.Event{
			{Name: chat.EventRagResults, Data: chat.RagResultsPayload{Sources: []conversation.Source{}}},
			{Name: chat.EventError, Data: chat.ErrorPayload{Error: "language model did not finish within 2m0s"}},
		}

		_, err := sendTurn(context.Background(), server.Client(), server.URL, api.ChatRequest{Message: "hi"}, nil, turnHandlers{})
		Expect(err).To(MatchError(ContainSubstring("language model did not finish")))
	})

	It("reports a stream that ends early", func() {
		events = []chat.Event{{Name: chat.EventMessage, Data: chat.MessagePayload{Content: "Cape"}}}

		_, err := sendTurn(context.Background(), server.Client(), server.URL, api.ChatRequest{Message: "hi"}, nil, turnHandlers{})
		Expect(err).To(MatchError(errIncompleteStream))
	})

	It("surfaces API errors", func() {
		status = http.StatusBadRequest

		_, err := sendTurn(context.Background(), server.Client(), server.URL, api.ChatRequest{Message: " "}, nil, turnHandlers{})
		Expect(err).To(MatchError(ContainSubstring("HTTP 400): message is required")))
	})
})

package chat_test

import (
	"encoding/json"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/ragchat/pkg/chat"
	"github.com/papercomputeco/ragchat/pkg/conversation"
	"github.com/papercomputeco/ragchat/pkg/llm"
	"github.com/papercomputeco/ragchat/pkg/tools"
	"github.com/papercomputeco/ragchat/pkg/vector"
)

var _ = Describe("NeedsTime", func() {
	DescribeTable("matches time keywords case-insensitively",
		func(msg string, want bool) {
			Expect(chat.NeedsTime(msg)).To(Equal(want))
		},
		Entry("time", "What TIME does the cable car open?", true),
		Entry("date", "Any events on that date?", true),
		Entry("today", "Is Boulders Beach open today?", true),
		Entry("now", "Is it windy now?", true),
		Entry("what day", "What day is the market?", true),
		Entry("no keyword", "Where can I see penguins?", false),
	)
})

var _ = Describe("BuildSystemPrompt", func() {
	It("is only the persona without sources or tools", func() {
		Expect(chat.BuildSystemPrompt(nil, nil)).To(Equal(chat.Persona))
	})

	It("enumerates sources with two-decimal similarity", func() {
		prompt := chat.BuildSystemPrompt([]vector.Result{
			{Text: "Table Mountain has a cableway.", Score: 0.8765},
			{Text: "Lion's Head is a popular hike.", Score: 0.5},
		}, nil)

		Expect(prompt).To(HavePrefix(chat.Persona))
		Expect(prompt).To(ContainSubstring("\n\nRelevant context from the knowledge base:\n"))
		Expect(prompt).To(ContainSubstring("\n[Source 1] (similarity: 0.88):\nTable Mountain has a cableway.\n"))
		Expect(prompt).To(ContainSubstring("\n[Source 2] (similarity: 0.50):\nLion's Head is a popular hike.\n"))
		Expect(prompt).NotTo(ContainSubstring("tools"))
	})

	It("lists the tools and the time instruction", func() {
		prompt := chat.BuildSystemPrompt(nil, tools.DefaultCatalog())
		Expect(prompt).To(ContainSubstring("\n\nYou also have access to these tools:\n- get_current_time: "))
		Expect(prompt).To(ContainSubstring("- get_timezone_info: "))
		Expect(prompt).To(HaveSuffix("\nIf the user asks for current time or date, use the information provided."))
	})
})

var _ = Describe("BuildMessages", func() {
	It("places the tool message between history and the user message", func() {
		result := "Saturday, 17 October 2026 at 10:30:05 (SAST)"
		msgs := chat.BuildMessages("sys", []conversation.Message{
			{Role: conversation.RoleUser, Content: "hi"},
			{Role: conversation.RoleAssistant, Content: "hello"},
		}, &result, "what time is it?")

		Expect(msgs).To(Equal([]llm.Message{
			{Role: llm.RoleSystem, Content: "sys"},
			{Role: llm.RoleUser, Content: "hi"},
			{Role: llm.RoleAssistant, Content: "hello"},
			{Role: llm.RoleSystem, Content: "Current time information: " + result},
			{Role: llm.RoleUser, Content: "what time is it?"},
		}))
	})
})

var _ = Describe("Previews", func() {
	It("truncates to 200 characters and encodes empty input as an empty array", func() {
		p := chat.Previews([]vector.Result{{Text: strings.Repeat("x", 300), Score: 0.4}})
		Expect(p[0].Text).To(HaveLen(200))
		Expect(p[0].Score).To(Equal(0.4))

		raw, err := json.Marshal(chat.RagResultsPayload{Sources: chat.Previews(nil)})
		Expect(err).NotTo(HaveOccurred())
		Expect(string(raw)).To(Equal(`{"sources":[]}`))
	})
})

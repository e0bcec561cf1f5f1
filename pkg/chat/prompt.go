package chat

import (
	"fmt"
	"strings"

	"github.com/papercomputeco/ragchat/pkg/conversation"
	"github.com/papercomputeco/ragchat/pkg/llm"
	"github.com/papercomputeco/ragchat/pkg/tools"
	"github.com/papercomputeco/ragchat/pkg/vector"
)

// Persona opens every system prompt.
const Persona = `You are a helpful assistant that specializes in Cape Town and the Western Cape region of South Africa.
You have access to a knowledge base about tourism, attractions, restaurants, wine regions, and local experiences.

Use the provided context to answer questions accurately. If the context doesn't contain relevant information,
you can still help but mention that you're drawing from general knowledge.

Be friendly and conversational, like a local guide sharing their knowledge about the area.`

// timeKeywords trigger the current time tool. Matching is a plain
// case-insensitive substring test, so "now" also matches "know".
var timeKeywords = []string{"time", "date", "today", "now", "what day"}

// NeedsTime reports whether msg asks about the current time or date.
func NeedsTime(msg string) bool {
	lower := strings.ToLower(msg)
	for _, kw := range timeKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// BuildSystemPrompt renders the persona followed by the retrieved sources
// and the tool catalog, each only when present.
func BuildSystemPrompt(sources []vector.Result, catalog tools.Catalog) string {
	var b strings.Builder
	b.WriteString(Persona)

	if len(sources) > 0 {
		b.WriteString("\n\nRelevant context from the knowledge base:\n")
		for i, s := range sources {
			fmt.Fprintf(&b, "\n[Source %d] (similarity: %.2f):\n%s\n", i+1, s.Score, s.Text)
		}
	}

	if len(catalog) > 0 {
		b.WriteString("\n\nYou also have access to these tools:\n")
		for _, t := range catalog {
			fmt.Fprintf(&b, "- %s: %s\n", t.Name, t.Description)
		}
		b.WriteString("\nIf the user asks for current time or date, use the information provided.")
	}

	return b.String()
}

// TimeMessage wraps a tool result as a system message.
func TimeMessage(result string) llm.Message {
	return llm.NewTextMessage(llm.RoleSystem, "Current time information: "+result)
}

// BuildMessages assembles the prompt: system prompt, history (oldest
// first), the optional tool message, then the user message.
func BuildMessages(system string, history []conversation.Message, toolResult *string, user string) []llm.Message {
	msgs := make([]llm.Message, 0, len(history)+3)
	msgs = append(msgs, llm.NewTextMessage(llm.RoleSystem, system))

	for _, m := range history {
		msgs = append(msgs, llm.NewTextMessage(m.Role, m.Content))
	}

	if toolResult != nil {
		msgs = append(msgs, TimeMessage(*toolResult))
	}

	return append(msgs, llm.NewTextMessage(llm.RoleUser, user))
}

// Previews truncates sources for the wire and for storage. The result is
// never nil so it encodes as [].
func Previews(sources []vector.Result) []conversation.Source {
	out := make([]conversation.Source, 0, len(sources))
	for _, s := range sources {
		out = append(out, conversation.Source{Text: conversation.Preview(s.Text), Score: s.Score})
	}
	return out
}

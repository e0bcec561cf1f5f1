// Package conversation defines chat records and the Store that persists them.
package conversation

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/ragchat/pkg/utils"
)

const (
	// DefaultTitle is used for records created without a title.
	DefaultTitle = "New Chat"

	// TitleLength is how many characters of the first message become the title.
	TitleLength = 50

	// PreviewLength is how many characters of a source are kept in a message.
	PreviewLength = 200
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ErrInvalidID is returned when an id is not a UUID.
var ErrInvalidID = errors.New("invalid conversation id")

// Source is a retrieved passage attached to an assistant message.
type Source struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// Message is one entry of a conversation. Messages are append-only.
type Message struct {
	Role       string    `json:"role"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
	RagSources []Source  `json:"rag_sources,omitempty"`
}

// Record is a persisted conversation.
type Record struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	Messages  []Message `json:"messages"`
}

// Summary describes a record without its messages.
type Summary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"created_at"`
	MessageCount int       `json:"message_count"`
}

// Store persists conversation records.
type Store interface {
	// Create starts an empty record. An empty title becomes DefaultTitle.
	Create(ctx context.Context, title string) (*Record, error)

	// Get returns the record for id, or a NotFoundError.
	Get(ctx context.Context, id string) (*Record, error)

	// Append adds msg to the record for id, creating a DefaultTitle record
	// first if none exists. Concurrent appends to one id are serialised.
	Append(ctx context.Context, id string, msg Message) error

	// List returns summaries of all records, newest first.
	List(ctx context.Context) ([]Summary, error)

	// Delete removes the record for id, or returns a NotFoundError.
	Delete(ctx context.Context, id string) error

	Close() error
}

// NewRecord returns an empty record with a fresh id.
func NewRecord(title string, now time.Time) *Record {
	if strings.TrimSpace(title) == "" {
		title = DefaultTitle
	}
	return &Record{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: now,
		Messages:  []Message{},
	}
}

// TitleFromMessage derives a record title from the first user message.
func TitleFromMessage(msg string) string {
	return utils.Truncate(msg, TitleLength)
}

// Preview shortens a retrieved passage for storage alongside a message.
func Preview(text string) string {
	return utils.Prefix(text, PreviewLength)
}

// ValidateID reports ErrInvalidID unless id parses as a UUID.
func ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidID
	}
	return nil
}

// Summarize builds the summary of r.
func (r *Record) Summarize() Summary {
	return Summary{
		ID:           r.ID,
		Title:        r.Title,
		CreatedAt:    r.CreatedAt,
		MessageCount: len(r.Messages),
	}
}

// SortSummaries orders summaries newest first, breaking ties by id.
func SortSummaries(s []Summary) {
	slices.SortStableFunc(s, func(a, b Summary) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

// History returns at most the last n messages of r, oldest first.
func (r *Record) History(n int) []Message {
	if n <= 0 {
		return nil
	}
	if len(r.Messages) <= n {
		return r.Messages
	}
	return r.Messages[len(r.Messages)-n:]
}

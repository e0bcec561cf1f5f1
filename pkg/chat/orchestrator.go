// Package chat runs one retrieval-augmented chat turn and reports its
// progress as an ordered stream of events.
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/papercomputeco/ragchat/pkg/conversation"
	"github.com/papercomputeco/ragchat/pkg/eventstream"
	"github.com/papercomputeco/ragchat/pkg/eventstream/nop"
	"github.com/papercomputeco/ragchat/pkg/llm"
	"github.com/papercomputeco/ragchat/pkg/logger"
	"github.com/papercomputeco/ragchat/pkg/tools"
	"github.com/papercomputeco/ragchat/pkg/vector"
)

const (
	// DefaultHistoryLimit is how many prior messages reach the prompt.
	DefaultHistoryLimit = 10

	DefaultTemperature float32 = 0.7
	DefaultMaxTokens           = 1024
	DefaultLLMTimeout          = 2 * time.Minute
)

// Searcher returns the chunks most relevant to a query.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]vector.Result, error)
}

// ToolInvoker calls an auxiliary tool. Failures are reported in the Result.
type ToolInvoker interface {
	Invoke(ctx context.Context, tool string, params map[string]any) tools.Result
}

// Config wires an Orchestrator to its collaborators.
type Config struct {
	Searcher Searcher
	Streamer llm.Streamer
	Store    conversation.Store

	// Tools may be nil, and Catalog empty, to disable tool enrichment.
	Tools   ToolInvoker
	Catalog tools.Catalog

	// Publisher defaults to a no-op publisher.
	Publisher eventstream.Publisher

	Model string

	// Temperature zero means DefaultTemperature.
	Temperature float32
	MaxTokens   int
	TopK        int

	HistoryLimit int
	LLMTimeout   time.Duration

	Logger *slog.Logger
	Now    func() time.Time
}

// Turn is one user message to answer.
type Turn struct {
	ChatID  string
	Message string

	// History is the conversation so far, oldest first, without Message.
	History []conversation.Message
}

// Orchestrator runs chat turns.
type Orchestrator struct {
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

// New creates an Orchestrator, filling defaults into cfg.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Streamer == nil {
		return nil, errors.New("chat orchestrator requires a streamer")
	}
	if cfg.Store == nil {
		return nil, errors.New("chat orchestrator requires a conversation store")
	}

	if cfg.Publisher == nil {
		cfg.Publisher = nop.NewPublisher()
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = DefaultHistoryLimit
	}
	if cfg.LLMTimeout <= 0 {
		cfg.LLMTimeout = DefaultLLMTimeout
	}

	o := &Orchestrator{cfg: cfg, logger: cfg.Logger, now: cfg.Now}
	if o.logger == nil {
		o.logger = logger.Nop()
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o, nil
}

// Run starts the turn and returns its events. The channel is closed after
// a done or error event, or as soon as ctx ends. Every send selects on ctx,
// so a consumer that stops reading only needs to cancel ctx.
//
// The assistant message is persisted before done is sent. It is never
// persisted when the turn fails or ctx is cancelled.
func (o *Orchestrator) Run(ctx context.Context, turn Turn) <-chan Event {
	out := make(chan Event)
	go func() {
		defer close(out)
		o.run(ctx, turn, out)
	}()
	return out
}

type emitter struct {
	ctx context.Context
	out chan<- Event
}

// send reports false once ctx has ended.
func (e emitter) send(name string, data any) bool {
	select {
	case e.out <- Event{Name: name, Data: data}:
		return true
	case <-e.ctx.Done():
		return false
	}
}

func (o *Orchestrator) run(ctx context.Context, turn Turn, out chan<- Event) {
	started := o.now()
	emit := emitter{ctx: ctx, out: out}
	log := o.logger.With("chat_id", turn.ChatID)

	fail := func(err error) {
		if ctx.Err() != nil {
			log.Debug("chat turn abandoned", "error", err)
			return
		}
		log.Error("chat turn failed", "error", err)
		emit.send(EventError, ErrorPayload{Error: err.Error()})
	}

	sources := o.retrieve(ctx, turn.Message, log)
	previews := Previews(sources)

	var toolResult *tools.Result
	if o.toolsEnabled() && NeedsTime(turn.Message) {
		res := o.cfg.Tools.Invoke(ctx, tools.CurrentTime, nil)
		if res.Ok() {
			toolResult = &res
		}
	}

	var toolValue *string
	if toolResult != nil {
		toolValue = &toolResult.Value
	}

	history := historyTail(turn.History, o.cfg.HistoryLimit)
	req := &llm.ChatRequest{
		Model:       o.cfg.Model,
		Messages:    BuildMessages(BuildSystemPrompt(sources, o.cfg.Catalog), history, toolValue, turn.Message),
		Temperature: &o.cfg.Temperature,
		MaxTokens:   &o.cfg.MaxTokens,
	}

	if !emit.send(EventRagResults, RagResultsPayload{Sources: previews}) {
		return
	}
	if toolResult != nil {
		if !emit.send(EventToolResult, ToolResultPayload{Tool: toolResult.Tool, Result: toolResult.Value}) {
			return
		}
	}

	full, err := o.stream(ctx, req, emit)
	if err != nil {
		fail(err)
		return
	}
	if ctx.Err() != nil {
		log.Debug("chat turn abandoned before persistence")
		return
	}

	msg := conversation.Message{
		Role:       conversation.RoleAssistant,
		Content:    full,
		Timestamp:  o.now().UTC(),
		RagSources: previews,
	}
	if err := o.cfg.Store.Append(ctx, turn.ChatID, msg); err != nil {
		fail(fmt.Errorf("saving assistant message: %w", err))
		return
	}

	completed := o.now()
	o.publish(ctx, turn, full, previews, toolResult, started, completed, log)

	log.Info("chat turn completed",
		"sources", len(previews),
		"tool", toolResult != nil,
		"response_len", len(full),
		"duration", completed.Sub(started),
	)

	emit.send(EventDone, DonePayload{ChatID: turn.ChatID})
}

// retrieve degrades to no context when the search fails.
func (o *Orchestrator) retrieve(ctx context.Context, query string, log *slog.Logger) []vector.Result {
	if o.cfg.Searcher == nil {
		return nil
	}

	results, err := o.cfg.Searcher.Search(ctx, query, o.cfg.TopK)
	if err != nil {
		log.Warn("retrieval failed, continuing without context", "error", err)
		return nil
	}
	return results
}

func (o *Orchestrator) toolsEnabled() bool {
	return o.cfg.Tools != nil && len(o.cfg.Catalog) > 0
}

// stream forwards every non-empty fragment as a message event and returns
// the concatenated response. A cancelled ctx ends streaming with ctx.Err().
func (o *Orchestrator) stream(ctx context.Context, req *llm.ChatRequest, emit emitter) (string, error) {
	llmCtx, cancel := context.WithTimeout(ctx, o.cfg.LLMTimeout)
	defer cancel()

	s, err := o.cfg.Streamer.Stream(llmCtx, req)
	if err != nil {
		return "", o.streamError(ctx, llmCtx, err)
	}
	defer s.Close()

	var full strings.Builder
	for {
		chunk, err := s.Recv()
		if errors.Is(err, io.EOF) {
			return full.String(), nil
		}
		if err != nil {
			return "", o.streamError(ctx, llmCtx, err)
		}

		if chunk.Content == "" {
			continue
		}
		full.WriteString(chunk.Content)

		if !emit.send(EventMessage, MessagePayload{Content: chunk.Content}) {
			return "", ctx.Err()
		}
	}
}

// streamError names timeouts of the model call itself; the caller's own
// cancellation is passed through untouched.
func (o *Orchestrator) streamError(ctx, llmCtx context.Context, err error) error {
	if ctx.Err() == nil && errors.Is(llmCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("language model did not finish within %s", o.cfg.LLMTimeout)
	}
	return fmt.Errorf("%s: %w", o.cfg.Streamer.Name(), err)
}

func (o *Orchestrator) publish(
	ctx context.Context,
	turn Turn,
	full string,
	sources []conversation.Source,
	toolResult *tools.Result,
	started, completed time.Time,
	log *slog.Logger,
) {
	t := eventstream.Turn{
		UserMessage:      turn.Message,
		AssistantMessage: full,
		Sources:          sources,
	}
	if toolResult != nil {
		t.Tool = &eventstream.ToolCall{
			Name:   toolResult.Tool,
			Result: toolResult.Value,
			Status: toolResult.Status.String(),
		}
	}

	ev := eventstream.NewTurnCompletedEvent(turn.ChatID, eventstream.EventSource{
		Service:  "ragchat",
		Provider: o.cfg.Streamer.Name(),
		Model:    o.cfg.Model,
	}, started, completed, t)

	if err := o.cfg.Publisher.PublishTurn(ctx, ev); err != nil {
		log.Warn("publishing turn event failed", "event_id", ev.EventID, "error", err)
	}
}

func historyTail(history []conversation.Message, n int) []conversation.Message {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}

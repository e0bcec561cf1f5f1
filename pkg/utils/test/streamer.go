package testutils

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/papercomputeco/ragchat/pkg/llm"
)

// MockStreamer is a test llm.Streamer that replays Tokens.
type MockStreamer struct {
	Tokens []string

	// StartErr is returned by Stream before any token.
	StartErr error

	// RecvErr is returned by Recv once Tokens are exhausted.
	RecvErr error

	// Block makes Recv wait for the context to end once Tokens are
	// exhausted, then return the context error.
	Block bool

	mu       sync.Mutex
	requests []*llm.ChatRequest
	closed   atomic.Int32
}

func NewMockStreamer(tokens ...string) *MockStreamer {
	return &MockStreamer{Tokens: tokens}
}

func (m *MockStreamer) Name() string {
	return "mock"
}

func (m *MockStreamer) Stream(ctx context.Context, req *llm.ChatRequest) (llm.Stream, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.StartErr != nil {
		return nil, m.StartErr
	}

	return &mockStream{ctx: ctx, parent: m}, nil
}

// Requests returns every request passed to Stream, in order.
func (m *MockStreamer) Requests() []*llm.ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*llm.ChatRequest(nil), m.requests...)
}

// Closed returns how many streams have been closed.
func (m *MockStreamer) Closed() int {
	return int(m.closed.Load())
}

type mockStream struct {
	ctx    context.Context
	parent *MockStreamer
	next   int
}

func (s *mockStream) Recv() (*llm.StreamChunk, error) {
	if err := s.ctx.Err(); err != nil {
		return nil, err
	}

	if s.next < len(s.parent.Tokens) {
		tok := s.parent.Tokens[s.next]
		s.next++
		return &llm.StreamChunk{Content: tok}, nil
	}

	if s.parent.RecvErr != nil {
		return nil, s.parent.RecvErr
	}

	if s.parent.Block {
		<-s.ctx.Done()
		return nil, s.ctx.Err()
	}

	return nil, io.EOF
}

func (s *mockStream) Close() error {
	s.parent.closed.Add(1)
	return nil
}

package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/agentloop/agentloop/core"
)

// MockBackend is a lightweight in-memory Backend useful for tests and
// examples. Responses and event streams are scripted in FIFO order; when
// nothing is scripted, a canned text response echoing the last user message
// is produced. All incoming requests are recorded for inspection.
type MockBackend struct {
	mu        sync.Mutex
	responses []*Response
	streams   [][]StreamEvent
	err       error
	requests  []Request
}

// NewMockBackend constructs an empty MockBackend.
func NewMockBackend() *MockBackend {
	return &MockBackend{}
}

// EnqueueResponse scripts the next one-shot response.
func (m *MockBackend) EnqueueResponse(resp *Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
}

// EnqueueStream scripts the next streamed event sequence.
func (m *MockBackend) EnqueueStream(events ...StreamEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.streams = append(m.streams, events)
}

// FailWith makes every subsequent Call and Stream fail with err.
func (m *MockBackend) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Requests returns a copy of all requests received so far.
func (m *MockBackend) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	reqs := make([]Request, len(m.requests))
	copy(reqs, m.requests)
	return reqs
}

// Call implements Backend.
func (m *MockBackend) Call(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	if len(m.responses) > 0 {
		resp := m.responses[0]
		m.responses = m.responses[1:]
		return resp, nil
	}
	return m.defaultResponse(req), nil
}

// Stream implements Backend.
func (m *MockBackend) Stream(ctx context.Context, req Request) (<-chan StreamEvent, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	if m.err != nil {
		m.mu.Unlock()
		return nil, m.err
	}
	var events []StreamEvent
	if len(m.streams) > 0 {
		events = m.streams[0]
		m.streams = m.streams[1:]
	} else {
		resp := m.defaultResponse(req)
		events = []StreamEvent{
			TextDeltaEvent{Text: textOf(resp)},
			FinishEvent{Reason: resp.FinishReason, Usage: resp.Usage},
		}
	}
	m.mu.Unlock()

	out := make(chan StreamEvent, len(events))
	go func() {
		defer close(out)
		for _, ev := range events {
			select {
			case <-ctx.Done():
				return
			case out <- ev:
			}
		}
	}()
	return out, nil
}

// defaultResponse synthesizes a canned text answer echoing the last user
// message of the request.
func (m *MockBackend) defaultResponse(req Request) *Response {
	var lastUser string
	for _, msg := range req.Messages {
		if msg.Role == core.RoleUser {
			lastUser = msg.Text()
		}
	}
	return &Response{
		Blocks:       []core.ContentBlock{core.TextBlock{Text: fmt.Sprintf("Mock response to: %s", lastUser)}},
		FinishReason: FinishStop,
	}
}

// textOf concatenates the text blocks of a response.
func textOf(resp *Response) string {
	var text string
	for _, b := range resp.Blocks {
		if tb, ok := b.(core.TextBlock); ok {
			text += tb.Text
		}
	}
	return text
}

package core

import (
	"sync"
	"time"
)

// Status describes the lifecycle state of a session.
//
// Transitions: idle -> running -> {completed, error}. A completed or errored
// session re-enters running when a new invocation continues it.
type Status string

const (
	// StatusIdle marks a session created but never run.
	StatusIdle Status = "idle"
	// StatusRunning marks a session with an invocation in flight.
	StatusRunning Status = "running"
	// StatusCompleted marks a session whose last run finished, including
	// soft exhaustion of the step budget.
	StatusCompleted Status = "completed"
	// StatusError marks a session whose last run ended with a backend fault.
	StatusError Status = "error"
)

// Session is an ordered, append-only conversation transcript. It is safe for
// concurrent access.
//
// Contract:
//   - Messages are only ever appended; never reordered or deleted
//   - Mutations update the Updated timestamp
//   - GetMessages returns a defensive copy to avoid external mutation
//   - Clone performs deep copies of slices for safe divergence
//
// A session must not be passed to two concurrent invocations; callers (or
// the runner package) are responsible for serializing runs per session.
type Session struct {
	ID           string    `json:"id"`
	Messages     []Message `json:"messages"`
	Status       Status    `json:"status"`
	Model        string    `json:"model"`
	SystemPrompt string    `json:"system_prompt"`
	Created      time.Time `json:"created"`
	Updated      time.Time `json:"updated"`
	mu           sync.RWMutex
}

// NewSession creates an idle session with the given id.
func NewSession(id string) *Session {
	now := time.Now().UTC()
	return &Session{ID: id, Messages: []Message{}, Status: StatusIdle, Created: now, Updated: now}
}

// AppendMessage appends a message to the transcript updating the Updated
// timestamp. Appending is the only structural mutation a session supports.
func (s *Session) AppendMessage(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Messages = append(s.Messages, msg)
	s.Updated = time.Now().UTC()
}

// SetStatus records a lifecycle transition.
func (s *Session) SetStatus(status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Status = status
	s.Updated = time.Now().UTC()
}

// ResolveDefaults fills in the session's model id and system prompt from the
// given defaults when the session does not override them, and returns the
// resolved pair.
func (s *Session) ResolveDefaults(model, systemPrompt string) (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Model == "" {
		s.Model = model
	}
	if s.SystemPrompt == "" {
		s.SystemPrompt = systemPrompt
	}
	return s.Model, s.SystemPrompt
}

// GetStatus returns the current lifecycle state.
func (s *Session) GetStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status
}

// GetMessages returns a copy of the transcript to prevent callers from
// mutating internal state.
func (s *Session) GetMessages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	messages := make([]Message, len(s.Messages))
	copy(messages, s.Messages)
	return messages
}

// Len returns the number of messages in the transcript.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.Messages)
}

// LastMessage returns the most recent message and whether one exists.
func (s *Session) LastMessage() (Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// Clone returns a deep copy of the session safe for independent mutation.
func (s *Session) Clone() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	clone := &Session{
		ID:           s.ID,
		Messages:     make([]Message, len(s.Messages)),
		Status:       s.Status,
		Model:        s.Model,
		SystemPrompt: s.SystemPrompt,
		Created:      s.Created,
		Updated:      s.Updated,
	}
	copy(clone.Messages, s.Messages)
	return clone
}

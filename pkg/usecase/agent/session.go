package agent

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/pokecopilot/pkg/model"
)

// Session is one conversation: an ordered, append-only turn history tied
// to an opaque session ID. The mutex serializes concurrent /ai calls for
// the same session so the history stays a strict human/assistant
// alternation in call-completion order.
type Session struct {
	id    model.SessionID
	agent *Agent

	mu       sync.Mutex
	history  []*model.Turn
	lastUsed time.Time
}

// ID returns the session identifier
func (s *Session) ID() model.SessionID {
	return s.id
}

// Ask runs the agent for one prompt and, on success, appends the
// human/assistant pair to the history. Failed runs leave the history
// untouched.
func (s *Session) Ask(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastUsed = time.Now()

	answer, err := s.agent.Run(ctx, prompt, s.history)
	if err != nil {
		return "", err
	}

	s.history = append(s.history, model.NewHumanTurn(prompt), model.NewAssistantTurn(answer))
	return answer, nil
}

// History returns a snapshot of the turn history
func (s *Session) History() []*model.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*model.Turn, len(s.history))
	copy(out, s.history)
	return out
}

// SessionRegistry maps session IDs to their sessions. Sessions live until
// process exit unless idle pruning is enabled; the unbounded default
// mirrors the demo traffic assumption and is the documented growth risk.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[model.SessionID]*Session
	agent    *Agent
}

// NewSessionRegistry creates a registry whose sessions share one agent
func NewSessionRegistry(agent *Agent) *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[model.SessionID]*Session),
		agent:    agent,
	}
}

// GetOrCreate returns the session for the given ID, creating it on first
// reference.
func (r *SessionRegistry) GetOrCreate(id model.SessionID) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok {
		return s
	}

	s := &Session{
		id:       id,
		agent:    r.agent,
		lastUsed: time.Now(),
	}
	r.sessions[id] = s
	return s
}

// Len returns the number of live sessions
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// PruneIdle drops sessions idle for longer than ttl and reports how many
// were removed.
func (r *SessionRegistry) PruneIdle(ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, s := range r.sessions {
		s.mu.Lock()
		idle := s.lastUsed.Before(cutoff)
		s.mu.Unlock()

		if idle {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

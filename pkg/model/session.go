package model

import (
	"github.com/google/uuid"
	"google.golang.org/genai"
)

// SessionID is the opaque identifier a client sends with each /ai call.
type SessionID string

// NewSessionID generates a fresh session ID for clients that did not
// supply one.
func NewSessionID() SessionID {
	return SessionID(uuid.New().String())
}

// Turn is one persisted conversation turn. Tool calls and their results
// never become turns; only the final human/assistant pair of each
// completed request does.
type Turn = genai.Content

// NewHumanTurn builds a user turn.
func NewHumanTurn(text string) *Turn {
	return genai.NewContentFromText(text, genai.RoleUser)
}

// NewAssistantTurn builds a model turn.
func NewAssistantTurn(text string) *Turn {
	return genai.NewContentFromText(text, genai.RoleModel)
}

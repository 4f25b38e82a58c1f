package models

import (
	"errors"
	"strings"
)

// ErrEmptyMessage is returned when a chat request carries no message.
var ErrEmptyMessage = errors.New("message cannot be empty")

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// Validate rejects missing, empty, and whitespace-only messages.
func (r *ChatRequest) Validate() error {
	if strings.TrimSpace(r.Message) == "" {
		return ErrEmptyMessage
	}
	return nil
}

// ChatResponse is the success body of POST /chat.
type ChatResponse struct {
	Response string `json:"response"`
}

// ConversationTurn is one question/answer exchange. It is never persisted.
type ConversationTurn struct {
	UserQuery       string   `json:"user_query"`
	RetrievedChunks []string `json:"retrieved_chunks"`
	GeneratedAnswer string   `json:"generated_answer"`
	// Grounded is false when no context was found and the fixed fallback answer was used.
	Grounded bool `json:"grounded"`
}

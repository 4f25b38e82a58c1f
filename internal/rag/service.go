package rag

import (
	"context"
	"errors"

	"github.com/hyperjump/arka/internal/generation"
	"github.com/hyperjump/arka/internal/models"
	"go.uber.org/zap"
)

// ErrGeneration is returned when the generator fails. Details are only logged.
var ErrGeneration = errors.New("answer generation failed")

// ContextRetriever returns grounding documents for a query.
type ContextRetriever interface {
	Retrieve(ctx context.Context, query string, topK int) []string
}

// ServiceOption configures a ChatService.
type ServiceOption func(*ChatService)

// WithServiceLogger sets the logger for generation failures.
func WithServiceLogger(l *zap.Logger) ServiceOption {
	return func(s *ChatService) { s.logger = l }
}

// WithTopK sets how many chunks are retrieved per question.
func WithTopK(k int) ServiceOption {
	return func(s *ChatService) {
		if k > 0 {
			s.topK = k
		}
	}
}

// ChatService answers questions grounded on retrieved context.
type ChatService struct {
	retriever ContextRetriever
	generator generation.Generator
	topK      int
	logger    *zap.Logger
}

// NewChatService creates a chat service.
func NewChatService(retriever ContextRetriever, generator generation.Generator, opts ...ServiceOption) *ChatService {
	s := &ChatService{retriever: retriever, generator: generator, topK: DefaultTopK}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Answer retrieves context for query and generates a grounded answer. With no
// context the fixed NoInformationMessage is returned and the generator is not called.
func (s *ChatService) Answer(ctx context.Context, query string) (*models.ConversationTurn, error) {
	turn := &models.ConversationTurn{UserQuery: query}
	docs := s.retriever.Retrieve(ctx, query, s.topK)
	if len(docs) == 0 {
		turn.GeneratedAnswer = NoInformationMessage
		return turn, nil
	}
	turn.RetrievedChunks = docs

	answer, err := s.generator.Generate(ctx, BuildPrompt(JoinContext(docs), query))
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to generate answer", zap.Int("context_documents", len(docs)), zap.Error(err))
		}
		return nil, ErrGeneration
	}
	turn.GeneratedAnswer = answer
	turn.Grounded = true
	return turn, nil
}

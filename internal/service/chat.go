package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pote-app/pote-backend/internal/assistant"
	"github.com/pote-app/pote-backend/internal/domain"
	"github.com/pote-app/pote-backend/internal/logging"
)

type messageRepo interface {
	Create(ctx context.Context, msg *domain.ChatMessage) error
	GetByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.ChatMessage, int, error)
}

type entryRecorder interface {
	RecordEntry(ctx context.Context, userID uuid.UUID, req EntryRequest) (*domain.LedgerEntry, int64, error)
}

// ChatReply is the API-facing result of one user message: the assistant's
// answer plus the ledger entry it produced, if any.
type ChatReply struct {
	UserMessage      domain.ChatMessage
	AssistantMessage domain.ChatMessage
	Entry            *domain.LedgerEntry
	NewBalance       int64
}

type ChatService struct {
	classifier assistant.Classifier
	messages   messageRepo
	profiles   profileRepo
	ledger     entryRecorder
}

func NewChatService(classifier assistant.Classifier, messages messageRepo, profiles profileRepo, ledger entryRecorder) *ChatService {
	return &ChatService{
		classifier: classifier,
		messages:   messages,
		profiles:   profiles,
		ledger:     ledger,
	}
}

func (s *ChatService) SendMessage(ctx context.Context, userID uuid.UUID, text string) (*ChatReply, error) {
	log := logging.FromContext(ctx)

	if text == "" {
		return nil, fmt.Errorf("SendMessage: %w", domain.ErrInvalidRequest)
	}

	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("SendMessage: %w", err)
	}

	userMsg := domain.ChatMessage{
		ID:        uuid.New(),
		UserID:    userID,
		Sender:    domain.MessageSenderUser,
		Body:      text,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.messages.Create(ctx, &userMsg); err != nil {
		return nil, fmt.Errorf("SendMessage: store user message: %w", err)
	}

	extraction, err := s.classifier.Classify(ctx, text, profile.Balance, profile.Currency)
	if err != nil {
		return nil, fmt.Errorf("SendMessage: %w", err)
	}

	reply := &ChatReply{UserMessage: userMsg, NewBalance: profile.Balance}

	if draft := extraction.Transaction; draft != nil {
		entry, newBalance, err := s.ledger.RecordEntry(ctx, userID, EntryRequest{
			Name:       draft.Name,
			Amount:     draft.Amount,
			IsExpense:  draft.IsExpense,
			Category:   draft.Category,
			Kind:       domain.EntryKindAssistant,
			OccurredAt: time.Now().UTC(),
		})
		if err != nil {
			return nil, fmt.Errorf("SendMessage: %w", err)
		}
		reply.Entry = entry
		reply.NewBalance = newBalance

		log.Info("chat message classified",
			"user_id", userID,
			"entry_id", entry.ID,
			"category", entry.Category,
			"is_expense", entry.IsExpense,
		)
	}

	assistantMsg := domain.ChatMessage{
		ID:        uuid.New(),
		UserID:    userID,
		Sender:    domain.MessageSenderAssistant,
		Body:      extraction.Reply,
		Sentiment: sentimentPtr(extraction.Sentiment),
		CreatedAt: time.Now().UTC(),
	}
	if reply.Entry != nil {
		assistantMsg.LedgerEntryID = &reply.Entry.ID
	}
	if err := s.messages.Create(ctx, &assistantMsg); err != nil {
		return nil, fmt.Errorf("SendMessage: store assistant message: %w", err)
	}
	reply.AssistantMessage = assistantMsg

	return reply, nil
}

func (s *ChatService) History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.ChatMessage, int, error) {
	messages, total, err := s.messages.GetByUserID(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("History: %w", err)
	}
	return messages, total, nil
}

package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pote-app/pote-backend/internal/domain"
	"github.com/pote-app/pote-backend/internal/logging"
	"github.com/pote-app/pote-backend/internal/service"
)

type chatService interface {
	SendMessage(ctx context.Context, userID uuid.UUID, text string) (*service.ChatReply, error)
	History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.ChatMessage, int, error)
}

type ChatHandler struct {
	chat     chatService
	pageSize int
}

func NewChatHandler(chat chatService, pageSize int) *ChatHandler {
	return &ChatHandler{chat: chat, pageSize: pageSize}
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

type chatMessageDTO struct {
	ID            uuid.UUID  `json:"id"`
	Sender        string     `json:"sender"`
	Body          string     `json:"body"`
	Sentiment     *string    `json:"sentiment,omitempty"`
	LedgerEntryID *uuid.UUID `json:"ledger_entry_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func toChatMessageDTO(m *domain.ChatMessage) chatMessageDTO {
	dto := chatMessageDTO{
		ID:            m.ID,
		Sender:        string(m.Sender),
		Body:          m.Body,
		LedgerEntryID: m.LedgerEntryID,
		CreatedAt:     m.CreatedAt,
	}
	if m.Sentiment != nil {
		s := string(*m.Sentiment)
		dto.Sentiment = &s
	}
	return dto
}

type chatReplyResponse struct {
	UserMessage      chatMessageDTO  `json:"user_message"`
	AssistantMessage chatMessageDTO  `json:"assistant_message"`
	Entry            *ledgerEntryDTO `json:"entry,omitempty"`
	NewBalance       *int64          `json:"new_balance,omitempty"`
}

type chatHistoryResponse struct {
	Messages []chatMessageDTO `json:"messages"`
	Total    int              `json:"total"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}

func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID, appErr := ownerFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		RespondValidationError(w, []FieldError{{Field: "text", Message: "required"}})
		return
	}

	reply, err := h.chat.SendMessage(r.Context(), userID, req.Text)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to handle chat message", "error", err)
		RespondDomainError(w, err)
		return
	}

	resp := chatReplyResponse{
		UserMessage:      toChatMessageDTO(&reply.UserMessage),
		AssistantMessage: toChatMessageDTO(&reply.AssistantMessage),
	}
	if reply.Entry != nil {
		dto := toLedgerEntryDTO(reply.Entry)
		resp.Entry = &dto
		resp.NewBalance = &reply.NewBalance
	}

	RespondSuccess(w, http.StatusOK, resp)
}

func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, appErr := ownerFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	limit, offset := paginationParams(r, h.pageSize)

	messages, total, err := h.chat.History(r.Context(), userID, limit, offset)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to fetch chat history", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]chatMessageDTO, len(messages))
	for i := range messages {
		dtos[i] = toChatMessageDTO(&messages[i])
	}

	RespondSuccess(w, http.StatusOK, chatHistoryResponse{
		Messages: dtos,
		Total:    total,
		Limit:    limit,
		Offset:   offset,
	})
}

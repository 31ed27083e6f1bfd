package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pote-app/pote-backend/internal/domain"
	"github.com/pote-app/pote-backend/internal/logging"
	"github.com/pote-app/pote-backend/internal/service"
)

type ledgerService interface {
	RecordEntry(ctx context.Context, userID uuid.UUID, req service.EntryRequest) (*domain.LedgerEntry, int64, error)
	History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.LedgerEntry, int, error)
	Balance(ctx context.Context, userID uuid.UUID) (*domain.Profile, error)
	SetBalance(ctx context.Context, userID uuid.UUID, newBalance int64) (*domain.Profile, error)
	SetCurrency(ctx context.Context, userID uuid.UUID, currency domain.Currency) (*domain.Profile, error)
}

type LedgerHandler struct {
	ledger   ledgerService
	pageSize int
}

func NewLedgerHandler(ledger ledgerService, pageSize int) *LedgerHandler {
	return &LedgerHandler{ledger: ledger, pageSize: pageSize}
}

type createEntryRequest struct {
	Name      string `json:"name"`
	Amount    int64  `json:"amount"`
	IsExpense bool   `json:"is_expense"`
	Category  string `json:"category"`
}

func (r createEntryRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "required"})
	}
	if r.Amount <= 0 {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than zero"})
	}
	if r.Category != "" && !domain.Category(r.Category).IsValid() {
		errs = append(errs, FieldError{Field: "category", Message: "unknown category"})
	}
	return errs
}

type ledgerEntryDTO struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Amount       int64      `json:"amount"`
	IsExpense    bool       `json:"is_expense"`
	Category     string     `json:"category"`
	Kind         string     `json:"kind"`
	SourceRuleID *uuid.UUID `json:"source_rule_id,omitempty"`
	OccurredAt   time.Time  `json:"occurred_at"`
	CreatedAt    time.Time  `json:"created_at"`
}

func toLedgerEntryDTO(e *domain.LedgerEntry) ledgerEntryDTO {
	return ledgerEntryDTO{
		ID:           e.ID,
		Name:         e.Name,
		Amount:       e.Amount,
		IsExpense:    e.IsExpense,
		Category:     string(e.Category),
		Kind:         string(e.Kind),
		SourceRuleID: e.SourceRuleID,
		OccurredAt:   e.OccurredAt,
		CreatedAt:    e.CreatedAt,
	}
}

type entryCreatedResponse struct {
	Entry      ledgerEntryDTO `json:"entry"`
	NewBalance int64          `json:"new_balance"`
}

type historyResponse struct {
	Entries []ledgerEntryDTO `json:"entries"`
	Total   int              `json:"total"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
}

type balanceDTO struct {
	Balance  int64  `json:"balance"`
	Currency string `json:"currency"`
}

func (h *LedgerHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, appErr := ownerFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req createEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	category := domain.Category(req.Category)
	if req.Category == "" {
		category = domain.CategoryOther
	}

	entry, newBalance, err := h.ledger.RecordEntry(r.Context(), userID, service.EntryRequest{
		Name:       req.Name,
		Amount:     req.Amount,
		IsExpense:  req.IsExpense,
		Category:   category,
		Kind:       domain.EntryKindManual,
		OccurredAt: time.Now(),
	})
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to record entry", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, entryCreatedResponse{
		Entry:      toLedgerEntryDTO(entry),
		NewBalance: newBalance,
	})
}

func (h *LedgerHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, appErr := ownerFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	limit, offset := paginationParams(r, h.pageSize)

	entries, total, err := h.ledger.History(r.Context(), userID, limit, offset)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to fetch history", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]ledgerEntryDTO, len(entries))
	for i := range entries {
		dtos[i] = toLedgerEntryDTO(&entries[i])
	}

	RespondSuccess(w, http.StatusOK, historyResponse{
		Entries: dtos,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	})
}

func (h *LedgerHandler) Balance(w http.ResponseWriter, r *http.Request) {
	userID, appErr := ownerFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	profile, err := h.ledger.Balance(r.Context(), userID)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to fetch balance", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, balanceDTO{
		Balance:  profile.Balance,
		Currency: string(profile.Currency),
	})
}

type setBalanceRequest struct {
	Balance int64 `json:"balance"`
}

func (h *LedgerHandler) SetBalance(w http.ResponseWriter, r *http.Request) {
	userID, appErr := ownerFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req setBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	profile, err := h.ledger.SetBalance(r.Context(), userID, req.Balance)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to set balance", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, balanceDTO{
		Balance:  profile.Balance,
		Currency: string(profile.Currency),
	})
}

type setCurrencyRequest struct {
	Currency string `json:"currency"`
}

func (h *LedgerHandler) SetCurrency(w http.ResponseWriter, r *http.Request) {
	userID, appErr := ownerFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req setCurrencyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if !domain.Currency(req.Currency).IsValid() {
		RespondValidationError(w, []FieldError{{Field: "currency", Message: "must be EUR, USD, or XAF"}})
		return
	}

	profile, err := h.ledger.SetCurrency(r.Context(), userID, domain.Currency(req.Currency))
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to set currency", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, balanceDTO{
		Balance:  profile.Balance,
		Currency: string(profile.Currency),
	})
}

func paginationParams(r *http.Request, defaultLimit int) (limit, offset int) {
	limit = defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= 200 {
			limit = v
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			offset = v
		}
	}
	return limit, offset
}

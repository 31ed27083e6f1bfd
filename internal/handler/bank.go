package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/pote-app/pote-backend/internal/domain"
	"github.com/pote-app/pote-backend/internal/logging"
	"github.com/pote-app/pote-backend/internal/service"
)

type bankAccountService interface {
	Link(ctx context.Context, userID uuid.UUID, code string, provider domain.BankProvider, name string) (*domain.LinkedAccount, error)
	AddManual(ctx context.Context, userID uuid.UUID, name string, balance int64, currency domain.Currency) (*domain.LinkedAccount, error)
	List(ctx context.Context, userID uuid.UUID) ([]domain.LinkedAccount, error)
	Refresh(ctx context.Context, userID, accountID uuid.UUID) (*domain.LinkedAccount, error)
	TotalWealth(ctx context.Context, userID uuid.UUID) (*service.Wealth, error)
}

type BankHandler struct {
	accounts bankAccountService
}

func NewBankHandler(accounts bankAccountService) *BankHandler {
	return &BankHandler{accounts: accounts}
}

type linkAccountRequest struct {
	Code     string `json:"code"`
	Provider string `json:"provider"`
	Name     string `json:"name"`
}

func (r linkAccountRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Code == "" {
		errs = append(errs, FieldError{Field: "code", Message: "required"})
	}
	switch domain.BankProvider(r.Provider) {
	case domain.BankProviderMono, domain.BankProviderGoCardless:
	default:
		errs = append(errs, FieldError{Field: "provider", Message: "must be mono or gocardless"})
	}
	return errs
}

type manualAccountRequest struct {
	Name     string `json:"name"`
	Balance  int64  `json:"balance"`
	Currency string `json:"currency"`
}

func (r manualAccountRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "required"})
	}
	if r.Balance < 0 {
		errs = append(errs, FieldError{Field: "balance", Message: "must not be negative"})
	}
	if !domain.Currency(r.Currency).IsValid() {
		errs = append(errs, FieldError{Field: "currency", Message: "must be EUR, USD, or XAF"})
	}
	return errs
}

type linkedAccountDTO struct {
	ID           uuid.UUID  `json:"id"`
	Provider     string     `json:"provider"`
	Name         string     `json:"name"`
	Balance      int64      `json:"balance"`
	Currency     string     `json:"currency"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func toLinkedAccountDTO(a *domain.LinkedAccount) linkedAccountDTO {
	return linkedAccountDTO{
		ID:           a.ID,
		Provider:     string(a.Provider),
		Name:         a.Name,
		Balance:      a.Balance,
		Currency:     string(a.Currency),
		LastSyncedAt: a.LastSyncedAt,
		CreatedAt:    a.CreatedAt,
	}
}

type wealthDTO struct {
	Balance  int64  `json:"balance"`
	Linked   int64  `json:"linked"`
	Total    int64  `json:"total"`
	Currency string `json:"currency"`
}

func (h *BankHandler) Link(w http.ResponseWriter, r *http.Request) {
	userID, appErr := ownerFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req linkAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	account, err := h.accounts.Link(r.Context(), userID, req.Code, domain.BankProvider(req.Provider), req.Name)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to link account", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toLinkedAccountDTO(account))
}

func (h *BankHandler) AddManual(w http.ResponseWriter, r *http.Request) {
	userID, appErr := ownerFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req manualAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	account, err := h.accounts.AddManual(r.Context(), userID, req.Name, req.Balance, domain.Currency(req.Currency))
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to add manual account", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toLinkedAccountDTO(account))
}

func (h *BankHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, appErr := ownerFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	accounts, err := h.accounts.List(r.Context(), userID)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list accounts", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]linkedAccountDTO, len(accounts))
	for i := range accounts {
		dtos[i] = toLinkedAccountDTO(&accounts[i])
	}

	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *BankHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	userID, appErr := ownerFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	accountID, err := uuid.Parse(r.PathValue("accountID"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	account, err := h.accounts.Refresh(r.Context(), userID, accountID)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to refresh account", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toLinkedAccountDTO(account))
}

func (h *BankHandler) Wealth(w http.ResponseWriter, r *http.Request) {
	userID, appErr := ownerFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	wealth, err := h.accounts.TotalWealth(r.Context(), userID)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to compute wealth", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, wealthDTO{
		Balance:  wealth.Balance,
		Linked:   wealth.Linked,
		Total:    wealth.Total,
		Currency: string(wealth.Currency),
	})
}

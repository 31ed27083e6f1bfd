package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/pote-app/pote-backend/internal/domain"
	"github.com/pote-app/pote-backend/internal/logging"
)

type ruleService interface {
	CreateRule(ctx context.Context, userID uuid.UUID, name string, amount int64, dayOfMonth int) (*domain.RecurringRule, error)
	ListRules(ctx context.Context, userID uuid.UUID) ([]domain.RecurringRule, error)
	DeleteRule(ctx context.Context, id, userID uuid.UUID) error
}

type RuleHandler struct {
	rules ruleService
}

func NewRuleHandler(rules ruleService) *RuleHandler {
	return &RuleHandler{rules: rules}
}

type createRuleRequest struct {
	Name       string `json:"name"`
	Amount     int64  `json:"amount"`
	DayOfMonth int    `json:"day_of_month"`
}

func (r createRuleRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "required"})
	}
	if r.Amount <= 0 {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than zero"})
	}
	if r.DayOfMonth < 1 || r.DayOfMonth > 31 {
		errs = append(errs, FieldError{Field: "day_of_month", Message: "must be between 1 and 31"})
	}
	return errs
}

type ruleDTO struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Amount     int64     `json:"amount"`
	DayOfMonth int       `json:"day_of_month"`
	CreatedAt  time.Time `json:"created_at"`
}

func toRuleDTO(rule *domain.RecurringRule) ruleDTO {
	return ruleDTO{
		ID:         rule.ID,
		Name:       rule.Name,
		Amount:     rule.Amount,
		DayOfMonth: rule.DayOfMonth,
		CreatedAt:  rule.CreatedAt,
	}
}

func (h *RuleHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, appErr := ownerFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req createRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	rule, err := h.rules.CreateRule(r.Context(), userID, req.Name, req.Amount, req.DayOfMonth)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to create rule", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toRuleDTO(rule))
}

func (h *RuleHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, appErr := ownerFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	rules, err := h.rules.ListRules(r.Context(), userID)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list rules", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]ruleDTO, len(rules))
	for i := range rules {
		dtos[i] = toRuleDTO(&rules[i])
	}

	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *RuleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, appErr := ownerFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	ruleID, err := uuid.Parse(r.PathValue("ruleID"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	if err := h.rules.DeleteRule(r.Context(), ruleID, userID); err != nil {
		logging.FromContext(r.Context()).Error("failed to delete rule", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]bool{"deleted": true})
}

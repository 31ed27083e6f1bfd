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

type savingsService interface {
	CreateGoal(ctx context.Context, userID uuid.UUID, name string, target int64) (*domain.SavingsGoal, error)
	ListGoals(ctx context.Context, userID uuid.UUID) ([]domain.SavingsGoal, error)
	Contribute(ctx context.Context, userID, goalID uuid.UUID, amount int64) (*domain.SavingsGoal, error)
	DeleteGoal(ctx context.Context, userID, goalID uuid.UUID) error
}

type SavingsHandler struct {
	savings savingsService
}

func NewSavingsHandler(savings savingsService) *SavingsHandler {
	return &SavingsHandler{savings: savings}
}

type createGoalRequest struct {
	Name   string `json:"name"`
	Target int64  `json:"target"`
}

func (r createGoalRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "required"})
	}
	if r.Target <= 0 {
		errs = append(errs, FieldError{Field: "target", Message: "must be greater than zero"})
	}
	return errs
}

type contributeRequest struct {
	Amount int64 `json:"amount"`
}

type goalDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Target    int64     `json:"target"`
	Current   int64     `json:"current"`
	CreatedAt time.Time `json:"created_at"`
}

func toGoalDTO(g *domain.SavingsGoal) goalDTO {
	return goalDTO{
		ID:        g.ID,
		Name:      g.Name,
		Target:    g.Target,
		Current:   g.Current,
		CreatedAt: g.CreatedAt,
	}
}

func (h *SavingsHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, appErr := ownerFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req createGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	goal, err := h.savings.CreateGoal(r.Context(), userID, req.Name, req.Target)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to create goal", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toGoalDTO(goal))
}

func (h *SavingsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, appErr := ownerFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	goals, err := h.savings.ListGoals(r.Context(), userID)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list goals", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]goalDTO, len(goals))
	for i := range goals {
		dtos[i] = toGoalDTO(&goals[i])
	}

	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *SavingsHandler) Contribute(w http.ResponseWriter, r *http.Request) {
	userID, appErr := ownerFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	goalID, err := uuid.Parse(r.PathValue("goalID"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	var req contributeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if req.Amount <= 0 {
		RespondValidationError(w, []FieldError{{Field: "amount", Message: "must be greater than zero"}})
		return
	}

	goal, err := h.savings.Contribute(r.Context(), userID, goalID, req.Amount)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to contribute to goal", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toGoalDTO(goal))
}

func (h *SavingsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, appErr := ownerFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	goalID, err := uuid.Parse(r.PathValue("goalID"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	if err := h.savings.DeleteGoal(r.Context(), userID, goalID); err != nil {
		logging.FromContext(r.Context()).Error("failed to delete goal", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]bool{"deleted": true})
}

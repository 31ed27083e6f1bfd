package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/pote-app/pote-backend/internal/logging"
	"github.com/pote-app/pote-backend/internal/service"
)

type reconcileService interface {
	Run(ctx context.Context, userID uuid.UUID, now time.Time) (*service.ReconcileResult, error)
}

// SessionHandler opens a chat session: it runs the recurring-income
// catch-up before the client renders anything, so the balance the user
// sees already includes income that fell due while they were away.
type SessionHandler struct {
	reconciler reconcileService
}

func NewSessionHandler(reconciler reconcileService) *SessionHandler {
	return &SessionHandler{reconciler: reconciler}
}

type sessionResponse struct {
	Credited   int64            `json:"credited"`
	NewBalance int64            `json:"new_balance"`
	Entries    []ledgerEntryDTO `json:"entries"`
	Summary    string           `json:"summary,omitempty"`
}

func (h *SessionHandler) Open(w http.ResponseWriter, r *http.Request) {
	userID, appErr := ownerFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	result, err := h.reconciler.Run(r.Context(), userID, time.Now())
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to open session", "error", err)
		RespondDomainError(w, err)
		return
	}

	entries := make([]ledgerEntryDTO, len(result.Entries))
	for i := range result.Entries {
		entries[i] = toLedgerEntryDTO(&result.Entries[i])
	}

	RespondSuccess(w, http.StatusOK, sessionResponse{
		Credited:   result.Credited,
		NewBalance: result.NewBalance,
		Entries:    entries,
		Summary:    result.Summary,
	})
}

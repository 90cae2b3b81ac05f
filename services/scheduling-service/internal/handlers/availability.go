package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/md-rashed-zaman/teambook/libs/httpx"
	"github.com/md-rashed-zaman/teambook/services/scheduling-service/internal/availability"
	"github.com/md-rashed-zaman/teambook/services/scheduling-service/internal/model"
)

type AvailabilityResolver interface {
	Resolve(ctx context.Context, req model.AvailabilityRequest) availability.Result
}

type AvailabilityHandler struct {
	svc    AvailabilityResolver
	logger *slog.Logger
}

func NewAvailabilityHandler(svc AvailabilityResolver, logger *slog.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{svc: svc, logger: logger}
}

// Resolve answers 400 only for a malformed request. Everything past
// validation yields 200 with slots, synthetic ones if the upstream fails.
func (h *AvailabilityHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req model.AvailabilityRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		if errors.Is(err, httpx.ErrEmptyBody) {
			httpx.WriteError(w, http.StatusBadRequest, "Participants array is required")
			return
		}
		httpx.WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := availability.Validate(req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Participants array is required")
		return
	}

	res := h.svc.Resolve(r.Context(), req)
	httpx.WriteJSON(w, http.StatusOK, res)
}

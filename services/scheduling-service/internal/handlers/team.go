package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/teambook/libs/httpx"
	"github.com/md-rashed-zaman/teambook/services/scheduling-service/internal/model"
	"github.com/md-rashed-zaman/teambook/services/scheduling-service/internal/storage"
)

const searchLimit = 10

type MemberDirectory interface {
	Search(ctx context.Context, q string, limit int) ([]model.TeamMember, error)
	GetByID(ctx context.Context, id string) (model.TeamMember, error)
}

type TeamHandler struct {
	dir    MemberDirectory
	logger *slog.Logger
}

func NewTeamHandler(dir MemberDirectory, logger *slog.Logger) *TeamHandler {
	return &TeamHandler{dir: dir, logger: logger}
}

type searchResponse struct {
	Members []model.TeamMember `json:"members"`
}

func (h *TeamHandler) Search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		httpx.WriteError(w, http.StatusBadRequest, "Search query is required")
		return
	}

	members, err := h.dir.Search(r.Context(), q, searchLimit)
	if err != nil {
		h.logger.Error("team member search failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to search team members")
		return
	}
	if members == nil {
		members = []model.TeamMember{}
	}
	httpx.WriteJSON(w, http.StatusOK, searchResponse{Members: members})
}

func (h *TeamHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	member, err := lookupMember(r.Context(), h.dir, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "Team member not found")
			return
		}
		h.logger.Error("team member lookup failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, member)
}

type MemberLookup interface {
	GetByID(ctx context.Context, id string) (model.TeamMember, error)
}

// lookupMember treats ids that are not UUIDs as unknown members instead of
// sending them to the database.
func lookupMember(ctx context.Context, dir MemberLookup, id string) (model.TeamMember, error) {
	id = strings.TrimSpace(id)
	if _, err := uuid.Parse(id); err != nil {
		return model.TeamMember{}, storage.ErrNotFound
	}
	return dir.GetByID(ctx, id)
}

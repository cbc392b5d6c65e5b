package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"git.home.luguber.info/inful/anchorbuilder/internal/eventstore"
	"git.home.luguber.info/inful/anchorbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/anchorbuilder/internal/server/responses"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// HistoryReader is the build history read model.
type HistoryReader interface {
	GetHistory(limit int) []eventstore.BuildSummary
	GetBuild(buildID string) (*eventstore.BuildSummary, bool)
}

// EventReader returns raw stored events.
type EventReader interface {
	GetByBuildID(ctx context.Context, buildID string) ([]eventstore.Event, error)
}

// HistoryHandlers serve recorded builds.
type HistoryHandlers struct {
	history      HistoryReader
	events       EventReader
	errorAdapter *errors.HTTPErrorAdapter
}

// NewHistoryHandlers creates history handlers.
func NewHistoryHandlers(history HistoryReader, events EventReader) *HistoryHandlers {
	return &HistoryHandlers{
		history:      history,
		events:       events,
		errorAdapter: errors.NewHTTPErrorAdapter(slog.Default()),
	}
}

// HandleListBuilds returns the most recent builds, newest first.
func (h *HistoryHandlers) HandleListBuilds(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.errorAdapter.WriteErrorResponse(w, r, errors.ValidationError("limit must be a positive integer").
				WithContext("limit", raw).
				Build())
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	builds := h.history.GetHistory(limit)
	resp := &responses.BuildHistoryResponse{
		Builds:    builds,
		Count:     len(builds),
		Timestamp: time.Now().UTC(),
	}
	if err := writeJSONPretty(w, r, http.StatusOK, resp); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, errors.WrapError(err, errors.CategoryInternal, "failed to encode build history").Build())
	}
}

// HandleGetBuild returns the summary and stored events of one build.
func (h *HistoryHandlers) HandleGetBuild(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	events, err := h.events.GetByBuildID(r.Context(), id)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	summary, ok := h.history.GetBuild(id)
	if !ok && len(events) == 0 {
		h.errorAdapter.WriteErrorResponse(w, r, errors.NotFoundError("build not found").
			WithContext("build_id", id).
			Build())
		return
	}

	resp := &responses.BuildDetailResponse{Build: summary, Events: make([]responses.EventInfo, 0, len(events))}
	for _, ev := range events {
		resp.Events = append(resp.Events, responses.EventInfo{
			ID:        ev.ID(),
			Type:      ev.Type(),
			Timestamp: ev.Timestamp().UTC(),
			Payload:   json.RawMessage(ev.Payload()),
		})
	}
	if err := writeJSONPretty(w, r, http.StatusOK, resp); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, errors.WrapError(err, errors.CategoryInternal, "failed to encode build").Build())
	}
}

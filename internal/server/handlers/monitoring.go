package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"git.home.luguber.info/inful/anchorbuilder/internal/build"
	"git.home.luguber.info/inful/anchorbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/anchorbuilder/internal/server/responses"
	"git.home.luguber.info/inful/anchorbuilder/internal/version"
)

// StateProvider exposes the coordinator's current state.
type StateProvider interface {
	State() build.State
}

// MonitoringHandlers contains monitoring-related HTTP handlers.
type MonitoringHandlers struct {
	state        StateProvider
	startTime    time.Time
	errorAdapter *errors.HTTPErrorAdapter
}

// NewMonitoringHandlers creates a new monitoring handlers instance.
func NewMonitoringHandlers(state StateProvider, startTime time.Time) *MonitoringHandlers {
	return &MonitoringHandlers{
		state:        state,
		startTime:    startTime,
		errorAdapter: errors.NewHTTPErrorAdapter(slog.Default()),
	}
}

// HandleHealthCheck answers liveness probes. It never touches the build lock.
func (h *MonitoringHandlers) HandleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// HandleStatus reports whether a build is running and how many are queued.
func (h *MonitoringHandlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	st := h.state.State()
	status := &responses.StatusResponse{
		Status:      "idle",
		Busy:        st.Busy,
		Waiting:     st.Waiting,
		TotalBuilds: st.TotalBuilds,
		LastBuildID: st.LastBuildID,
		Version:     version.Version,
		Uptime:      time.Since(h.startTime).Seconds(),
		Timestamp:   time.Now().UTC(),
	}
	if st.Busy {
		status.Status = "building"
	}

	if err := writeJSONPretty(w, r, http.StatusOK, status); err != nil {
		internalErr := errors.WrapError(err, errors.CategoryInternal, "failed to write status response").
			Build()
		h.errorAdapter.WriteErrorResponse(w, r, internalErr)
	}
}

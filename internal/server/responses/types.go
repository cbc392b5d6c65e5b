// Package responses defines API response types used by anchorbuilder HTTP handlers.
package responses

import (
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/anchorbuilder/internal/eventstore"
)

// StatusResponse reports coordinator state for GET /status.
type StatusResponse struct {
	Status      string    `json:"status"`
	Busy        bool      `json:"busy"`
	Waiting     int       `json:"waiting"`
	TotalBuilds int64     `json:"total_builds"`
	LastBuildID string    `json:"last_build_id,omitempty"`
	Version     string    `json:"version"`
	Uptime      float64   `json:"uptime"`
	Timestamp   time.Time `json:"timestamp"`
}

// BuildHistoryResponse lists recent builds for GET /builds.
type BuildHistoryResponse struct {
	Builds    []eventstore.BuildSummary `json:"builds"`
	Count     int                       `json:"count"`
	Timestamp time.Time                 `json:"timestamp"`
}

// BuildDetailResponse describes one build for GET /builds/{id}.
type BuildDetailResponse struct {
	Build  *eventstore.BuildSummary `json:"build"`
	Events []EventInfo              `json:"events"`
}

// EventInfo is a stored lifecycle event.
type EventInfo struct {
	ID        int64           `json:"id"`
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

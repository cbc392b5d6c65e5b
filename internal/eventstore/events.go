package eventstore

import (
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/anchorbuilder/internal/foundation/errors"
)

// BuildStartedPayload is the JSON body of a BuildStarted event.
type BuildStartedPayload struct {
	Files      []string `json:"files"`
	LockWaitMS int64    `json:"lock_wait_ms"`
}

// BuildStarted is emitted when a build acquires the workspace lock.
type BuildStarted struct {
	Record
	BuildStartedPayload
}

// NewBuildStarted creates a BuildStarted event.
func NewBuildStarted(buildID string, files []string, lockWait time.Duration, at time.Time) (*BuildStarted, error) {
	body := BuildStartedPayload{Files: files, LockWaitMS: lockWait.Milliseconds()}
	if body.Files == nil {
		body.Files = []string{}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, errors.EventStoreError("failed to marshal BuildStarted payload").
			WithCause(err).
			WithContext("build_id", buildID).
			Build()
	}

	return &BuildStarted{
		Record: Record{
			Build: buildID,
			Kind:  TypeBuildStarted,
			At:    at,
			Body:  payload,
		},
		BuildStartedPayload: body,
	}, nil
}

// BuildFinishedPayload is the JSON body of a BuildFinished event.
type BuildFinishedPayload struct {
	Status      string `json:"status"`
	Outcome     string `json:"outcome"`
	FileCount   int    `json:"file_count"`
	LogLines    int    `json:"log_lines"`
	BinaryBytes int    `json:"binary_bytes"`
	Message     string `json:"message,omitempty"`
	DurationMS  int64  `json:"duration_ms"`
}

// BuildFinished is emitted when a build releases the workspace lock.
type BuildFinished struct {
	Record
	BuildFinishedPayload
}

// NewBuildFinished creates a BuildFinished event.
func NewBuildFinished(buildID string, body BuildFinishedPayload, at time.Time) (*BuildFinished, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, errors.EventStoreError("failed to marshal BuildFinished payload").
			WithCause(err).
			WithContext("build_id", buildID).
			Build()
	}

	return &BuildFinished{
		Record: Record{
			Build: buildID,
			Kind:  TypeBuildFinished,
			At:    at,
			Body:  payload,
			Meta:  map[string]string{"outcome": body.Outcome},
		},
		BuildFinishedPayload: body,
	}, nil
}

// Decode converts a stored event into its typed form. Unknown types are
// returned unchanged.
func Decode(ev Event) (Event, error) {
	base := Record{
		Seq:   ev.ID(),
		Build: ev.BuildID(),
		Kind:  ev.Type(),
		At:    ev.Timestamp(),
		Body:  ev.Payload(),
		Meta:  ev.Metadata(),
	}
	switch ev.Type() {
	case TypeBuildStarted:
		out := &BuildStarted{Record: base}
		if err := json.Unmarshal(ev.Payload(), &out.BuildStartedPayload); err != nil {
			return nil, unmarshalError(ev, err)
		}
		return out, nil
	case TypeBuildFinished:
		out := &BuildFinished{Record: base}
		if err := json.Unmarshal(ev.Payload(), &out.BuildFinishedPayload); err != nil {
			return nil, unmarshalError(ev, err)
		}
		return out, nil
	default:
		return ev, nil
	}
}

func unmarshalError(ev Event, err error) error {
	return errors.EventStoreError("failed to unmarshal event payload").
		WithCause(err).
		WithContext("build_id", ev.BuildID()).
		WithContext("event_type", ev.Type()).
		Build()
}

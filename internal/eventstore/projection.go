package eventstore

import (
	"context"
	"slices"
	"sync"
	"time"
)

const (
	buildStatusRunning = "running"
	defaultHistorySize = 100
)

// BuildSummary is the read model of one build.
type BuildSummary struct {
	BuildID     string     `json:"build_id"`
	Status      string     `json:"status"` // running, success or error
	Outcome     string     `json:"outcome,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	DurationMS  int64      `json:"duration_ms"`
	Files       []string   `json:"files,omitempty"`
	FileCount   int        `json:"file_count"`
	LogLines    int        `json:"log_lines"`
	BinaryBytes int        `json:"binary_bytes"`
	Message     string     `json:"message,omitempty"`
}

// BuildHistoryProjection folds build events into the most recent completed
// builds plus whatever is still running.
type BuildHistoryProjection struct {
	store Store
	limit int

	mu        sync.RWMutex
	running   map[string]*BuildSummary
	completed []*BuildSummary // newest first, at most limit entries
	lastSync  time.Time
}

// NewBuildHistoryProjection keeps up to limit completed builds; limit <= 0
// selects the default of 100.
func NewBuildHistoryProjection(store Store, limit int) *BuildHistoryProjection {
	if limit <= 0 {
		limit = defaultHistorySize
	}
	return &BuildHistoryProjection{
		store:   store,
		limit:   limit,
		running: make(map[string]*BuildSummary),
	}
}

// Rebuild replaces the projection with a replay of the whole store. It runs
// at startup and after each prune.
func (p *BuildHistoryProjection) Rebuild(ctx context.Context) error {
	events, err := p.store.GetRange(ctx, time.Time{}, time.Now().Add(time.Hour))
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.running = make(map[string]*BuildSummary)
	p.completed = nil
	for _, ev := range events {
		p.fold(ev)
	}
	// replay order is append order; history is ordered by start time
	slices.SortStableFunc(p.completed, func(a, b *BuildSummary) int {
		return b.StartedAt.Compare(a.StartedAt)
	})
	p.lastSync = time.Now()
	return nil
}

// Apply folds one live event into the projection.
func (p *BuildHistoryProjection) Apply(ev Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fold(ev)
}

func (p *BuildHistoryProjection) fold(ev Event) {
	id := ev.BuildID()
	if id == "" {
		return
	}
	typed, err := Decode(ev)
	if err != nil {
		return
	}

	switch e := typed.(type) {
	case *BuildStarted:
		p.running[id] = &BuildSummary{
			BuildID:   id,
			Status:    buildStatusRunning,
			StartedAt: e.Timestamp(),
			Files:     e.Files,
			FileCount: len(e.Files),
		}

	case *BuildFinished:
		if p.indexOf(id) >= 0 {
			return
		}
		s, ok := p.running[id]
		if !ok {
			// start event already pruned or never stored
			s = &BuildSummary{BuildID: id, StartedAt: e.Timestamp()}
		}
		delete(p.running, id)

		done := e.Timestamp()
		s.CompletedAt = &done
		s.Status = e.Status
		s.Outcome = e.Outcome
		s.DurationMS = e.DurationMS
		s.FileCount = e.FileCount
		s.LogLines = e.LogLines
		s.BinaryBytes = e.BinaryBytes
		s.Message = e.Message

		p.completed = slices.Insert(p.completed, 0, s)
		if len(p.completed) > p.limit {
			p.completed = p.completed[:p.limit]
		}
	}
}

func (p *BuildHistoryProjection) indexOf(id string) int {
	return slices.IndexFunc(p.completed, func(s *BuildSummary) bool { return s.BuildID == id })
}

// GetHistory returns up to limit completed builds, newest first. A limit of
// zero or less returns everything retained.
func (p *BuildHistoryProjection) GetHistory(limit int) []BuildSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()

	n := len(p.completed)
	if limit > 0 {
		n = min(n, limit)
	}
	out := make([]BuildSummary, n)
	for i, s := range p.completed[:n] {
		out[i] = *s
	}
	return out
}

// GetBuild returns a copy of the summary of a running or retained build.
func (p *BuildHistoryProjection) GetBuild(buildID string) (*BuildSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s, ok := p.running[buildID]
	if !ok {
		i := p.indexOf(buildID)
		if i < 0 {
			return nil, false
		}
		s = p.completed[i]
	}
	cp := *s
	return &cp, true
}

// LastSyncTime reports when Rebuild last completed.
func (p *BuildHistoryProjection) LastSyncTime() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastSync
}

package eventstore

import "time"

// Build lifecycle event kinds.
const (
	TypeBuildStarted  = "BuildStarted"
	TypeBuildFinished = "BuildFinished"
)

// Event is one stored build lifecycle record.
type Event interface {
	ID() int64 // assigned by the store, zero before Append
	BuildID() string
	Type() string
	Timestamp() time.Time
	Payload() []byte // JSON body
	Metadata() map[string]string
}

// Record is the plain stored form of an Event. Typed events embed it.
type Record struct {
	Seq   int64
	Build string
	Kind  string
	At    time.Time
	Body  []byte
	Meta  map[string]string
}

func (r *Record) ID() int64                   { return r.Seq }
func (r *Record) BuildID() string             { return r.Build }
func (r *Record) Type() string                { return r.Kind }
func (r *Record) Timestamp() time.Time        { return r.At }
func (r *Record) Payload() []byte             { return r.Body }
func (r *Record) Metadata() map[string]string { return r.Meta }

package eventstore

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBuildID = "build-123"

func TestBuildStartedPayload(t *testing.T) {
	ev, err := NewBuildStarted(testBuildID, nil, 1500*time.Millisecond, time.Now())
	require.NoError(t, err)

	assert.Equal(t, TypeBuildStarted, ev.Type())
	assert.JSONEq(t, `{"files":[],"lock_wait_ms":1500}`, string(ev.Payload()))
}

func TestBuildFinishedDecode(t *testing.T) {
	body := BuildFinishedPayload{
		Status:      "success",
		Outcome:     "compile_failed",
		FileCount:   2,
		LogLines:    9,
		BinaryBytes: 0,
		DurationMS:  4200,
	}
	ev, err := NewBuildFinished(testBuildID, body, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "compile_failed", ev.Metadata()["outcome"])

	stored := &Record{
		Seq:   7,
		Build: ev.BuildID(),
		Kind:  ev.Type(),
		At:    ev.Timestamp(),
		Body:  ev.Payload(),
	}
	decoded, err := Decode(stored)
	require.NoError(t, err)

	finished, ok := decoded.(*BuildFinished)
	require.True(t, ok)
	assert.Equal(t, int64(7), finished.ID())
	assert.Equal(t, body, finished.BuildFinishedPayload)
}

func TestDecodeRejectsCorruptPayload(t *testing.T) {
	_, err := Decode(&Record{Build: testBuildID, Kind: TypeBuildStarted, Body: []byte("{")})
	require.Error(t, err)
}

func TestDecodeUnknownTypePassesThrough(t *testing.T) {
	raw := &Record{Build: testBuildID, Kind: "Custom", Body: []byte("x")}
	out, err := Decode(raw)
	require.NoError(t, err)
	assert.Same(t, Event(raw), out)
}

func TestBuildFinishedOmitsEmptyMessage(t *testing.T) {
	ev, err := NewBuildFinished(testBuildID, BuildFinishedPayload{Status: "success"}, time.Now())
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(ev.Payload(), &m))
	assert.NotContains(t, m, "message")
}

package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetrics_Snapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/siswa", "GET", 307, time.Millisecond)
	m.RecordRequest("/siswa", "GET", 307, time.Millisecond)
	m.RecordError("/api/auth/me", "GET", "UNAUTHORIZED")
	m.RecordDecision(1, "redirect")

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Requests["/siswa|GET|307"])
	assert.Equal(t, int64(1), snap.Errors["/api/auth/me|GET|UNAUTHORIZED"])
	assert.Equal(t, int64(1), snap.Decisions["rule1|redirect"])

	// the snapshot is a copy
	snap.Decisions["rule1|redirect"] = 99
	assert.Equal(t, int64(1), m.Snapshot().Decisions["rule1|redirect"])
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("/", "GET", 200, 0)
		m.RecordError("/", "GET", "X")
		m.RecordDecision(8, "continue")
		_ = m.Snapshot()
	})
}

package flux

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrackerRecordsReadsWhileActive(t *testing.T) {
	l := NewLoop()
	c := &Component{id: "c1"}
	r := &Reaction{id: "r1"}

	l.beginTracking(r)
	l.trackRead(c, "count")
	l.trackRead(c, "count") // duplicate read collapses to one entry
	l.trackRead(c, "name")
	reads := l.endTracking(r)

	assert.Len(t, reads, 2)
	assert.True(t, reads[depKey{comp: c, prop: "count"}])
	assert.True(t, reads[depKey{comp: c, prop: "name"}])
}

func TestTrackerIgnoresReadsWithNoActiveFrame(t *testing.T) {
	l := NewLoop()
	c := &Component{id: "c1"}
	// No beginTracking call: trackRead must be a silent no-op.
	assert.NotPanics(t, func() { l.trackRead(c, "count") })
}

func TestTrackerEndTrackingOnEmptyStackReturnsNil(t *testing.T) {
	l := NewLoop()
	r := &Reaction{id: "r1"}
	assert.Nil(t, l.endTracking(r))
}

func TestTrackerMismatchedPopReturnsNilDefensively(t *testing.T) {
	l := NewLoop()
	r1 := &Reaction{id: "r1"}
	r2 := &Reaction{id: "r2"}

	l.beginTracking(r1)
	reads := l.endTracking(r2)
	assert.Nil(t, reads)
}

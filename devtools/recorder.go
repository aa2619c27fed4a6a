// Package devtools records the events flowing through a flux.Loop into a
// bounded in-memory history, and can export that history to JSON or persist
// it to SQLite for later inspection. It is strictly read-only with respect
// to the running loop: nothing in this package can invoke an action or
// mutate a component, only observe and record.
package devtools

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	flux "github.com/cerebralia/fluxcore"
)

// EventRecord is a single recorded event, independent of the flux.Dict it
// was built from so the recorder can outlive the originating component.
type EventRecord struct {
	ID        int64                  `json:"id"`
	Component string                 `json:"component"`
	Type      string                 `json:"type"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Recorder maintains a circular buffer of recorded events. When the buffer
// is at capacity, recording a new event discards the oldest one.
type Recorder struct {
	mu      sync.RWMutex
	events  []EventRecord
	maxSize int
	nextID  int64
}

// NewRecorder creates a Recorder that keeps at most maxSize events.
func NewRecorder(maxSize int) *Recorder {
	return &Recorder{events: make([]EventRecord, 0, maxSize), maxSize: maxSize}
}

// Observe records one event. It matches flux.WithEventTap's signature, so
// a Recorder can be installed directly:
//
//	rec := devtools.NewRecorder(1000)
//	loop := flux.NewLoop(flux.WithEventTap(rec.Observe))
func (r *Recorder) Observe(d flux.Dict) {
	rec := EventRecord{
		ID:        atomic.AddInt64(&r.nextID, 1),
		Type:      d.Type,
		Timestamp: time.Now(),
	}
	if d.Source != nil {
		rec.Component = d.Source.ID()
	}
	if fields := dictFields(d); len(fields) > 0 {
		rec.Fields = fields
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) >= r.maxSize {
		r.events = r.events[1:]
	}
	r.events = append(r.events, rec)
}

// dictFields extracts the common payload keys a flux.Dict may carry. Dict
// does not expose its internal map directly, so the recorder reads it
// through the typed accessors that are stable across event shapes.
func dictFields(d flux.Dict) map[string]interface{} {
	fields := make(map[string]interface{})
	if v, ok := d.Get("old_value"); ok {
		fields["old_value"] = v
	}
	if v, ok := d.Get("new_value"); ok {
		fields["new_value"] = v
	}
	if v, ok := d.Get("mutation"); ok {
		fields["mutation"] = v
	}
	if v, ok := d.Get("index"); ok {
		fields["index"] = v
	}
	if v, ok := d.Get("objects"); ok {
		fields["objects"] = v
	}
	return fields
}

// Events returns a snapshot of every event currently retained, oldest
// first.
func (r *Recorder) Events() []EventRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]EventRecord, len(r.events))
	copy(out, r.events)
	return out
}

// Search returns every retained event whose component ID or type contains
// substr, oldest first. Used by the MCP server's search_events tool.
func (r *Recorder) Search(substr string) []EventRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []EventRecord
	for _, e := range r.events {
		if strings.Contains(e.Component, substr) || strings.Contains(e.Type, substr) {
			out = append(out, e)
		}
	}
	return out
}

// Clear discards every retained event.
func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = r.events[:0]
}

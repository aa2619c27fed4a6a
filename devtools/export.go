package devtools

import (
	"encoding/json"
	"fmt"
	"os"
	"sync/atomic"
	"time"
)

// ExportData is the serialized form of a Recorder's history, versioned so
// older exports stay readable as the format grows.
type ExportData struct {
	Version   string        `json:"version"`
	Timestamp time.Time     `json:"timestamp"`
	Events    []EventRecord `json:"events"`
}

const exportFormatVersion = "1.0"

// Export serializes the recorder's current history to JSON.
func (r *Recorder) Export() ([]byte, error) {
	data := ExportData{
		Version:   exportFormatVersion,
		Timestamp: time.Now(),
		Events:    r.Events(),
	}
	return json.MarshalIndent(data, "", "  ")
}

// ExportFile writes Export's output to path.
func (r *Recorder) ExportFile(path string) error {
	data, err := r.Export()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Import replaces the recorder's history with events decoded from data.
// Existing events are discarded.
func (r *Recorder) Import(data []byte) error {
	var parsed ExportData
	if err := json.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("devtools: invalid export data: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = parsed.Events
	var maxID int64
	for _, e := range r.events {
		if e.ID > maxID {
			maxID = e.ID
		}
	}
	atomic.StoreInt64(&r.nextID, maxID)
	return nil
}

// ImportFile reads path and calls Import with its contents.
func (r *Recorder) ImportFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return r.Import(data)
}

// Package index keeps the task id to calendar event id mapping between runs.
package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// EventIndex maps task ids to the calendar events created for them.
type EventIndex struct {
	Mappings map[string]string `json:"mappings"`
	Path     string            `json:"-"`
	mu       sync.RWMutex
	dirty    bool
}

// NewEventIndex opens the index stored at path. A missing file gives an empty index.
func NewEventIndex(path string) (*EventIndex, error) {
	idx := &EventIndex{
		Mappings: make(map[string]string),
		Path:     path,
	}
	if err := idx.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load event index %s: %w", path, err)
	}
	return idx, nil
}

func (idx *EventIndex) Load() error {
	f, err := os.Open(idx.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	var file struct {
		Mappings map[string]string `json:"mappings"`
	}
	if err := json.NewDecoder(f).Decode(&file); err != nil {
		return err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	if file.Mappings != nil {
		idx.Mappings = file.Mappings
	}
	idx.dirty = false
	return nil
}

// Save writes the index when it changed since the last load or save.
func (idx *EventIndex) Save() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if !idx.dirty {
		return nil
	}

	dir := filepath.Dir(idx.Path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".events-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(struct {
		Mappings map[string]string `json:"mappings"`
	}{idx.Mappings}); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), idx.Path); err != nil {
		return err
	}
	idx.dirty = false
	return nil
}

func (idx *EventIndex) Get(taskID string) string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.Mappings[taskID]
}

func (idx *EventIndex) Set(taskID, eventID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.Mappings[taskID] != eventID {
		idx.Mappings[taskID] = eventID
		idx.dirty = true
	}
}

func (idx *EventIndex) Remove(taskID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if _, exists := idx.Mappings[taskID]; exists {
		delete(idx.Mappings, taskID)
		idx.dirty = true
	}
}

// Stale returns the task ids in the index that are not in keep, with their
// event ids.
func (idx *EventIndex) Stale(keep map[string]bool) map[string]string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	stale := make(map[string]string)
	for taskID, eventID := range idx.Mappings {
		if !keep[taskID] {
			stale[taskID] = eventID
		}
	}
	return stale
}

// Len returns the number of mapped tasks.
func (idx *EventIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.Mappings)
}

package server

import (
	"errors"
	"os"
	"sync"

	"github.com/harrisonrobin/taskline/pkg/export"
	"github.com/harrisonrobin/taskline/pkg/model"
)

// RecordStore loads and replaces the current task records.
type RecordStore interface {
	Load() ([]model.TaskRecord, error)
	Save(records []model.TaskRecord) error
}

// FileStore keeps records in the CSV records file. Every Load reads the file
// again so external rewrites are picked up.
type FileStore struct {
	Path string
	mu   sync.RWMutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Load returns the stored records; a missing file means no records yet.
func (s *FileStore) Load() ([]model.TaskRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records, err := export.LoadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return records, err
}

func (s *FileStore) Save(records []model.TaskRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return export.SaveFile(s.Path, records)
}

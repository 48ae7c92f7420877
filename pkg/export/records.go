// Package export reads and writes the flat task records file.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/harrisonrobin/taskline/pkg/model"
)

// Columns is the header row of the records file.
var Columns = []string{
	"type", "task_id", "parent_id", "task_name", "status", "assignee", "priority",
	"created_date", "start_date", "due_date", "list", "folder", "space", "team",
}

// WriteRecords writes records as CSV with a header row. Absent dates are empty cells.
func WriteRecords(w io.Writer, records []model.TaskRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			string(r.Type), r.TaskID, r.ParentID, r.Name, r.Status, r.Assignee, r.Priority,
			formatTime(r.CreatedDate), formatTime(r.StartDate), formatTime(r.DueDate),
			r.ListName, r.FolderName, r.SpaceName, r.TeamName,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadRecords parses a records file written by WriteRecords. Columns are
// matched by header name so extra or reordered columns are tolerated.
func ReadRecords(r io.Reader) ([]model.TaskRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	if _, ok := idx["task_id"]; !ok {
		return nil, fmt.Errorf("records file has no task_id column")
	}

	var records []model.TaskRecord
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read line %d: %w", line, err)
		}
		get := func(col string) string {
			i, ok := idx[col]
			if !ok || i >= len(row) {
				return ""
			}
			return row[i]
		}

		rec := model.TaskRecord{
			Type:       model.TaskType(get("type")),
			TaskID:     get("task_id"),
			ParentID:   get("parent_id"),
			Name:       get("task_name"),
			Status:     get("status"),
			Assignee:   get("assignee"),
			Priority:   get("priority"),
			ListName:   get("list"),
			FolderName: get("folder"),
			SpaceName:  get("space"),
			TeamName:   get("team"),
		}
		if rec.Type != model.TypeSubtask {
			rec.Type = model.TypeTask
		}
		if rec.ParentID == "" {
			rec.ParentID = rec.TaskID
		}
		for _, f := range []struct {
			col string
			dst **time.Time
		}{
			{"created_date", &rec.CreatedDate},
			{"start_date", &rec.StartDate},
			{"due_date", &rec.DueDate},
		} {
			t, err := parseTime(get(f.col))
			if err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", line, f.col, err)
			}
			*f.dst = t
		}
		records = append(records, rec)
	}
	return records, nil
}

// SaveFile writes records to path, replacing it atomically.
func SaveFile(path string, records []model.TaskRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create records directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tasks-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create records file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteRecords(tmp, records); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write records: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// LoadFile reads the records file at path.
func LoadFile(path string) ([]model.TaskRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadRecords(f)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

var dateLayouts = []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02"}

func parseTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unrecognised date %q", s)
}

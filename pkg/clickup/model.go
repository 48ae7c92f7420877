package clickup

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// EpochMillis is a remote timestamp sent as epoch milliseconds, either as a
// numeric string ("1704067200000") or a bare number. Null, empty and
// unparseable values decode to the zero value rather than failing the task.
type EpochMillis struct {
	ms  int64
	set bool
}

// NewEpochMillis returns a set timestamp.
func NewEpochMillis(ms int64) EpochMillis {
	return EpochMillis{ms: ms, set: true}
}

// UnmarshalJSON implements the json.Unmarshaler interface for EpochMillis.
func (e *EpochMillis) UnmarshalJSON(b []byte) error {
	*e = EpochMillis{}
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return nil
		}
		ms = int64(f)
	}
	e.ms, e.set = ms, true
	return nil
}

// MarshalJSON implements the json.Marshaler interface for EpochMillis.
func (e EpochMillis) MarshalJSON() ([]byte, error) {
	if !e.set {
		return []byte("null"), nil
	}
	return []byte(`"` + strconv.FormatInt(e.ms, 10) + `"`), nil
}

// Valid reports whether a timestamp was present.
func (e EpochMillis) Valid() bool { return e.set }

// Millis returns the raw millisecond value.
func (e EpochMillis) Millis() int64 { return e.ms }

// Time converts the value to a UTC timestamp, or nil when absent.
func (e EpochMillis) Time() *time.Time {
	if !e.set {
		return nil
	}
	t := time.UnixMilli(e.ms).UTC()
	return &t
}

type Team struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Space struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Folder struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type List struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type Status struct {
	Status string `json:"status"`
	Type   string `json:"type"`
}

// Task is a task object as returned by the tasks-of-list endpoint.
// Parent and Priority are kept raw because the API sends null, strings or
// objects there depending on the task.
type Task struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Status      Status          `json:"status"`
	Parent      json.RawMessage `json:"parent"`
	Priority    json.RawMessage `json:"priority"`
	Assignees   []User          `json:"assignees"`
	DateCreated EpochMillis     `json:"date_created"`
	StartDate   EpochMillis     `json:"start_date"`
	DueDate     EpochMillis     `json:"due_date"`
}

type teamsResponse struct {
	Teams []Team `json:"teams"`
}

type spacesResponse struct {
	Spaces []Space `json:"spaces"`
}

type foldersResponse struct {
	Folders []Folder `json:"folders"`
}

type listsResponse struct {
	Lists []List `json:"lists"`
}

// TasksPage is one page of the tasks-of-list endpoint.
type TasksPage struct {
	Tasks    []Task `json:"tasks"`
	LastPage *bool  `json:"last_page"`
}

// More reports whether another page should be requested. Responses without a
// last_page marker are treated as complete.
func (p *TasksPage) More() bool {
	return p.LastPage != nil && !*p.LastPage && len(p.Tasks) > 0
}

package model

import "time"

// TaskType distinguishes top-level tasks from subtasks.
type TaskType string

const (
	TypeTask    TaskType = "task"
	TypeSubtask TaskType = "subtask"
)

// Sentinel is a placeholder value written into a record or row when the remote
// data carries nothing usable for a field.
type Sentinel string

const (
	// Unassigned marks a task with no resolvable assignee.
	Unassigned Sentinel = "Unassigned"
	// Unknown replaces an assignee entry with neither username nor email.
	Unknown Sentinel = "Unknown"
	// Unspecified marks an absent or malformed priority.
	Unspecified Sentinel = "Unspecified"
	// NotAvailable is the initials marker for an empty or unassigned assignee.
	NotAvailable Sentinel = "NA"
)

func (s Sentinel) String() string { return string(s) }

// TaskRecord is the flattened representation of one task or subtask.
type TaskRecord struct {
	Type     TaskType
	TaskID   string
	ParentID string // equals TaskID for top-level tasks
	Name     string
	Status   string
	Assignee string
	Priority string

	CreatedDate *time.Time
	StartDate   *time.Time
	DueDate     *time.Time

	ListName   string
	FolderName string
	SpaceName  string
	TeamName   string
}

// IsSubtask reports whether the record hangs under another task.
func (r TaskRecord) IsSubtask() bool {
	return r.Type == TypeSubtask
}

// DateComplete reports whether both start and due dates are set, which is
// required for the record to be placed on a timeline.
func (r TaskRecord) DateComplete() bool {
	return r.StartDate != nil && r.DueDate != nil
}

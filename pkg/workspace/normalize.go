package workspace

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/harrisonrobin/taskline/pkg/clickup"
	"github.com/harrisonrobin/taskline/pkg/model"
)

// Path is the grouping path of a list inside the workspace.
type Path struct {
	Team   string
	Space  string
	Folder string
	List   string
}

// Normalize converts a raw API task into a TaskRecord.
func Normalize(task clickup.Task, path Path) model.TaskRecord {
	rec := model.TaskRecord{
		Type:        model.TypeTask,
		TaskID:      task.ID,
		ParentID:    task.ID,
		Name:        task.Name,
		Status:      strings.ToLower(task.Status.Status),
		Assignee:    ResolveAssignees(task.Assignees),
		Priority:    priorityLabel(task.Priority),
		CreatedDate: task.DateCreated.Time(),
		StartDate:   task.StartDate.Time(),
		DueDate:     task.DueDate.Time(),
		ListName:    path.List,
		FolderName:  path.Folder,
		SpaceName:   path.Space,
		TeamName:    path.Team,
	}
	if parent, ok := parentID(task.Parent); ok {
		rec.Type = model.TypeSubtask
		rec.ParentID = parent
	}
	return rec
}

// ResolveAssignees joins the display names of users: username, else the local
// part of the email, else Unknown. No users resolves to Unassigned.
func ResolveAssignees(users []clickup.User) string {
	names := make([]string, 0, len(users))
	for _, u := range users {
		switch {
		case u.Username != "":
			names = append(names, u.Username)
		case u.Email != "":
			local, _, _ := strings.Cut(u.Email, "@")
			names = append(names, local)
		default:
			names = append(names, model.Unknown.String())
		}
	}
	if len(names) == 0 {
		return model.Unassigned.String()
	}
	return strings.Join(names, ", ")
}

// parentID reports the parent task id when the raw field is truthy.
func parentID(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, s != ""
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), n.String() != "0"
	}
	return "", false
}

// priorityLabel extracts the nested label of a populated priority object.
func priorityLabel(raw json.RawMessage) string {
	var p struct {
		Priority string `json:"priority"`
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return model.Unspecified.String()
	}
	if err := json.Unmarshal(raw, &p); err != nil || p.Priority == "" {
		return model.Unspecified.String()
	}
	return p.Priority
}

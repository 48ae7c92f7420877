package timeline

import (
	"strings"

	"github.com/harrisonrobin/taskline/pkg/model"
)

// Selection holds the values picked per filter category. An empty category
// keeps every row.
type Selection struct {
	Assignees  []string
	Priorities []string
	Statuses   []string
}

// IsEmpty reports whether no category filters anything.
func (s Selection) IsEmpty() bool {
	return len(s.Assignees) == 0 && len(s.Priorities) == 0 && len(s.Statuses) == 0
}

// ApplyFilters returns the rows matching every non-empty category of sel.
// A row matches the assignee category when one of its comma-separated names
// equals a selected name; priority and status match exactly.
func ApplyFilters(rows []model.TimelineRow, sel Selection) []model.TimelineRow {
	assignees := toSet(sel.Assignees)
	priorities := toSet(sel.Priorities)
	statuses := toSet(sel.Statuses)

	out := make([]model.TimelineRow, 0, len(rows))
	for _, row := range rows {
		if len(assignees) > 0 && !anyAssignee(row.Assignee, assignees) {
			continue
		}
		if len(priorities) > 0 && !priorities[row.Priority] {
			continue
		}
		if len(statuses) > 0 && !statuses[row.Status] {
			continue
		}
		out = append(out, row)
	}
	return out
}

func anyAssignee(assignee string, selected map[string]bool) bool {
	for _, name := range strings.Split(assignee, ",") {
		if selected[strings.TrimSpace(name)] {
			return true
		}
	}
	return false
}

func toSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

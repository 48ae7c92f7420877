package timeline

import (
	"sort"
	"strings"

	"github.com/harrisonrobin/taskline/pkg/model"
)

// FilterOptions lists the distinct values a user can filter on.
type FilterOptions struct {
	Assignees  []string `json:"assignees"`
	Priorities []string `json:"priorities"`
	Statuses   []string `json:"statuses"`
}

// Options collects the sorted distinct assignee names, priorities and
// statuses of records. Assignee strings are split on commas.
func Options(records []model.TaskRecord) FilterOptions {
	assignees := make(map[string]bool)
	priorities := make(map[string]bool)
	statuses := make(map[string]bool)
	for _, r := range records {
		for _, name := range strings.Split(r.Assignee, ",") {
			if name = strings.TrimSpace(name); name != "" {
				assignees[name] = true
			}
		}
		if p := strings.TrimSpace(r.Priority); p != "" {
			priorities[p] = true
		}
		if s := strings.TrimSpace(r.Status); s != "" {
			statuses[s] = true
		}
	}
	return FilterOptions{
		Assignees:  sortedKeys(assignees),
		Priorities: sortedKeys(priorities),
		Statuses:   sortedKeys(statuses),
	}
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

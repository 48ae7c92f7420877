// Package timeline turns task records into chart-ready timeline rows.
package timeline

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/harrisonrobin/taskline/pkg/model"
)

// ViewMode selects how records are grouped into rows.
type ViewMode string

const (
	ViewProject  ViewMode = "project"
	ViewTask     ViewMode = "task"
	ViewDetailed ViewMode = "detailed"
)

// ParseViewMode validates a view mode name.
func ParseViewMode(s string) (ViewMode, error) {
	switch ViewMode(strings.ToLower(strings.TrimSpace(s))) {
	case ViewProject:
		return ViewProject, nil
	case ViewTask:
		return ViewTask, nil
	case ViewDetailed:
		return ViewDetailed, nil
	}
	return "", fmt.Errorf("unknown view mode %q (want project, task or detailed)", s)
}

// maxInsideLabel is the longest display text still placed inside its bar.
const maxInsideLabel = 25

const (
	labelSeparator = " | "
	idMarkup       = "<span style='color:rgba(0,0,0,0.15)'>%s</span>"
)

var statusGlyphs = map[string]string{
	"to do":                    "📝",
	"selected for development": "🚦",
	"in progress":              "⏳",
	"on hold":                  "⏸️",
	"review":                   "🔍",
	"done":                     "🆗",
	"complete":                 "🎉",
}

var priorityGlyphs = map[string]string{
	"urgent": "🔴",
	"high":   "🟠",
	"normal": "🔵",
	"low":    "⚪",
}

// StatusGlyph returns the glyph of a status label, or "" when it has none.
func StatusGlyph(status string) string {
	return statusGlyphs[strings.ToLower(strings.TrimSpace(status))]
}

// PriorityGlyph returns the glyph of a priority label, or "" when it has none.
func PriorityGlyph(priority string) string {
	return priorityGlyphs[strings.ToLower(strings.TrimSpace(priority))]
}

// DateComplete keeps the records that have both a start and a due date.
func DateComplete(records []model.TaskRecord) []model.TaskRecord {
	out := make([]model.TaskRecord, 0, len(records))
	for _, r := range records {
		if r.DateComplete() {
			out = append(out, r)
		}
	}
	return out
}

// listGroup holds the date-complete records of one list in fetch order.
type listGroup struct {
	name    string
	records []model.TaskRecord
}

// groupByList groups records by list name, lists ordered by first appearance.
func groupByList(records []model.TaskRecord) []listGroup {
	var groups []listGroup
	index := make(map[string]int)
	for _, r := range records {
		i, ok := index[r.ListName]
		if !ok {
			i = len(groups)
			index[r.ListName] = i
			groups = append(groups, listGroup{name: r.ListName})
		}
		groups[i].records = append(groups[i].records, r)
	}
	return groups
}

// Build produces the timeline rows for records under mode. Records missing a
// start or due date never reach a row.
func Build(records []model.TaskRecord, mode ViewMode) []model.TimelineRow {
	groups := groupByList(DateComplete(records))
	palette := NewPalette()

	var rows []model.TimelineRow
	for _, g := range groups {
		color := palette.Color(g.name)
		if mode == ViewProject {
			rows = append(rows, headerRow(g, color))
			continue
		}

		tasks := byType(g.records, model.TypeTask, "")
		for _, task := range tasks {
			rows = append(rows, recordRow(task, model.RowTask, mode == ViewDetailed, color))
			if mode != ViewDetailed {
				continue
			}
			for _, sub := range byType(g.records, model.TypeSubtask, task.TaskID) {
				rows = append(rows, recordRow(sub, model.RowSubtask, true, color))
			}
		}
	}
	return rows
}

// byType selects records of type t (and, for subtasks, of the given parent)
// sorted by start date; ties keep fetch order.
func byType(records []model.TaskRecord, t model.TaskType, parentID string) []model.TaskRecord {
	var out []model.TaskRecord
	for _, r := range records {
		if r.Type != t {
			continue
		}
		if t == model.TypeSubtask && r.ParentID != parentID {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartDate.Before(*out[j].StartDate)
	})
	return out
}

func headerRow(g listGroup, color string) model.TimelineRow {
	var start, end time.Time
	for i, r := range g.records {
		if i == 0 || r.StartDate.Before(start) {
			start = *r.StartDate
		}
		if i == 0 || r.DueDate.After(end) {
			end = *r.DueDate
		}
	}
	return model.TimelineRow{
		Kind:        model.RowHeader,
		GroupLabel:  "📦 " + g.name,
		Start:       start,
		End:         end,
		Project:     g.name,
		DisplayText: "📁 " + g.name,
		TextAnchor:  anchorFor("📁 " + g.name),
		Color:       color,
	}
}

func recordRow(r model.TaskRecord, kind model.RowKind, withID bool, color string) model.TimelineRow {
	parts := []string{Initials(r.Assignee), StatusGlyph(r.Status), PriorityGlyph(r.Priority)}
	if withID {
		id := r.TaskID
		if kind == model.RowTask {
			id = fmt.Sprintf(idMarkup, id)
		}
		parts = append(parts, id)
	}
	return model.TimelineRow{
		Kind:        kind,
		GroupLabel:  strings.Join(parts, labelSeparator),
		Start:       *r.StartDate,
		End:         *r.DueDate,
		Project:     r.ListName,
		Assignee:    r.Assignee,
		Priority:    r.Priority,
		Status:      r.Status,
		DisplayText: r.Name,
		TextAnchor:  anchorFor(r.Name),
		Color:       color,
		TaskID:      r.TaskID,
		ParentID:    r.ParentID,
	}
}

func anchorFor(label string) model.TextAnchor {
	if utf8.RuneCountInString(label) > maxInsideLabel {
		return model.AnchorOutside
	}
	return model.AnchorInside
}

// Initials abbreviates a comma-separated assignee string: for each name, the
// upper-cased first letters of up to its first two words.
func Initials(assignee string) string {
	if isUnassigned(assignee) {
		return model.NotAvailable.String()
	}
	var out []string
	for _, name := range strings.Split(assignee, ",") {
		words := strings.Fields(name)
		if len(words) == 0 {
			continue
		}
		if len(words) > 2 {
			words = words[:2]
		}
		var b strings.Builder
		for _, w := range words {
			first, _ := utf8.DecodeRuneInString(w)
			b.WriteRune(unicode.ToUpper(first))
		}
		out = append(out, b.String())
	}
	if len(out) == 0 {
		return model.NotAvailable.String()
	}
	return strings.Join(out, ", ")
}

func isUnassigned(assignee string) bool {
	a := strings.TrimSpace(assignee)
	return a == "" || a == model.Unassigned.String()
}

package util

import (
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/harrisonrobin/taskline/pkg/model"
)

// ExtendedPropertyKey is the private event property holding the task id.
const ExtendedPropertyKey = "taskline_id"

const dateLayout = "2006-01-02"

// closedStatuses are the status labels shown as finished.
var closedStatuses = map[string]bool{
	"done":     true,
	"complete": true,
	"closed":   true,
}

// IsClosed reports whether status counts as finished.
func IsClosed(status string) bool {
	return closedStatuses[strings.ToLower(strings.TrimSpace(status))]
}

// ConvertRecordToEvent builds an all-day event spanning the record's start and
// due dates. colorID is the calendar colour of the record's list.
func ConvertRecordToEvent(rec model.TaskRecord, colorID string, now time.Time) (*calendar.Event, error) {
	if !rec.DateComplete() {
		return nil, fmt.Errorf("task %s has no start or due date", rec.TaskID)
	}

	start := rec.StartDate.UTC()
	end := rec.DueDate.UTC()
	if end.Before(start) {
		end = start
	}

	// 1. Title
	summary := rec.Name
	if IsClosed(rec.Status) {
		summary = "✓ " + rec.Name
	} else if end.AddDate(0, 0, 1).Before(now) {
		summary = "! " + rec.Name
	}

	// 2. Description
	var desc strings.Builder
	fmt.Fprintf(&desc, "Status: %s\n", rec.Status)
	fmt.Fprintf(&desc, "Priority: %s\n", rec.Priority)
	fmt.Fprintf(&desc, "Assignee: %s\n", rec.Assignee)
	fmt.Fprintf(&desc, "List: %s\n", listPath(rec))
	if rec.IsSubtask() {
		fmt.Fprintf(&desc, "Parent: %s\n", rec.ParentID)
	}
	fmt.Fprintf(&desc, "ID: %s\n", rec.TaskID)

	return &calendar.Event{
		Summary:     summary,
		Description: desc.String(),
		ColorId:     colorID,
		// All-day events end on the day after the last covered day.
		Start: &calendar.EventDateTime{Date: start.Format(dateLayout)},
		End:   &calendar.EventDateTime{Date: end.AddDate(0, 0, 1).Format(dateLayout)},
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{ExtendedPropertyKey: rec.TaskID},
		},
	}, nil
}

// EventNeedsUpdate returns a patch with the fields of target that differ from
// existing, or nil when they already match.
func EventNeedsUpdate(existing, target *calendar.Event) *calendar.Event {
	patch := &calendar.Event{}
	needsUpdate := false

	if existing.Summary != target.Summary {
		patch.Summary = target.Summary
		needsUpdate = true
	}
	if existing.Description != target.Description {
		patch.Description = target.Description
		needsUpdate = true
	}
	if existing.ColorId != target.ColorId {
		patch.ColorId = target.ColorId
		needsUpdate = true
	}
	if eventDate(existing.Start) != eventDate(target.Start) || eventDate(existing.End) != eventDate(target.End) {
		patch.Start = target.Start
		patch.End = target.End
		needsUpdate = true
	}

	if needsUpdate {
		return patch
	}
	return nil
}

// eventDate returns the calendar day of an event boundary, whether the event
// is all-day or timed.
func eventDate(edt *calendar.EventDateTime) string {
	if edt == nil {
		return ""
	}
	if edt.Date != "" {
		return edt.Date
	}
	if t, err := time.Parse(time.RFC3339, edt.DateTime); err == nil {
		return t.UTC().Format(dateLayout)
	}
	return ""
}

func listPath(rec model.TaskRecord) string {
	var parts []string
	for _, p := range []string{rec.TeamName, rec.SpaceName, rec.FolderName, rec.ListName} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " / ")
}

// GetTaskIDFromEventDescription parses the task ID from the event description.
func GetTaskIDFromEventDescription(description string) (string, bool) {
	for _, line := range strings.Split(description, "\n") {
		if id, ok := strings.CutPrefix(line, "ID: "); ok && id != "" {
			return strings.TrimSpace(id), true
		}
	}
	return "", false
}

// Package google publishes task records to a Google Calendar.
package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"

	"github.com/harrisonrobin/taskline/pkg/colors"
	"github.com/harrisonrobin/taskline/pkg/index"
	"github.com/harrisonrobin/taskline/pkg/logging"
	"github.com/harrisonrobin/taskline/pkg/model"
	"github.com/harrisonrobin/taskline/pkg/util"
)

// Action is what a sync did to a record's event.
type Action string

const (
	ActionCreated   Action = "created"
	ActionUpdated   Action = "updated"
	ActionUnchanged Action = "unchanged"
)

// CalendarClient is a Google Calendar API client.
type CalendarClient struct {
	srv        *calendar.Service
	calendarID string
	index      *index.EventIndex
	colors     *colors.ColorCache
	log        zerolog.Logger
}

// NewCalendarClient creates a new Google Calendar client. idx and cache may be nil.
func NewCalendarClient(srv *calendar.Service, calendarID string, idx *index.EventIndex, cache *colors.ColorCache) *CalendarClient {
	return &CalendarClient{
		srv:        srv,
		calendarID: calendarID,
		index:      idx,
		colors:     cache,
		log:        logging.Component("calendar"),
	}
}

// CalendarID returns the id of the bound calendar.
func (c *CalendarClient) CalendarID() string {
	return c.calendarID
}

// SyncRecord creates the record's event or patches the existing one.
func (c *CalendarClient) SyncRecord(ctx context.Context, rec model.TaskRecord, now time.Time) (*calendar.Event, Action, error) {
	colorID := colors.NoListColor
	if c.colors != nil {
		colorID = c.colors.GetColorID(rec.ListName)
	}
	event, err := util.ConvertRecordToEvent(rec, colorID, now)
	if err != nil {
		return nil, "", err
	}

	var existing *calendar.Event
	// 1. Local index first
	if c.index != nil {
		if eventID := c.index.Get(rec.TaskID); eventID != "" {
			existing, err = c.srv.Events.Get(c.calendarID, eventID).Context(ctx).Do()
			if err != nil || existing.Status == "cancelled" {
				existing = nil
			}
		}
	}

	// 2. Search by extended property
	if existing == nil {
		existing, err = c.GetEventByTaskID(ctx, rec.TaskID)
		if err != nil {
			return nil, "", fmt.Errorf("error searching for event: %w", err)
		}
	}

	if existing != nil {
		patch := util.EventNeedsUpdate(existing, event)
		if patch == nil {
			c.remember(rec.TaskID, existing.Id)
			return existing, ActionUnchanged, nil
		}
		updated, err := c.PatchEvent(ctx, existing.Id, patch)
		if err != nil {
			return nil, "", err
		}
		c.remember(rec.TaskID, updated.Id)
		return updated, ActionUpdated, nil
	}

	created, err := c.srv.Events.Insert(c.calendarID, event).Context(ctx).Do()
	if err != nil {
		return nil, "", err
	}
	c.remember(rec.TaskID, created.Id)
	return created, ActionCreated, nil
}

func (c *CalendarClient) remember(taskID, eventID string) {
	if c.index != nil {
		c.index.Set(taskID, eventID)
	}
}

// PatchEvent performs a partial update on an event.
func (c *CalendarClient) PatchEvent(ctx context.Context, eventID string, patch *calendar.Event) (*calendar.Event, error) {
	return c.srv.Events.Patch(c.calendarID, eventID, patch).Context(ctx).Do()
}

// DeleteEvent deletes an event from the calendar. Events that are already gone
// are not an error.
func (c *CalendarClient) DeleteEvent(ctx context.Context, eventID string) error {
	err := c.srv.Events.Delete(c.calendarID, eventID).Context(ctx).Do()
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && (apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone) {
		return nil
	}
	return err
}

// ListEvents fetches events from the calendar starting at timeMin.
func (c *CalendarClient) ListEvents(ctx context.Context, timeMin time.Time) ([]*calendar.Event, error) {
	events, err := c.srv.Events.List(c.calendarID).TimeMin(timeMin.Format(time.RFC3339)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve events from calendar: %w", err)
	}
	return events.Items, nil
}

// GetEventByTaskID searches for the event carrying taskID in its private
// extended properties.
func (c *CalendarClient) GetEventByTaskID(ctx context.Context, taskID string) (*calendar.Event, error) {
	events, err := c.srv.Events.List(c.calendarID).
		PrivateExtendedProperty(fmt.Sprintf("%s=%s", util.ExtendedPropertyKey, taskID)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	if len(events.Items) > 0 {
		return events.Items[0], nil
	}
	return nil, nil
}

// PublishSummary counts what Publish did.
type PublishSummary struct {
	Created   int
	Updated   int
	Unchanged int
	Skipped   int
	Removed   int
	Failed    int
}

// Publish syncs every date-complete record. Records without both dates are
// skipped and per-record failures are logged and counted. With prune set,
// indexed events of tasks that were not published are deleted.
func (c *CalendarClient) Publish(ctx context.Context, records []model.TaskRecord, now time.Time, prune bool) PublishSummary {
	var sum PublishSummary
	seen := make(map[string]bool, len(records))

	for _, rec := range records {
		if !rec.DateComplete() {
			sum.Skipped++
			continue
		}
		seen[rec.TaskID] = true
		event, action, err := c.SyncRecord(ctx, rec, now)
		if err != nil {
			sum.Failed++
			c.log.Warn().Err(err).Str("task_id", rec.TaskID).Str("task", rec.Name).Msg("failed to sync task")
			continue
		}
		switch action {
		case ActionCreated:
			sum.Created++
		case ActionUpdated:
			sum.Updated++
		default:
			sum.Unchanged++
		}
		c.log.Debug().Str("task_id", rec.TaskID).Str("event_id", event.Id).Str("action", string(action)).Msg("synced task")
	}

	if prune && c.index != nil {
		for taskID, eventID := range c.index.Stale(seen) {
			if err := c.DeleteEvent(ctx, eventID); err != nil {
				sum.Failed++
				c.log.Warn().Err(err).Str("task_id", taskID).Msg("failed to delete event")
				continue
			}
			c.index.Remove(taskID)
			sum.Removed++
		}
	}
	return sum
}

package google

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/harrisonrobin/taskline/pkg/auth"
	"github.com/harrisonrobin/taskline/pkg/colors"
	"github.com/harrisonrobin/taskline/pkg/index"
)

// Scopes are the OAuth scopes the calendar sink needs.
var Scopes = []string{
	calendar.CalendarEventsScope,
	calendar.CalendarReadonlyScope,
}

// Authorize returns an HTTP client for the Google Calendar API, running the
// consent flow through codes when no token is stored yet.
func Authorize(ctx context.Context, credentialsFile, tokenFile string, codes auth.CodeSource) (*http.Client, error) {
	return auth.GoogleClient(ctx, credentialsFile, tokenFile, Scopes, codes)
}

// NewClient creates a calendar client bound to the calendar whose summary is
// calendarName.
func NewClient(ctx context.Context, httpClient *http.Client, calendarName string, idx *index.EventIndex, cache *colors.ColorCache, opts ...option.ClientOption) (*CalendarClient, error) {
	srv, err := calendar.NewService(ctx, append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Calendar client: %w", err)
	}

	calendarID, err := FindCalendarID(ctx, srv, calendarName)
	if err != nil {
		return nil, err
	}
	return NewCalendarClient(srv, calendarID, idx, cache), nil
}

// FindCalendarID looks a calendar up by its summary.
func FindCalendarID(ctx context.Context, srv *calendar.Service, calendarName string) (string, error) {
	names, err := ListCalendars(ctx, srv)
	if err != nil {
		return "", err
	}
	for id, name := range names {
		if name == calendarName {
			return id, nil
		}
	}
	return "", fmt.Errorf("calendar '%s' not found", calendarName)
}

// ListCalendars returns the summaries of the user's calendars keyed by id.
func ListCalendars(ctx context.Context, srv *calendar.Service) (map[string]string, error) {
	names := make(map[string]string)
	err := srv.CalendarList.List().Pages(ctx, func(page *calendar.CalendarList) error {
		for _, item := range page.Items {
			names[item.Id] = item.Summary
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve calendar list: %w", err)
	}
	return names, nil
}

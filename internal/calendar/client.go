package calendar

import (
	"context"
	"errors"
	"fmt"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/nboulfrad/taskforge/internal/infrastructure/config"
	"github.com/nboulfrad/taskforge/internal/infrastructure/logging"
)

// Sentinel errors for calendar operations.
var (
	ErrDisabled      = errors.New("calendar integration is disabled")
	ErrMissingFields = errors.New("summary, start and end are required")
	ErrEventNotFound = errors.New("calendar event not found")
)

// EventInput describes an event to create, optionally linked to a task.
type EventInput struct {
	TaskID        int64  `json:"task_id,omitempty"`
	Summary       string `json:"summary"`
	Description   string `json:"description,omitempty"`
	StartDateTime string `json:"start_date_time"`
	EndDateTime   string `json:"end_date_time"`
	Location      string `json:"location,omitempty"`
}

// Event is the subset of a Google Calendar event exposed to clients.
type Event struct {
	ID       string `json:"id"`
	HTMLLink string `json:"html_link"`
	Summary  string `json:"summary"`
	Start    string `json:"start"`
	End      string `json:"end"`
}

// Client talks to one configured Google calendar.
type Client struct {
	svc        *gcal.Service
	calendarID string
	timezone   string
	logger     *logging.Logger
}

// NewClient builds a calendar client from service account credentials.
// Returns ErrDisabled when the integration is switched off in config.
func NewClient(ctx context.Context, cfg config.CalendarConfig, logger *logging.Logger) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}
	if logger == nil {
		logger = logging.Default()
	}

	svc, err := gcal.NewService(ctx,
		option.WithCredentialsFile(cfg.CredentialsFile),
		option.WithScopes(gcal.CalendarScope),
	)
	if err != nil {
		return nil, fmt.Errorf("building calendar service: %w", err)
	}

	calendarID := cfg.CalendarID
	if calendarID == "" {
		calendarID = "primary"
	}

	return &Client{
		svc:        svc,
		calendarID: calendarID,
		timezone:   cfg.Timezone,
		logger:     logger.With("component", "calendar"),
	}, nil
}

// CreateEvent inserts an event into the configured calendar.
func (c *Client) CreateEvent(ctx context.Context, input EventInput) (*Event, error) {
	if input.Summary == "" || input.StartDateTime == "" || input.EndDateTime == "" {
		return nil, ErrMissingFields
	}

	event := &gcal.Event{
		Summary:     input.Summary,
		Description: input.Description,
		Location:    input.Location,
		Start: &gcal.EventDateTime{
			DateTime: input.StartDateTime,
			TimeZone: c.timezone,
		},
		End: &gcal.EventDateTime{
			DateTime: input.EndDateTime,
			TimeZone: c.timezone,
		},
	}

	created, err := c.svc.Events.Insert(c.calendarID, event).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("creating calendar event: %w", err)
	}

	c.logger.Info("calendar event created", "event_id", created.Id, "task_id", input.TaskID)
	return fromGoogleEvent(created), nil
}

// GetEvent fetches a single event by ID.
func (c *Client) GetEvent(ctx context.Context, eventID string) (*Event, error) {
	event, err := c.svc.Events.Get(c.calendarID, eventID).Context(ctx).Do()
	if err != nil {
		if isNotFound(err) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("fetching calendar event: %w", err)
	}
	return fromGoogleEvent(event), nil
}

// DeleteEvent removes an event by ID. Deleting an already-gone event
// returns ErrEventNotFound.
func (c *Client) DeleteEvent(ctx context.Context, eventID string) error {
	if err := c.svc.Events.Delete(c.calendarID, eventID).Context(ctx).Do(); err != nil {
		if isNotFound(err) {
			return ErrEventNotFound
		}
		return fmt.Errorf("deleting calendar event: %w", err)
	}

	c.logger.Info("calendar event deleted", "event_id", eventID)
	return nil
}

func fromGoogleEvent(e *gcal.Event) *Event {
	out := &Event{
		ID:       e.Id,
		HTMLLink: e.HtmlLink,
		Summary:  e.Summary,
	}
	if e.Start != nil {
		out.Start = e.Start.DateTime
	}
	if e.End != nil {
		out.End = e.End.DateTime
	}
	return out
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && (apiErr.Code == 404 || apiErr.Code == 410)
}

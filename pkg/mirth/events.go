package mirth

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// EventFilter narrows an event listing. Zero values are omitted from the
// query; Limit defaults to 20.
type EventFilter struct {
	Limit   int
	Offset  int
	Level   string `validate:"omitempty,oneof=INFORMATION WARNING ERROR"`
	Outcome string `validate:"omitempty,oneof=SUCCESS FAILURE"`
	UserID  *int
	Name    string
}

func (f *EventFilter) query() url.Values {
	q := url.Values{}
	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(f.Offset))
	if f.Level != "" {
		q.Set("level", f.Level)
	}
	if f.Outcome != "" {
		q.Set("outcome", f.Outcome)
	}
	if f.UserID != nil {
		q.Set("userId", strconv.Itoa(*f.UserID))
	}
	if f.Name != "" {
		q.Set("name", f.Name)
	}
	return q
}

// Events lists server events matching the filter, newest first. The filter
// is rule-validated before any request is made.
func (c *Client) Events(ctx context.Context, filter EventFilter) ([]Event, error) {
	if err := validate.Struct(&filter); err != nil {
		return nil, fmt.Errorf("invalid event filter: %w", err)
	}
	payload, err := c.get(ctx, "/events", filter.query())
	if err != nil {
		return nil, err
	}
	list, err := DecodeEventList(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode event list: %w", err)
	}
	return list.Events, nil
}

// Event fetches one event by id.
func (c *Client) Event(ctx context.Context, id int64) (*Event, error) {
	payload, err := c.get(ctx, fmt.Sprintf("/events/%d", id), nil)
	if err != nil {
		return nil, err
	}
	event, err := DecodeEvent(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode event %d: %w", id, err)
	}
	return event, nil
}

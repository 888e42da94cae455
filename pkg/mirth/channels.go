package mirth

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Channels lists every channel defined on the server.
func (c *Client) Channels(ctx context.Context) ([]Channel, error) {
	payload, err := c.get(ctx, "/channels", nil)
	if err != nil {
		return nil, err
	}
	list, err := DecodeChannelList(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode channel list: %w", err)
	}
	return list.Channels, nil
}

// ChannelsByName filters the channel listing to exact name matches. The
// API has no name parameter, so the filter is applied client-side.
func (c *Client) ChannelsByName(ctx context.Context, name string) ([]Channel, error) {
	channels, err := c.Channels(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Filter(channels, func(ch Channel, _ int) bool {
		return ch.Name == name
	}), nil
}

// Channel returns an operations handle scoped to one channel id.
func (c *Client) Channel(id uuid.UUID) *ChannelService {
	return &ChannelService{client: c, id: id}
}

// ChannelService exposes the per-channel operations of the API. Obtain
// instances from Client.Channel.
type ChannelService struct {
	client *Client
	id     uuid.UUID
}

// ID returns the channel id the service is scoped to.
func (s *ChannelService) ID() uuid.UUID { return s.id }

func (s *ChannelService) path(suffix string) string {
	return "/channels/" + s.id.String() + suffix
}

// Info fetches the channel definition.
func (s *ChannelService) Info(ctx context.Context) (*Channel, error) {
	payload, err := s.client.get(ctx, s.path(""), nil)
	if err != nil {
		return nil, err
	}
	channel, err := DecodeChannel(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode channel %s: %w", s.id, err)
	}
	return channel, nil
}

// Statistics fetches the channel's lifetime statistics.
func (s *ChannelService) Statistics(ctx context.Context) (*ChannelStatistics, error) {
	payload, err := s.client.get(ctx, s.path("/statistics"), nil)
	if err != nil {
		return nil, err
	}
	stats, err := DecodeChannelStatistics(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode statistics for channel %s: %w", s.id, err)
	}
	return stats, nil
}

package mirth

import (
	"context"
	"fmt"
)

// Statistics returns the lifetime statistics of every channel.
func (c *Client) Statistics(ctx context.Context) ([]ChannelStatistics, error) {
	payload, err := c.get(ctx, "/channels/statistics", nil)
	if err != nil {
		return nil, err
	}
	list, err := DecodeChannelStatisticsList(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode statistics list: %w", err)
	}
	return list.Statistics, nil
}

// DashboardStatuses returns the deploy state of every channel as shown on
// the engine dashboard.
func (c *Client) DashboardStatuses(ctx context.Context) ([]DashboardStatus, error) {
	payload, err := c.get(ctx, "/channels/statuses", nil)
	if err != nil {
		return nil, err
	}
	list, err := DecodeDashboardStatusList(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode dashboard statuses: %w", err)
	}
	return list.Statuses, nil
}

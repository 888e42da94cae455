package mirth

import (
	"context"
	"fmt"
)

// Groups lists the channel groups configured on the server.
func (c *Client) Groups(ctx context.Context) ([]ChannelGroup, error) {
	payload, err := c.get(ctx, "/channelgroups", nil)
	if err != nil {
		return nil, err
	}
	list, err := DecodeChannelGroupList(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode channel groups: %w", err)
	}
	return list.Groups, nil
}

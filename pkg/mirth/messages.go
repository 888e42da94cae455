package mirth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// MessageFilter narrows a message listing.
type MessageFilter struct {
	// Limit caps the number of returned messages; defaults to 20.
	Limit  int
	Offset int
	// IncludeContent asks the engine for the stored content blocks of each
	// connector leg.
	IncludeContent bool
	// Status keeps only messages whose current status matches. Values are
	// upper-cased before validation.
	Status       []string `validate:"dive,oneof=RECEIVED FILTERED TRANSFORMED SENT QUEUED ERROR PENDING"`
	MinMessageID *int64
	MaxMessageID *int64
}

// normalize upper-cases the status values onto a fresh slice, leaving the
// caller's slice untouched.
func (f *MessageFilter) normalize() {
	if len(f.Status) == 0 {
		return
	}
	statuses := make([]string, len(f.Status))
	for i, s := range f.Status {
		statuses[i] = strings.ToUpper(s)
	}
	f.Status = statuses
}

func (f *MessageFilter) query() url.Values {
	q := url.Values{}
	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(f.Offset))
	q.Set("includeContent", strconv.FormatBool(f.IncludeContent))
	for _, s := range f.Status {
		q.Add("status", s)
	}
	if f.MinMessageID != nil {
		q.Set("minMessageId", strconv.FormatInt(*f.MinMessageID, 10))
	}
	if f.MaxMessageID != nil {
		q.Set("maxMessageId", strconv.FormatInt(*f.MaxMessageID, 10))
	}
	return q
}

// Messages lists stored messages for the channel, newest first. An empty
// list reply decodes to an empty slice.
func (s *ChannelService) Messages(ctx context.Context, filter MessageFilter) ([]ChannelMessage, error) {
	filter.normalize()
	if err := validate.Struct(&filter); err != nil {
		return nil, fmt.Errorf("invalid message filter: %w", err)
	}
	payload, err := s.client.get(ctx, s.path("/messages"), filter.query())
	if err != nil {
		return nil, err
	}
	list, err := DecodeChannelMessageList(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode message list for channel %s: %w", s.id, err)
	}
	return list.Messages, nil
}

// Message fetches one stored message. A message the engine no longer holds
// returns nil without error.
func (s *ChannelService) Message(ctx context.Context, messageID int64, includeContent bool) (*ChannelMessage, error) {
	q := url.Values{}
	q.Set("includeContent", strconv.FormatBool(includeContent))
	payload, err := s.client.get(ctx, s.path(fmt.Sprintf("/messages/%d", messageID)), q)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, nil
	}
	message, err := DecodeChannelMessage(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode message %d: %w", messageID, err)
	}
	return message, nil
}

// PreviewMessage fetches a message's listing row without its content
// blocks, a one-row window over the messages query.
func (s *ChannelService) PreviewMessage(ctx context.Context, messageID int64) (*ChannelMessage, error) {
	messages, err := s.Messages(ctx, MessageFilter{
		Limit:        1,
		MinMessageID: &messageID,
		MaxMessageID: &messageID,
	})
	if err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return nil, nil
	}
	return &messages[0], nil
}

// ReprocessOptions control a message reprocess request.
type ReprocessOptions struct {
	// Replace overwrites the original message rather than storing a copy.
	Replace bool
	// FilterDestinations limits reprocessing to the original destination
	// set.
	FilterDestinations bool
}

// Reprocess runs a stored message through the channel again and returns the
// message's refreshed state.
func (s *ChannelService) Reprocess(ctx context.Context, messageID int64, opts ReprocessOptions) (*ChannelMessage, error) {
	q := url.Values{}
	q.Set("replace", strconv.FormatBool(opts.Replace))
	q.Set("filterDestinations", strconv.FormatBool(opts.FilterDestinations))
	path := s.path(fmt.Sprintf("/messages/%d/_reprocess", messageID))
	if _, err := s.client.post(ctx, path, q, "", nil); err != nil {
		return nil, err
	}
	return s.Message(ctx, messageID, true)
}

// PostMessageOptions adjust message posting.
type PostMessageOptions struct {
	// SkipErrorCheck returns the stored message without failing on ERROR
	// connector statuses.
	SkipErrorCheck bool
}

// PostMessage sends a raw message to the channel, waits for the engine to
// store it, and returns the stored message. Unless disabled via opts, an
// ERROR status on any connector leg is reported as a *PostError carrying
// the connector's stored error content. Servers that acknowledge without a
// message id return (nil, nil).
func (s *ChannelService) PostMessage(ctx context.Context, msg *RawMessage, opts *PostMessageOptions) (*ChannelMessage, error) {
	if msg == nil {
		return nil, errors.New("raw message cannot be nil")
	}
	payload, err := msg.XML()
	if err != nil {
		return nil, fmt.Errorf("failed to encode raw message: %w", err)
	}

	endpoint := s.path("/messages")
	if s.client.supportsMessagesWithObj() {
		endpoint = s.path("/messagesWithObj")
	}
	reply, err := s.client.post(ctx, endpoint, nil, "application/xml", strings.NewReader(payload))
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(reply)) == 0 {
		return nil, nil
	}

	posted, err := decodeInto[messageIDResponse](reply)
	if err != nil {
		return nil, fmt.Errorf("failed to decode post reply: %w", err)
	}
	stored, err := s.Message(ctx, posted.ID, true)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, &PostError{Message: fmt.Sprintf("message %d was accepted but is not stored", posted.ID)}
	}
	if opts == nil || !opts.SkipErrorCheck {
		if err := checkConnectorErrors(stored); err != nil {
			return nil, err
		}
	}
	return stored, nil
}

// checkConnectorErrors surfaces the stored error content of the first
// connector leg, in metaData order, that finished in ERROR.
func checkConnectorErrors(message *ChannelMessage) error {
	keys := lo.Keys(message.ConnectorMessages)
	sort.Ints(keys)
	for _, key := range keys {
		cm := message.ConnectorMessages[key]
		if cm.Status != StatusError {
			continue
		}
		reason := fmt.Sprintf("connector %d finished in ERROR with code %d", cm.MetaDataID, cm.ErrorCode)
		if cm.Response != nil && cm.Response.Content != nil {
			if stored, err := DecodeErrorResponse([]byte(*cm.Response.Content)); err == nil {
				if stored.Message != nil {
					reason = *stored.Message
				} else if stored.Error != nil {
					reason = *stored.Error
				}
			}
		}
		return &PostError{Message: reason}
	}
	return nil
}

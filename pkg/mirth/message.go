package mirth

import (
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/illmade-knight/go-mirth/pkg/xmlbind"
	"github.com/illmade-knight/go-mirth/pkg/xmlmap"
	"github.com/samber/lo"
)

// Statuses reported for messages and their connector legs.
const (
	StatusReceived    = "RECEIVED"
	StatusFiltered    = "FILTERED"
	StatusTransformed = "TRANSFORMED"
	StatusSent        = "SENT"
	StatusQueued      = "QUEUED"
	StatusError       = "ERROR"
	StatusPending     = "PENDING"
)

// ConnectorMessageData is one stored content block of a connector message
// (raw, encoded, sent or response).
type ConnectorMessageData struct {
	ChannelID     uuid.UUID
	Content       *string
	ContentType   string
	DataType      *string
	Encrypted     bool
	MessageID     int64
	MessageDataID *string
}

func (d *ConnectorMessageData) bind(doc *xmlbind.Doc) {
	d.ChannelID = doc.UUID("channelId")
	d.Content = doc.StringOpt("content")
	d.ContentType = doc.String("contentType")
	d.DataType = doc.StringOpt("dataType")
	d.Encrypted = doc.Bool("encrypted")
	d.MessageID = doc.Int64("messageId")
	d.MessageDataID = doc.StringOpt("messageDataId")
}

func (d *ConnectorMessageData) xmlValue() xmlmap.Value {
	o := xmlmap.NewObject()
	o.Set("channelId", d.ChannelID.String())
	setOpt(o, "content", d.Content)
	o.Set("contentType", d.ContentType)
	setOpt(o, "dataType", d.DataType)
	o.Set("encrypted", strconv.FormatBool(d.Encrypted))
	o.Set("messageId", strconv.FormatInt(d.MessageID, 10))
	setOpt(o, "messageDataId", d.MessageDataID)
	return o
}

// ConnectorMessage is one leg of a message's journey through a channel.
// MetaDataID 0 is the source connector; higher ids are destinations.
type ConnectorMessage struct {
	ChainID       int
	OrderID       int
	ServerID      uuid.UUID
	ChannelID     uuid.UUID
	ChannelName   string
	ConnectorName *string
	MessageID     int64
	ErrorCode     int
	SendAttempts  int
	Status        string `validate:"omitempty,oneof=RECEIVED FILTERED TRANSFORMED SENT QUEUED ERROR PENDING"`
	ReceivedDate  time.Time
	MetaDataID    int
	MetaDataMap   map[string]string
	Raw           *ConnectorMessageData
	Encoded       *ConnectorMessageData
	Sent          *ConnectorMessageData
	Response      *ConnectorMessageData
}

func (m *ConnectorMessage) rootElement() string { return "connectorMessage" }

func (m *ConnectorMessage) bind(d *xmlbind.Doc) {
	m.ChainID = d.Int("chainId")
	m.OrderID = d.Int("orderId")
	m.ServerID = d.UUID("serverId")
	m.ChannelID = d.UUID("channelId")
	m.ChannelName = d.String("channelName")
	m.ConnectorName = d.StringOpt("connectorName")
	m.MessageID = d.Int64("messageId")
	m.ErrorCode = d.Int("errorCode")
	m.SendAttempts = d.Int("sendAttempts")
	m.Status = d.String("status")
	m.ReceivedDate = d.Time("receivedDate")
	m.MetaDataID = d.Int("metaDataId")
	m.MetaDataMap = d.StringMap("metaDataMap")
	m.Raw = bindData(d, "raw")
	m.Encoded = bindData(d, "encoded")
	m.Sent = bindData(d, "sent")
	m.Response = bindData(d, "response")
}

func bindData(d *xmlbind.Doc, name string) *ConnectorMessageData {
	child, ok := d.Child(name)
	if !ok {
		return nil
	}
	data := &ConnectorMessageData{}
	data.bind(child)
	return data
}

func (m *ConnectorMessage) xmlValue() xmlmap.Value {
	o := xmlmap.NewObject()
	o.Set("chainId", strconv.Itoa(m.ChainID))
	o.Set("orderId", strconv.Itoa(m.OrderID))
	o.Set("serverId", m.ServerID.String())
	o.Set("channelId", m.ChannelID.String())
	o.Set("channelName", m.ChannelName)
	setOpt(o, "connectorName", m.ConnectorName)
	o.Set("messageId", strconv.FormatInt(m.MessageID, 10))
	o.Set("errorCode", strconv.Itoa(m.ErrorCode))
	o.Set("sendAttempts", strconv.Itoa(m.SendAttempts))
	o.Set("status", m.Status)
	o.Set("receivedDate", xmlbind.EpochMillisValue(m.ReceivedDate))
	o.Set("metaDataId", strconv.Itoa(m.MetaDataID))
	o.Set("metaDataMap", xmlbind.StringMapValue(m.MetaDataMap))
	setData(o, "raw", m.Raw)
	setData(o, "encoded", m.Encoded)
	setData(o, "sent", m.Sent)
	setData(o, "response", m.Response)
	return o
}

func setData(o *xmlmap.Object, name string, d *ConnectorMessageData) {
	if d != nil {
		o.Set(name, d.xmlValue())
	}
}

// DecodeConnectorMessage decodes a single connector message document.
func DecodeConnectorMessage(data []byte, forceList ...string) (*ConnectorMessage, error) {
	return decodeInto[ConnectorMessage](data, forceList...)
}

// XML renders the connector message under its envelope element.
func (m *ConnectorMessage) XML() (string, error) { return encodeRecord(m) }

// ChannelMessage is a stored message and its connector legs, keyed by the
// wire entry key (the connector metaData id on current servers).
type ChannelMessage struct {
	MessageID         int64
	ServerID          uuid.UUID
	ChannelID         uuid.UUID
	Processed         bool
	ReceivedDate      time.Time
	ConnectorMessages map[int]ConnectorMessage `validate:"dive"`
}

func (m *ChannelMessage) rootElement() string { return "message" }

func (m *ChannelMessage) bind(d *xmlbind.Doc) {
	m.MessageID = d.Int64("messageId")
	m.ServerID = d.UUID("serverId")
	m.ChannelID = d.UUID("channelId")
	m.Processed = d.Bool("processed")
	m.ReceivedDate = d.Time("receivedDate")
	m.ConnectorMessages = bindConnectorMessages(d)
}

// bindConnectorMessages accepts both connector map encodings: the keyed
// entry shape current servers emit, and the bare list older servers used,
// which is keyed by each connector's metaData id instead.
func bindConnectorMessages(d *xmlbind.Doc) map[int]ConnectorMessage {
	out := make(map[int]ConnectorMessage)
	if entries := d.IntEntries("connectorMessages"); len(entries) > 0 {
		for _, entry := range entries {
			var cm ConnectorMessage
			cm.bind(entry.Value)
			out[entry.Key] = cm
		}
		return out
	}
	wrapper, ok := d.Child("connectorMessages")
	if !ok {
		return out
	}
	for _, item := range wrapper.List("connectorMessage") {
		var cm ConnectorMessage
		cm.bind(item)
		out[cm.MetaDataID] = cm
	}
	return out
}

func (m *ChannelMessage) xmlValue() xmlmap.Value {
	o := xmlmap.NewObject()
	o.Set("messageId", strconv.FormatInt(m.MessageID, 10))
	o.Set("serverId", m.ServerID.String())
	o.Set("channelId", m.ChannelID.String())
	o.Set("receivedDate", xmlbind.EpochMillisValue(m.ReceivedDate))
	o.Set("processed", strconv.FormatBool(m.Processed))
	if len(m.ConnectorMessages) == 0 {
		o.Set("connectorMessages", nil)
		return o
	}
	keys := lo.Keys(m.ConnectorMessages)
	sort.Ints(keys)
	entries := make(xmlmap.List, 0, len(keys))
	for _, key := range keys {
		cm := m.ConnectorMessages[key]
		entry := xmlmap.NewObject()
		entry.Set("int", strconv.Itoa(key))
		entry.Set("connectorMessage", cm.xmlValue())
		entries = append(entries, entry)
	}
	wrapper := xmlmap.NewObject()
	wrapper.Set("entry", entries)
	o.Set("connectorMessages", wrapper)
	return o
}

// DecodeChannelMessage decodes a stored message document.
func DecodeChannelMessage(data []byte, forceList ...string) (*ChannelMessage, error) {
	return decodeInto[ChannelMessage](data, forceList...)
}

// XML renders the message under its envelope element. Connector entries are
// emitted in key order so the output is deterministic.
func (m *ChannelMessage) XML() (string, error) { return encodeRecord(m) }

// ChannelMessageList is the list envelope for the message query endpoint.
type ChannelMessageList struct {
	Messages []ChannelMessage `validate:"dive"`
}

func (l *ChannelMessageList) rootElement() string { return "list" }

func (l *ChannelMessageList) bind(d *xmlbind.Doc) {
	items := d.List("message")
	l.Messages = make([]ChannelMessage, len(items))
	for i, item := range items {
		l.Messages[i].bind(item)
	}
}

func (l *ChannelMessageList) xmlValue() xmlmap.Value {
	if len(l.Messages) == 0 {
		return nil
	}
	items := make(xmlmap.List, len(l.Messages))
	for i := range l.Messages {
		items[i] = l.Messages[i].xmlValue()
	}
	o := xmlmap.NewObject()
	o.Set("message", items)
	return o
}

// DecodeChannelMessageList decodes a message query reply. An empty <list/>
// decodes to an empty, non-nil slice.
func DecodeChannelMessageList(data []byte, forceList ...string) (*ChannelMessageList, error) {
	return decodeInto[ChannelMessageList](data, append(forceList, "message")...)
}

// XML renders the list under its envelope element.
func (l *ChannelMessageList) XML() (string, error) { return encodeRecord(l) }

const rawMessageRoot = "com.mirth.connect.donkey.model.message.RawMessage"

// RawMessage is the payload posted to a channel: the message body plus an
// optional source map made available to the channel's source connector.
type RawMessage struct {
	Binary    bool
	RawData   *string
	SourceMap map[string]string
}

func (m *RawMessage) rootElement() string { return rawMessageRoot }

func (m *RawMessage) bind(d *xmlbind.Doc) {
	m.Binary = d.Bool("binary")
	m.RawData = d.StringOpt("rawData")
	m.SourceMap = d.StringMap("sourceMap")
}

func (m *RawMessage) xmlValue() xmlmap.Value {
	o := xmlmap.NewObject()
	o.Set("binary", strconv.FormatBool(m.Binary))
	setOpt(o, "rawData", m.RawData)
	o.Set("sourceMap", xmlbind.StringMapValue(m.SourceMap))
	return o
}

// DecodeRawMessage decodes a raw message document.
func DecodeRawMessage(data []byte, forceList ...string) (*RawMessage, error) {
	return decodeInto[RawMessage](data, forceList...)
}

// XML renders the raw message under its fully qualified envelope element,
// the form the post endpoints expect. Source map keys are emitted in sorted
// order so the output is deterministic.
func (m *RawMessage) XML() (string, error) { return encodeRecord(m) }

// messageIDResponse is the engine's reply to a message post: a bare long
// holding the stored message id.
type messageIDResponse struct {
	ID int64
}

func (r *messageIDResponse) rootElement() string { return "" }

func (r *messageIDResponse) bind(d *xmlbind.Doc) {
	r.ID = d.Int64("long")
}

func (r *messageIDResponse) xmlValue() xmlmap.Value {
	o := xmlmap.NewObject()
	o.Set("long", strconv.FormatInt(r.ID, 10))
	return o
}

// ErrorResponse is the error payload a connector stores when a posted
// message fails.
type ErrorResponse struct {
	Status  *string
	Message *string
	Error   *string
}

func (r *ErrorResponse) rootElement() string { return "response" }

func (r *ErrorResponse) bind(d *xmlbind.Doc) {
	r.Status = d.StringOpt("status")
	r.Message = d.StringOpt("message")
	r.Error = d.StringOpt("error")
}

func (r *ErrorResponse) xmlValue() xmlmap.Value {
	o := xmlmap.NewObject()
	setOpt(o, "status", r.Status)
	setOpt(o, "message", r.Message)
	setOpt(o, "error", r.Error)
	return o
}

// DecodeErrorResponse decodes a stored error payload.
func DecodeErrorResponse(data []byte, forceList ...string) (*ErrorResponse, error) {
	return decodeInto[ErrorResponse](data, forceList...)
}

// XML renders the error payload under its envelope element.
func (r *ErrorResponse) XML() (string, error) { return encodeRecord(r) }

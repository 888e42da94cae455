package mirth

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/illmade-knight/go-mirth/pkg/xmlbind"
	"github.com/illmade-knight/go-mirth/pkg/xmlmap"
)

// Event levels reported by the server event log.
const (
	LevelInformation = "INFORMATION"
	LevelWarning     = "WARNING"
	LevelError       = "ERROR"
)

// Event outcomes.
const (
	OutcomeSuccess = "SUCCESS"
	OutcomeFailure = "FAILURE"
)

// Deploy states reported on the dashboard.
const (
	StateDeploying   = "DEPLOYING"
	StateUndeploying = "UNDEPLOYING"
	StateStarting    = "STARTING"
	StateStarted     = "STARTED"
	StatePausing     = "PAUSING"
	StatePaused      = "PAUSED"
	StateStopping    = "STOPPING"
	StateStopped     = "STOPPED"
	StateSyncing     = "SYNCING"
	StateUnknown     = "UNKNOWN"
)

// Channel is a channel definition as listed by the management API.
type Channel struct {
	ID          uuid.UUID
	Name        string
	Description *string
	Revision    string
}

func (c *Channel) rootElement() string { return "channel" }

func (c *Channel) bind(d *xmlbind.Doc) {
	c.ID = d.UUID("id")
	c.Name = d.String("name")
	c.Description = d.StringOpt("description")
	c.Revision = d.String("revision")
}

func (c *Channel) xmlValue() xmlmap.Value {
	o := xmlmap.NewObject()
	o.Set("id", c.ID.String())
	o.Set("name", c.Name)
	setOpt(o, "description", c.Description)
	o.Set("revision", c.Revision)
	return o
}

// DecodeChannel decodes a single channel document.
func DecodeChannel(data []byte, forceList ...string) (*Channel, error) {
	return decodeInto[Channel](data, forceList...)
}

// XML renders the channel under its envelope element.
func (c *Channel) XML() (string, error) { return encodeRecord(c) }

// ChannelList is the list envelope returned by the channel collection
// endpoint.
type ChannelList struct {
	Channels []Channel
}

func (l *ChannelList) rootElement() string { return "list" }

func (l *ChannelList) bind(d *xmlbind.Doc) {
	items := d.List("channel")
	l.Channels = make([]Channel, len(items))
	for i, item := range items {
		l.Channels[i].bind(item)
	}
}

func (l *ChannelList) xmlValue() xmlmap.Value {
	if len(l.Channels) == 0 {
		return nil
	}
	items := make(xmlmap.List, len(l.Channels))
	for i := range l.Channels {
		items[i] = l.Channels[i].xmlValue()
	}
	o := xmlmap.NewObject()
	o.Set("channel", items)
	return o
}

// DecodeChannelList decodes the channel collection, forcing the channel
// element to a list so a single entry still decodes as one.
func DecodeChannelList(data []byte, forceList ...string) (*ChannelList, error) {
	return decodeInto[ChannelList](data, append(forceList, "channel")...)
}

// XML renders the list under its envelope element.
func (l *ChannelList) XML() (string, error) { return encodeRecord(l) }

const loginStatusRoot = "com.mirth.connect.model.LoginStatus"

// LoginStatusSuccess is the status the engine reports for an accepted
// login. Other statuses (FAIL, LOCKED_OUT, EXPIRED and friends) are carried
// through verbatim.
const LoginStatusSuccess = "SUCCESS"

// LoginResponse is the outcome of a session login attempt.
type LoginResponse struct {
	Status          string
	Message         *string
	UpdatedUsername *string
}

func (r *LoginResponse) rootElement() string { return loginStatusRoot }

func (r *LoginResponse) bind(d *xmlbind.Doc) {
	r.Status = d.String("status")
	r.Message = d.StringOpt("message")
	r.UpdatedUsername = d.StringOpt("updatedUsername")
}

func (r *LoginResponse) xmlValue() xmlmap.Value {
	o := xmlmap.NewObject()
	o.Set("status", r.Status)
	setOpt(o, "message", r.Message)
	setOpt(o, "updatedUsername", r.UpdatedUsername)
	return o
}

// DecodeLoginResponse decodes a login status document.
func DecodeLoginResponse(data []byte, forceList ...string) (*LoginResponse, error) {
	return decodeInto[LoginResponse](data, forceList...)
}

// XML renders the login status under its envelope element.
func (r *LoginResponse) XML() (string, error) { return encodeRecord(r) }

// Event is one server event log entry. Attributes arrive as an
// entry-encoded hashmap and are flattened to plain strings.
type Event struct {
	ID         int64
	Level      string `validate:"omitempty,oneof=INFORMATION WARNING ERROR"`
	Name       string
	Outcome    string `validate:"omitempty,oneof=SUCCESS FAILURE"`
	Attributes map[string]string
	UserID     *string
	IPAddress  *string
	DateTime   time.Time
}

func (e *Event) rootElement() string { return "event" }

func (e *Event) bind(d *xmlbind.Doc) {
	e.ID = d.Int64("id")
	e.Level = d.String("level")
	e.Name = d.String("name")
	e.Outcome = d.String("outcome")
	e.Attributes = d.StringMap("attributes")
	e.UserID = d.StringOpt("userId")
	e.IPAddress = d.StringOpt("ipAddress")
	e.DateTime = d.Time("dateTime")
}

func (e *Event) xmlValue() xmlmap.Value {
	o := xmlmap.NewObject()
	o.Set("id", strconv.FormatInt(e.ID, 10))
	o.Set("level", e.Level)
	o.Set("name", e.Name)
	o.Set("attributes", xmlbind.StringMapValue(e.Attributes))
	o.Set("outcome", e.Outcome)
	setOpt(o, "userId", e.UserID)
	setOpt(o, "ipAddress", e.IPAddress)
	o.Set("dateTime", xmlbind.EpochMillisValue(e.DateTime))
	return o
}

// DecodeEvent decodes a single event document.
func DecodeEvent(data []byte, forceList ...string) (*Event, error) {
	return decodeInto[Event](data, forceList...)
}

// XML renders the event under its envelope element.
func (e *Event) XML() (string, error) { return encodeRecord(e) }

// EventList is the list envelope returned by the event endpoint.
type EventList struct {
	Events []Event `validate:"dive"`
}

func (l *EventList) rootElement() string { return "list" }

func (l *EventList) bind(d *xmlbind.Doc) {
	items := d.List("event")
	l.Events = make([]Event, len(items))
	for i, item := range items {
		l.Events[i].bind(item)
	}
}

func (l *EventList) xmlValue() xmlmap.Value {
	if len(l.Events) == 0 {
		return nil
	}
	items := make(xmlmap.List, len(l.Events))
	for i := range l.Events {
		items[i] = l.Events[i].xmlValue()
	}
	o := xmlmap.NewObject()
	o.Set("event", items)
	return o
}

// DecodeEventList decodes the event collection.
func DecodeEventList(data []byte, forceList ...string) (*EventList, error) {
	return decodeInto[EventList](data, append(forceList, "event")...)
}

// XML renders the list under its envelope element.
func (l *EventList) XML() (string, error) { return encodeRecord(l) }

// ChannelStatistics is the lifetime message-count snapshot for one channel.
type ChannelStatistics struct {
	ServerID  uuid.UUID
	ChannelID uuid.UUID
	Received  int64
	Sent      int64
	Error     int64
	Filtered  int64
	Queued    int64
}

func (s *ChannelStatistics) rootElement() string { return "channelStatistics" }

func (s *ChannelStatistics) bind(d *xmlbind.Doc) {
	s.ServerID = d.UUID("serverId")
	s.ChannelID = d.UUID("channelId")
	s.Received = d.Int64("received")
	s.Sent = d.Int64("sent")
	s.Error = d.Int64("error")
	s.Filtered = d.Int64("filtered")
	s.Queued = d.Int64("queued")
}

func (s *ChannelStatistics) xmlValue() xmlmap.Value {
	o := xmlmap.NewObject()
	o.Set("serverId", s.ServerID.String())
	o.Set("channelId", s.ChannelID.String())
	o.Set("received", strconv.FormatInt(s.Received, 10))
	o.Set("sent", strconv.FormatInt(s.Sent, 10))
	o.Set("error", strconv.FormatInt(s.Error, 10))
	o.Set("filtered", strconv.FormatInt(s.Filtered, 10))
	o.Set("queued", strconv.FormatInt(s.Queued, 10))
	return o
}

// DecodeChannelStatistics decodes a single statistics document.
func DecodeChannelStatistics(data []byte, forceList ...string) (*ChannelStatistics, error) {
	return decodeInto[ChannelStatistics](data, forceList...)
}

// XML renders the statistics under their envelope element.
func (s *ChannelStatistics) XML() (string, error) { return encodeRecord(s) }

// ChannelStatisticsList is the list envelope for the statistics endpoint.
type ChannelStatisticsList struct {
	Statistics []ChannelStatistics
}

func (l *ChannelStatisticsList) rootElement() string { return "list" }

func (l *ChannelStatisticsList) bind(d *xmlbind.Doc) {
	items := d.List("channelStatistics")
	l.Statistics = make([]ChannelStatistics, len(items))
	for i, item := range items {
		l.Statistics[i].bind(item)
	}
}

func (l *ChannelStatisticsList) xmlValue() xmlmap.Value {
	if len(l.Statistics) == 0 {
		return nil
	}
	items := make(xmlmap.List, len(l.Statistics))
	for i := range l.Statistics {
		items[i] = l.Statistics[i].xmlValue()
	}
	o := xmlmap.NewObject()
	o.Set("channelStatistics", items)
	return o
}

// DecodeChannelStatisticsList decodes the statistics collection.
func DecodeChannelStatisticsList(data []byte, forceList ...string) (*ChannelStatisticsList, error) {
	return decodeInto[ChannelStatisticsList](data, append(forceList, "channelStatistics")...)
}

// XML renders the list under its envelope element.
func (l *ChannelStatisticsList) XML() (string, error) { return encodeRecord(l) }

// GroupChannel is the shallow channel reference carried inside a group.
type GroupChannel struct {
	ID       uuid.UUID
	Revision string
}

func (c *GroupChannel) bind(d *xmlbind.Doc) {
	c.ID = d.UUID("id")
	c.Revision = d.String("revision")
}

func (c *GroupChannel) xmlValue() xmlmap.Value {
	o := xmlmap.NewObject()
	o.Set("id", c.ID.String())
	o.Set("revision", c.Revision)
	return o
}

// ChannelGroup is a named grouping of channels.
type ChannelGroup struct {
	ID          uuid.UUID
	Name        string
	Description *string
	Revision    string
	Channels    []GroupChannel
}

func (g *ChannelGroup) rootElement() string { return "channelGroup" }

func (g *ChannelGroup) bind(d *xmlbind.Doc) {
	g.ID = d.UUID("id")
	g.Name = d.String("name")
	g.Description = d.StringOpt("description")
	g.Revision = d.String("revision")
	items := d.WrappedList("channels", "channel")
	g.Channels = make([]GroupChannel, len(items))
	for i, item := range items {
		g.Channels[i].bind(item)
	}
}

func (g *ChannelGroup) xmlValue() xmlmap.Value {
	o := xmlmap.NewObject()
	o.Set("id", g.ID.String())
	o.Set("name", g.Name)
	setOpt(o, "description", g.Description)
	o.Set("revision", g.Revision)
	if len(g.Channels) == 0 {
		o.Set("channels", nil)
		return o
	}
	items := make(xmlmap.List, len(g.Channels))
	for i := range g.Channels {
		items[i] = g.Channels[i].xmlValue()
	}
	wrapper := xmlmap.NewObject()
	wrapper.Set("channel", items)
	o.Set("channels", wrapper)
	return o
}

// DecodeChannelGroup decodes a single group document.
func DecodeChannelGroup(data []byte, forceList ...string) (*ChannelGroup, error) {
	return decodeInto[ChannelGroup](data, append(forceList, "channel")...)
}

// XML renders the group under its envelope element.
func (g *ChannelGroup) XML() (string, error) { return encodeRecord(g) }

// ChannelGroupList is the list envelope for the group endpoint.
type ChannelGroupList struct {
	Groups []ChannelGroup
}

func (l *ChannelGroupList) rootElement() string { return "list" }

func (l *ChannelGroupList) bind(d *xmlbind.Doc) {
	items := d.List("channelGroup")
	l.Groups = make([]ChannelGroup, len(items))
	for i, item := range items {
		l.Groups[i].bind(item)
	}
}

func (l *ChannelGroupList) xmlValue() xmlmap.Value {
	if len(l.Groups) == 0 {
		return nil
	}
	items := make(xmlmap.List, len(l.Groups))
	for i := range l.Groups {
		items[i] = l.Groups[i].xmlValue()
	}
	o := xmlmap.NewObject()
	o.Set("channelGroup", items)
	return o
}

// DecodeChannelGroupList decodes the group collection.
func DecodeChannelGroupList(data []byte, forceList ...string) (*ChannelGroupList, error) {
	return decodeInto[ChannelGroupList](data, append(forceList, "channelGroup", "channel")...)
}

// XML renders the list under its envelope element.
func (l *ChannelGroupList) XML() (string, error) { return encodeRecord(l) }

// DashboardStatus is one row of the engine dashboard: the deploy state of a
// channel.
type DashboardStatus struct {
	ChannelID             uuid.UUID
	Name                  string
	State                 string `validate:"omitempty,oneof=DEPLOYING UNDEPLOYING STARTING STARTED PAUSING PAUSED STOPPING STOPPED SYNCING UNKNOWN"`
	DeployedRevisionDelta int
	DeployedDate          time.Time
}

func (s *DashboardStatus) rootElement() string { return "dashboardStatus" }

func (s *DashboardStatus) bind(d *xmlbind.Doc) {
	s.ChannelID = d.UUID("channelId")
	s.Name = d.String("name")
	s.State = d.String("state")
	s.DeployedRevisionDelta = d.Int("deployedRevisionDelta")
	s.DeployedDate = d.Time("deployedDate")
}

func (s *DashboardStatus) xmlValue() xmlmap.Value {
	o := xmlmap.NewObject()
	o.Set("channelId", s.ChannelID.String())
	o.Set("name", s.Name)
	o.Set("state", s.State)
	o.Set("deployedRevisionDelta", strconv.Itoa(s.DeployedRevisionDelta))
	o.Set("deployedDate", xmlbind.EpochMillisValue(s.DeployedDate))
	return o
}

// DecodeDashboardStatus decodes a single dashboard row.
func DecodeDashboardStatus(data []byte, forceList ...string) (*DashboardStatus, error) {
	return decodeInto[DashboardStatus](data, forceList...)
}

// XML renders the dashboard row under its envelope element.
func (s *DashboardStatus) XML() (string, error) { return encodeRecord(s) }

// DashboardStatusList is the list envelope for the dashboard endpoint.
type DashboardStatusList struct {
	Statuses []DashboardStatus `validate:"dive"`
}

func (l *DashboardStatusList) rootElement() string { return "list" }

func (l *DashboardStatusList) bind(d *xmlbind.Doc) {
	items := d.List("dashboardStatus")
	l.Statuses = make([]DashboardStatus, len(items))
	for i, item := range items {
		l.Statuses[i].bind(item)
	}
}

func (l *DashboardStatusList) xmlValue() xmlmap.Value {
	if len(l.Statuses) == 0 {
		return nil
	}
	items := make(xmlmap.List, len(l.Statuses))
	for i := range l.Statuses {
		items[i] = l.Statuses[i].xmlValue()
	}
	o := xmlmap.NewObject()
	o.Set("dashboardStatus", items)
	return o
}

// DecodeDashboardStatusList decodes the dashboard collection.
func DecodeDashboardStatusList(data []byte, forceList ...string) (*DashboardStatusList, error) {
	return decodeInto[DashboardStatusList](data, append(forceList, "dashboardStatus")...)
}

// XML renders the list under its envelope element.
func (l *DashboardStatusList) XML() (string, error) { return encodeRecord(l) }

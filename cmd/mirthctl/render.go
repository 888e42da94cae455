package main

import (
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"

	"github.com/illmade-knight/go-mirth/pkg/mirth"
)

func newTable(out io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(out)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	return table
}

func renderChannels(out io.Writer, channels []mirth.Channel) {
	table := newTable(out, []string{"ID", "Name", "Revision", "Description"})
	for _, ch := range channels {
		description := ""
		if ch.Description != nil {
			description = *ch.Description
		}
		table.Append([]string{ch.ID.String(), ch.Name, ch.Revision, description})
	}
	table.Render()
}

func renderGroups(out io.Writer, groups []mirth.ChannelGroup) {
	table := newTable(out, []string{"ID", "Name", "Revision", "Channels", "Description"})
	for _, g := range groups {
		description := ""
		if g.Description != nil {
			description = *g.Description
		}
		table.Append([]string{
			g.ID.String(),
			g.Name,
			g.Revision,
			strconv.Itoa(len(g.Channels)),
			description,
		})
	}
	table.Render()
}

func renderStatistics(out io.Writer, stats []mirth.ChannelStatistics) {
	table := newTable(out, []string{"Channel", "Received", "Filtered", "Queued", "Sent", "Errors"})
	for _, s := range stats {
		errored := strconv.FormatInt(s.Error, 10)
		if s.Error > 0 {
			errored = color.New(color.FgRed).Render(errored)
		}
		table.Append([]string{
			s.ChannelID.String(),
			strconv.FormatInt(s.Received, 10),
			strconv.FormatInt(s.Filtered, 10),
			strconv.FormatInt(s.Queued, 10),
			strconv.FormatInt(s.Sent, 10),
			errored,
		})
	}
	table.Render()
}

func renderStatuses(out io.Writer, statuses []mirth.DashboardStatus) {
	table := newTable(out, []string{"Channel", "Name", "State", "Deployed"})
	for _, s := range statuses {
		table.Append([]string{
			s.ChannelID.String(),
			s.Name,
			colorState(s.State),
			s.DeployedDate.Format(time.RFC3339),
		})
	}
	table.Render()
}

func renderEvents(out io.Writer, events []mirth.Event) {
	table := newTable(out, []string{"ID", "Time", "Level", "Name", "Outcome"})
	for _, e := range events {
		table.Append([]string{
			strconv.FormatInt(e.ID, 10),
			e.DateTime.Format(time.RFC3339),
			colorLevel(e.Level),
			e.Name,
			colorOutcome(e.Outcome),
		})
	}
	table.Render()
}

func renderMessages(out io.Writer, messages []mirth.ChannelMessage) {
	table := newTable(out, []string{"ID", "Received", "Processed", "Connectors"})
	for _, m := range messages {
		table.Append([]string{
			strconv.FormatInt(m.MessageID, 10),
			m.ReceivedDate.Format(time.RFC3339),
			strconv.FormatBool(m.Processed),
			connectorSummary(m.ConnectorMessages),
		})
	}
	table.Render()
}

// connectorSummary flattens the connector legs to name:STATUS pairs in
// metaData order.
func connectorSummary(connectors map[int]mirth.ConnectorMessage) string {
	keys := lo.Keys(connectors)
	sort.Ints(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		cm := connectors[key]
		name := "connector " + strconv.Itoa(cm.MetaDataID)
		if cm.ConnectorName != nil {
			name = *cm.ConnectorName
		}
		parts = append(parts, name+":"+colorStatus(cm.Status))
	}
	return strings.Join(parts, " ")
}

func colorStatus(status string) string {
	switch status {
	case mirth.StatusError:
		return color.New(color.FgRed).Render(status)
	case mirth.StatusSent, mirth.StatusTransformed:
		return color.New(color.FgGreen).Render(status)
	case mirth.StatusQueued, mirth.StatusPending:
		return color.New(color.FgYellow).Render(status)
	default:
		return status
	}
}

func colorState(state string) string {
	switch state {
	case mirth.StateStarted:
		return color.New(color.FgGreen).Render(state)
	case mirth.StateStopped:
		return color.New(color.FgRed).Render(state)
	case mirth.StatePaused, mirth.StatePausing:
		return color.New(color.FgYellow).Render(state)
	default:
		return state
	}
}

func colorLevel(level string) string {
	switch level {
	case mirth.LevelError:
		return color.New(color.FgRed).Render(level)
	case mirth.LevelWarning:
		return color.New(color.FgYellow).Render(level)
	default:
		return level
	}
}

func colorOutcome(outcome string) string {
	switch outcome {
	case mirth.OutcomeFailure:
		return color.New(color.FgRed).Render(outcome)
	case mirth.OutcomeSuccess:
		return color.New(color.FgGreen).Render(outcome)
	default:
		return outcome
	}
}

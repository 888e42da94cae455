package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/illmade-knight/go-mirth/pkg/mirth"
)

func channelsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "channels",
		Short: "List the channels defined on the server",
		Args:  cobra.NoArgs,
	}
	name := cmd.Flags().String("name", "", "only channels with this exact name")

	cmd.RunE = run(func(ctx context.Context, client *mirth.Client, _ []string) error {
		var (
			channels []mirth.Channel
			err      error
		)
		if *name == "" {
			channels, err = client.Channels(ctx)
		} else {
			channels, err = client.ChannelsByName(ctx, *name)
		}
		if err != nil {
			return err
		}
		renderChannels(os.Stdout, channels)
		return nil
	})
	return cmd
}

func groupsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "groups",
		Short: "List the channel groups",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = run(func(ctx context.Context, client *mirth.Client, _ []string) error {
		groups, err := client.Groups(ctx)
		if err != nil {
			return err
		}
		renderGroups(os.Stdout, groups)
		return nil
	})
	return cmd
}

func statisticsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "statistics",
		Aliases: []string{"stats"},
		Short:   "Show lifetime message counts per channel",
		Args:    cobra.NoArgs,
	}
	cmd.RunE = run(func(ctx context.Context, client *mirth.Client, _ []string) error {
		stats, err := client.Statistics(ctx)
		if err != nil {
			return err
		}
		renderStatistics(os.Stdout, stats)
		return nil
	})
	return cmd
}

func statusesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "statuses",
		Short: "Show the deploy state of every channel",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = run(func(ctx context.Context, client *mirth.Client, _ []string) error {
		statuses, err := client.DashboardStatuses(ctx)
		if err != nil {
			return err
		}
		renderStatuses(os.Stdout, statuses)
		return nil
	})
	return cmd
}

func eventsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List server events, newest first",
		Args:  cobra.NoArgs,
	}
	limit := cmd.Flags().Int("limit", 20, "maximum events to fetch")
	offset := cmd.Flags().Int("offset", 0, "events to skip")
	level := cmd.Flags().String("level", "", "filter by level (INFORMATION, WARNING, ERROR)")
	outcome := cmd.Flags().String("outcome", "", "filter by outcome (SUCCESS, FAILURE)")
	name := cmd.Flags().String("name", "", "filter by event name")
	user := cmd.Flags().Int("user", 0, "filter by user id")

	cmd.RunE = run(func(ctx context.Context, client *mirth.Client, _ []string) error {
		filter := mirth.EventFilter{
			Limit:   *limit,
			Offset:  *offset,
			Level:   strings.ToUpper(*level),
			Outcome: strings.ToUpper(*outcome),
			Name:    *name,
		}
		if cmd.Flags().Changed("user") {
			filter.UserID = user
		}
		events, err := client.Events(ctx, filter)
		if err != nil {
			return err
		}
		renderEvents(os.Stdout, events)
		return nil
	})
	return cmd
}

func messagesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "messages <channel-id>",
		Short: "List a channel's stored messages",
		Args:  cobra.ExactArgs(1),
	}
	limit := cmd.Flags().Int("limit", 20, "maximum messages to fetch")
	offset := cmd.Flags().Int("offset", 0, "messages to skip")
	status := cmd.Flags().StringSlice("status", nil, "filter by connector status (ERROR, QUEUED, ...)")
	content := cmd.Flags().Bool("content", false, "fetch the stored content blocks")

	cmd.RunE = run(func(ctx context.Context, client *mirth.Client, args []string) error {
		channelID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid channel id %q: %w", args[0], err)
		}
		messages, err := client.Channel(channelID).Messages(ctx, mirth.MessageFilter{
			Limit:          *limit,
			Offset:         *offset,
			IncludeContent: *content,
			Status:         *status,
		})
		if err != nil {
			return err
		}
		renderMessages(os.Stdout, messages)
		return nil
	})
	return cmd
}

func sendCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send <channel-id>",
		Short: "Post a message to a channel and report its stored state",
		Args:  cobra.ExactArgs(1),
	}
	data := cmd.Flags().String("data", "", "message body")
	file := cmd.Flags().String("file", "", "read the message body from a file")
	binary := cmd.Flags().Bool("binary", false, "mark the payload as binary")
	source := cmd.Flags().StringSlice("source", nil, "source map entries as key=value")
	skipErrorCheck := cmd.Flags().Bool("skip-error-check", false, "report the stored message even when a connector errors")

	cmd.RunE = run(func(ctx context.Context, client *mirth.Client, args []string) error {
		channelID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid channel id %q: %w", args[0], err)
		}
		if (*data == "") == (*file == "") {
			return errors.New("exactly one of --data or --file is required")
		}
		payload := *data
		if *file != "" {
			raw, err := os.ReadFile(*file)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", *file, err)
			}
			payload = string(raw)
		}

		sourceMap := make(map[string]string, len(*source))
		for _, pair := range *source {
			key, value, ok := strings.Cut(pair, "=")
			if !ok {
				return fmt.Errorf("source entry %q is not key=value", pair)
			}
			sourceMap[key] = value
		}

		stored, err := client.Channel(channelID).PostMessage(ctx, &mirth.RawMessage{
			Binary:    *binary,
			RawData:   &payload,
			SourceMap: sourceMap,
		}, &mirth.PostMessageOptions{SkipErrorCheck: *skipErrorCheck})
		if err != nil {
			return err
		}
		if stored == nil {
			fmt.Println("message accepted")
			return nil
		}
		renderMessages(os.Stdout, []mirth.ChannelMessage{*stored})
		return nil
	})
	return cmd
}

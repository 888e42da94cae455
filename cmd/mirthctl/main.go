// Command mirthctl inspects and drives a Mirth Connect server from the
// terminal: it lists channels, groups, statistics, dashboard statuses and
// events, browses a channel's stored messages and posts new ones.
//
// Connection settings come from the environment, optionally seeded from a
// .env file in the working directory:
//
//	MIRTH_URL          API root, e.g. https://mirth.example.com:8443/api
//	MIRTH_USERNAME     login user
//	MIRTH_PASSWORD     login password
//	MIRTH_VERSION      server version, enables version-gated endpoints
//	MIRTH_SKIP_VERIFY  accept self-signed certificates
//	MIRTH_TIMEOUT      per-request timeout, default 30s
//	MIRTH_DEBUG        log every API call
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/illmade-knight/go-mirth/pkg/mirth"
)

type settings struct {
	URL        string        `envconfig:"MIRTH_URL" required:"true"`
	Username   string        `envconfig:"MIRTH_USERNAME" required:"true"`
	Password   string        `envconfig:"MIRTH_PASSWORD" required:"true"`
	Version    string        `envconfig:"MIRTH_VERSION"`
	SkipVerify bool          `envconfig:"MIRTH_SKIP_VERIFY" default:"false"`
	Timeout    time.Duration `envconfig:"MIRTH_TIMEOUT" default:"30s"`
	Debug      bool          `envconfig:"MIRTH_DEBUG" default:"false"`
}

func main() {
	if err := rootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "mirthctl",
		Short:        "Inspect and drive a Mirth Connect server",
		SilenceUsage: true,
	}
	root.AddCommand(
		channelsCommand(),
		groupsCommand(),
		statisticsCommand(),
		statusesCommand(),
		eventsCommand(),
		messagesCommand(),
		sendCommand(),
	)
	return root
}

// connect loads the settings, builds a client and logs in.
func connect(ctx context.Context) (*mirth.Client, error) {
	_ = godotenv.Load()

	var cfg settings
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	level := zerolog.InfoLevel
	if cfg.Debug {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger().Level(level)

	client, err := mirth.NewClient(&mirth.Config{
		BaseURL:       cfg.URL,
		ServerVersion: cfg.Version,
		SkipTLSVerify: cfg.SkipVerify,
		Timeout:       cfg.Timeout,
	}, logger)
	if err != nil {
		return nil, err
	}
	if _, err := client.Login(ctx, cfg.Username, cfg.Password); err != nil {
		return nil, err
	}
	return client, nil
}

// run wires a command body to a logged-in client and a context that ends on
// SIGINT or SIGTERM.
func run(body func(ctx context.Context, client *mirth.Client, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		client, err := connect(ctx)
		if err != nil {
			return err
		}
		return body(ctx, client, args)
	}
}

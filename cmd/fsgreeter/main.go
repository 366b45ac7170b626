package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	fleetspeak "github.com/bft-labs/fleetspeak"
	"github.com/bft-labs/fleetspeak/internal/cliconfig"
	"github.com/bft-labs/fleetspeak/pkg/comms"
	logAdapter "github.com/bft-labs/fleetspeak/pkg/log"
)

const helpDescription = `
Greet every message the Fleetspeak client delivers.

fsgreeter is a minimal Fleetspeak service daemon. It reads messages from the
pipes the Fleetspeak client hands it, replies to each one with a greeting and
keeps the client informed that it is alive.

Highlights:
  - Heartbeats are throttled to one per interval, or sent on a fixed cadence.
  - The config file is watched; heartbeat settings apply without a restart.
  - Configure via file, env (FSGREETER_*), or flags.

The daemon must be started by the Fleetspeak client, which sets
FLEETSPEAK_COMMS_CHANNEL_INFD and FLEETSPEAK_COMMS_CHANNEL_OUTFD.
`

var exampleUsage = strings.TrimSpace(`
  fsgreeter --greeting Hi
  fsgreeter --config $HOME/.fsgreeter/config.toml --heartbeat-mode fixed --once
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	root := &cobra.Command{
		Use:     "fsgreeter",
		Short:   "Fleetspeak service daemon that answers every message with a greeting",
		Long:    strings.TrimSpace(helpDescription),
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			// Environment overrides the file; flags override both.
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := cliconfig.Logger(cfg.LogLevel)
			logger.Info("configuration", logAdapter.Any("config", cfg))

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg, cfgFile, changed, logger)
		},
	}

	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.fsgreeter/config.toml)")
	root.Flags().StringVar(&cfg.Service, "service", cfg.Service, "service to reply to when a message names none")
	root.Flags().StringVar(&cfg.Greeting, "greeting", cfg.Greeting, "greeting prefixed to every reply")

	root.Flags().StringVar(&cfg.HeartbeatMode, "heartbeat-mode", cfg.HeartbeatMode, "heartbeat scheduling: throttled or fixed")
	root.Flags().DurationVar(&cfg.HeartbeatInterval, "heartbeat-interval", cfg.HeartbeatInterval, "minimum gap between heartbeats (throttled) or their period (fixed)")
	root.Flags().DurationVar(&cfg.CollectRate, "collect-rate", cfg.CollectRate, "how often to request a heartbeat while idle")

	root.Flags().IntVar(&cfg.QueueCapacity, "queue-capacity", cfg.QueueCapacity, "inbound messages buffered before reading pauses")
	root.Flags().IntVar(&cfg.MaxFrameBytes, "max-frame-bytes", cfg.MaxFrameBytes, "largest frame accepted or sent")
	if err := root.Flags().MarkHidden("max-frame-bytes"); err != nil {
		fmt.Fprintln(os.Stderr, "failed to hide max-frame-bytes flag:", err)
	}

	root.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	root.Flags().BoolVar(&cfg.Once, "once", cfg.Once, "answer a single message and exit")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg cliconfig.Config, cfgFile string, changed map[string]bool, logger logAdapter.Logger) error {
	fatal := func(err error) {
		// A reply racing a shutdown signal is not a failure.
		if ctx.Err() != nil {
			return
		}
		logger.Error("fleetspeak channel failed", logAdapter.Err(err))
		os.Exit(2)
	}

	client, err := fleetspeak.DialEnv(ctx, cfg.SessionConfig(),
		fleetspeak.WithLogger(logger),
		fleetspeak.WithFatalHandler(fatal),
	)
	if err != nil {
		if errors.Is(err, comms.ErrNotSpecified) {
			return fmt.Errorf("%w (fsgreeter must be started by the Fleetspeak client)", err)
		}
		return fmt.Errorf("connect: %w", err)
	}
	defer client.Close()

	client.Startup(getVersion())

	if cfgFile != "" {
		w := cliconfig.NewWatcher(cfgFile, cfg, changed, func(next cliconfig.Config) {
			client.Session().SetHeartbeatInterval(next.HeartbeatInterval)
		}, logger)
		go func() {
			if err := w.Run(ctx); err != nil {
				logger.Warn("config watcher stopped", logAdapter.Err(err))
			}
		}()
	}

	for {
		msg, ok := client.Collect(ctx, cfg.CollectRate)
		if !ok {
			logger.Info("channel closed, exiting")
			return nil
		}

		service := msg.Service
		if service == "" {
			service = cfg.Service
		}
		seq := client.Send(fleetspeak.Message{
			Service: service,
			Kind:    msg.Kind,
			Data:    []byte(fmt.Sprintf("%s %s!", cfg.Greeting, msg.Data)),
		})
		logger.Debug("replied",
			logAdapter.String("service", service),
			logAdapter.String("kind", msg.Kind),
			logAdapter.Uint64("seq", seq),
		)

		if cfg.Once {
			return nil
		}
	}
}

package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/medivisit/hospitalfinder/pkg/config"
)

type options struct {
	gatewayURL     string
	timeout        time.Duration
	maxConcurrency int
	logFormat      string
}

func newRootCmd() *cobra.Command {
	defaults, _ := config.Load()
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "hospitalctl",
		Short:         "Query the hospital gateway from the command line",
		Long:          "Finds hospitals around a point through a running gateway and enriches them with their departments.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.gatewayURL, "gateway", defaults.Aggregator.GatewayURL, "Gateway base URL (or set GATEWAY_URL)")
	pf.DurationVar(&opts.timeout, "timeout", defaults.Aggregator.Timeout, "Per-request timeout (or set GATEWAY_TIMEOUT)")
	pf.IntVar(&opts.maxConcurrency, "max-concurrency", defaults.Aggregator.MaxConcurrency, "Cap on concurrent department lookups, 0 for none")
	pf.StringVar(&opts.logFormat, "log-format", "text", "Log format: text or json")

	cmd.AddCommand(newNearbyCmd(opts))
	return cmd
}

func setupLogger(format string) zerolog.Logger {
	if format == "text" {
		return zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger := setupLogger("text")
		logger.Error().Err(err).Msg("hospitalctl failed")
		os.Exit(1)
	}
}

package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/go-go-golems/itinerant/pkg/events"
	"github.com/go-go-golems/itinerant/pkg/observability"
	"github.com/go-go-golems/itinerant/pkg/steps/ai/settings"
)

// loadSettings reads the env file and builds settings from flags, config and
// environment. A missing env file is only an error when it was named explicitly.
func loadSettings(cmd *cobra.Command) (*settings.StepSettings, error) {
	envFile := viper.GetString("env")
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if cmd.Flags().Changed("env") {
				return nil, errors.Wrapf(err, "load environment from %s", envFile)
			}
			log.Debug().Str("file", envFile).Msg("no environment file loaded")
		}
	}
	return settings.NewStepSettingsFromViper(viper.GetViper())
}

// withRuntime runs fn with tracing and event reporting configured by the
// persistent flags.
func withRuntime(ctx context.Context, fn func(ctx context.Context) error) error {
	rt, err := observability.InitGlobalTracer(ctx, observability.TracerConfig{
		Enabled:     viper.GetBool("otel-stdout"),
		ServiceName: envPrefix,
		Writer:      os.Stderr,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Shutdown(context.Background()); err != nil {
			log.Warn().Err(err).Msg("tracer shutdown failed")
		}
	}()

	mode := viper.GetString("events")
	if mode == "" {
		return fn(ctx)
	}

	router, err := events.NewEventRouter(events.WithLogger(events.NewWatermillLogger(log.Logger)))
	if err != nil {
		return errors.Wrap(err, "failed to create event router")
	}
	defer func() {
		_ = router.Close()
	}()

	switch mode {
	case "log":
		router.AddHandler("log", events.DefaultTopic, events.LogEvents(log.Logger))
	case "json":
		router.AddHandler("dump", events.DefaultTopic, router.DumpRawEvents(os.Stderr))
	default:
		return errors.Errorf("unknown events mode %q (expected log or json)", mode)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	eg := errgroup.Group{}
	eg.Go(func() error {
		defer cancel()
		return router.Run(ctx)
	})
	eg.Go(func() error {
		defer cancel()
		<-router.Running()
		return fn(events.WithEventSinks(ctx, router.Sink(events.DefaultTopic)))
	})
	return eg.Wait()
}

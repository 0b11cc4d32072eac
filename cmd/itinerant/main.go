package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/go-go-golems/itinerant/pkg/steps/ai/settings"
)

const envPrefix = "itinerant"

// errPlanFailed marks a run whose error message was already printed as the plan.
var errPlanFailed = errors.New("travel planning failed")

var rootCmd = &cobra.Command{
	Use:           "itinerant",
	Short:         "itinerant plans trips with LLM agents backed by maps, weather and web search",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initConfig(cmd); err != nil {
			return err
		}
		return initLogger()
	},
}

func initConfig(cmd *cobra.Command) error {
	viper.SetEnvPrefix(envPrefix)
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	if configPath := viper.GetString("config"); configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("config")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.itinerant")
		if xdgConfigPath, err := os.UserConfigDir(); err == nil {
			viper.AddConfigPath(xdgConfigPath + "/itinerant")
		}
	}

	err := viper.ReadInConfig()
	if _, ok := err.(viper.ConfigFileNotFoundError); !ok && err != nil {
		return errors.Wrap(err, "read config")
	}
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := settings.BindEnv(viper.GetViper(), envPrefix); err != nil {
		return err
	}

	log.Debug().Str("config", viper.ConfigFileUsed()).Msg("Loaded configuration")
	return nil
}

func initLogger() error {
	return InitLogger(&logConfig{
		Level:      viper.GetString("log-level"),
		LogFile:    viper.GetString("log-file"),
		LogFormat:  viper.GetString("log-format"),
		WithCaller: viper.GetBool("with-caller"),
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errPlanFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func init() {
	// logging flags
	rootCmd.PersistentFlags().Bool("with-caller", false, "Log caller")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (trace, debug, info, warn, error, fatal)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format (json, text)")
	rootCmd.PersistentFlags().String("log-file", "", "Log file (default: stderr)")

	rootCmd.PersistentFlags().String("config", "", "Path to config file (default ~/.itinerant/config.yaml)")
	rootCmd.PersistentFlags().String("env", ".env", "Environment file with API keys")
	rootCmd.PersistentFlags().Bool("otel-stdout", false, "Export OpenTelemetry spans to stderr")
	rootCmd.PersistentFlags().String("events", "", "Report run events on stderr (log, json)")

	rootCmd.AddCommand(newPlanCommand(), newAgentsCommand(), newTraceCommand())
}

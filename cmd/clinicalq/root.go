package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/clinicalq/console/internal/config"
)

const defaultConfigPath = "clinicalq.yaml"

// version is stamped at release time via -ldflags "-X main.version=...".
var version = "dev"

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "clinicalq",
		Short:         "Operator console for guided EEG assessment sessions",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath,
		"path to the config file")

	root.AddCommand(
		newRunCmd(&configPath),
		newImportCmd(&configPath),
		newInitConfigCmd(&configPath),
	)
	return root
}

// loadConfig resolves the layered config. The file is required only when
// the operator pointed at one explicitly.
func loadConfig(cmd *cobra.Command, configPath string) (config.Config, error) {
	explicit := cmd.Flags().Changed("config") || cmd.InheritedFlags().Changed("config")
	return config.Load(configPath, explicit)
}

// newLogger builds the file logger. Logs go to a file rather than the
// terminal, which the TUI owns.
func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.OutputPaths = []string{cfg.File}
	zcfg.ErrorOutputPaths = []string{cfg.File}
	return zcfg.Build()
}

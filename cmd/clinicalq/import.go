package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clinicalq/console/internal/controller"
)

func newImportCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import <artifact.json>",
		Short: "Normalize and print a previously recorded result artifact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, *configPath)
			if err != nil {
				return err
			}
			log, err := newLogger(cfg.Log)
			if err != nil {
				return fmt.Errorf("logger: %w", err)
			}
			defer log.Sync()

			ctrl := controller.New(log, cfg)
			report, err := ctrl.Import(args[0])
			if err != nil {
				return err
			}
			printReport(report)
			return nil
		},
	}
}

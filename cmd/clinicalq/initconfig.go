package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clinicalq/console/internal/config"
)

func newInitConfigCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "init-config",
		Short: "Write a starter config file with the default protocol settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.WriteStarter(*configPath); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", *configPath)
			return nil
		},
	}
}

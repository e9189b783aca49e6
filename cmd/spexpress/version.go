package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spexpress/spexpress-go/pkg/transportclient"
)

func newVersionCmd(flags *cliFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version and the validated API version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "spexpress %s\n", buildVersion)

			apiVersion, err := transportclient.ReadVersion(cfg.VersionFile)
			if err != nil {
				return fmt.Errorf("%s: %w", cfg.VersionFile, err)
			}
			fmt.Fprintf(out, "api version %s (%s)\n", apiVersion, cfg.VersionFile)
			return nil
		},
	}
}

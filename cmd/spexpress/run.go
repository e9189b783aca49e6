package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/spexpress/spexpress-go/internal/app"
	"github.com/spexpress/spexpress-go/internal/batch"
	"github.com/spexpress/spexpress-go/internal/logger"
)

func newRunCmd(flags *cliFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run <file>",
		Short: "Run a YAML or JSON file of calls in order",
		Long: `Runs every call declared in the file, one after another.

A failed call does not stop the batch. The command exits non-zero when any
call hit a transport error; HTTP error statuses are reported but not fatal.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := batch.Load(args[0])
			if err != nil {
				return err
			}
			return withDispatcher(cmd, flags, func(ctx context.Context, d *app.Dispatcher) error {
				results, runErr := batch.NewRunner(d, logger.New(logger.S)).Run(ctx, entries)

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tMETHOD\tRESULT\tURL")
				for _, res := range results {
					result := fmt.Sprintf("%d", res.StatusCode)
					if res.Err != nil {
						result = res.Err.Error()
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", res.ID, res.Method, result, res.URL)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				return runErr
			})
		},
	}
}

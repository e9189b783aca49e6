package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/spexpress/spexpress-go/internal/app"
	"github.com/spexpress/spexpress-go/internal/storage"
)

func newHistoryCmd(flags *cliFlags) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [exchange-id]",
		Short: "List recently journaled exchanges, newest first",
		Long: `Lists recently journaled exchanges, newest first.

With an exchange id, prints that exchange as JSON instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return withDispatcher(cmd, flags, func(_ context.Context, d *app.Dispatcher) error {
					return printExchange(cmd, d, args[0])
				})
			}
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive")
			}
			return withDispatcher(cmd, flags, func(_ context.Context, d *app.Dispatcher) error {
				exchanges, err := d.History(limit)
				if err != nil {
					return fmt.Errorf("read history: %w", err)
				}
				return printHistory(cmd, exchanges)
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of exchanges to list")
	return cmd
}

func printHistory(cmd *cobra.Command, exchanges []storage.Exchange) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "AT\tMETHOD\tSTATUS\tAPI VERSION\tDURATION\tURL")
	for _, ex := range exchanges {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			ex.At.Local().Format(time.DateTime),
			ex.Method,
			outcome(ex),
			dash(ex.APIVersion),
			(time.Duration(ex.DurationMs) * time.Millisecond).String(),
			ex.URL,
		)
	}
	return tw.Flush()
}

func printExchange(cmd *cobra.Command, d *app.Dispatcher, id string) error {
	ex, ok, err := d.Exchange(id)
	if err != nil {
		return fmt.Errorf("read exchange: %w", err)
	}
	if !ok {
		return fmt.Errorf("exchange %q not found", id)
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(ex)
}

func outcome(ex storage.Exchange) string {
	if ex.ErrorCode != nil {
		return "error " + strconv.Itoa(*ex.ErrorCode)
	}
	if ex.Error != "" {
		return "error"
	}
	return strconv.Itoa(ex.StatusCode)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spexpress/spexpress-go/internal/app"
	"github.com/spexpress/spexpress-go/internal/inspect"
	"github.com/spexpress/spexpress-go/pkg/transportclient"
)

func newRequestCmd(method string, flags *cliFlags) *cobra.Command {
	var (
		summaryOnly bool
		bodyOnly    bool
	)

	short := "Send a GET request with fields as the query string"
	if method == "post" {
		short = "Send a POST request with fields as a JSON body"
	}

	cmd := &cobra.Command{
		Use:   method + " <url> [key=value | key:=json ...]",
		Short: short,
		Long: short + `.

Fields are sent in the order given. key=value sends a string, key:=json
sends a JSON literal (numbers, true/false, null). A 4xx or 5xx status is
printed like any other response; only transport failures exit non-zero.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := parseFields(args[1:])
			if err != nil {
				return err
			}
			call := app.Call{
				Method:  strings.ToUpper(method),
				URL:     args[0],
				Payload: payload,
			}
			return withDispatcher(cmd, flags, func(ctx context.Context, d *app.Dispatcher) error {
				resp, err := d.Do(ctx, call)
				if err != nil {
					return err
				}
				return printResponse(cmd.OutOrStdout(), resp, summaryOnly, bodyOnly)
			})
		},
	}
	cmd.Flags().BoolVar(&summaryOnly, "summary", false, "print only the status summary")
	cmd.Flags().BoolVar(&bodyOnly, "body", false, "print only the raw response body")
	cmd.MarkFlagsMutuallyExclusive("summary", "body")
	return cmd
}

func printResponse(w io.Writer, resp *transportclient.Response, summaryOnly, bodyOnly bool) error {
	if bodyOnly {
		_, err := w.Write(resp.Body())
		return err
	}

	s := inspect.Summarize(resp)
	if _, err := fmt.Fprintf(w, "HTTP %d %s (%s)\n", s.StatusCode, http.StatusText(s.StatusCode), s.Class); err != nil {
		return err
	}
	if s.Title != "" {
		if _, err := fmt.Fprintf(w, "Title: %s\n", s.Title); err != nil {
			return err
		}
	}
	if summaryOnly {
		return nil
	}

	body := resp.Body()
	if len(body) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	if _, err := w.Write(body); err != nil {
		return err
	}
	if body[len(body)-1] != '\n' {
		_, err := fmt.Fprintln(w)
		return err
	}
	return nil
}

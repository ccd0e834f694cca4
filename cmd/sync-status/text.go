package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"
)

func writeText(w io.Writer, rep report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "MySideline sync configuration")
	fmt.Fprintf(tw, "  enabled\t%t\n", rep.Config.Enabled)
	fmt.Fprintf(tw, "  useMock\t%t\n", rep.Config.UseMock)
	fmt.Fprintf(tw, "  url\t%s\n", rep.Config.URL)
	fmt.Fprintf(tw, "  timeout\t%s\n", rep.Config.Timeout)
	fmt.Fprintf(tw, "  retryAttempts\t%d\n", rep.Config.RetryAttempts)
	fmt.Fprintf(tw, "  schedule\t%s\n", rep.Config.Schedule)
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "Database")
	fmt.Fprintf(tw, "  reachable\t%s\n", yesNo(rep.Database.Reachable))
	if rep.Database.Reachable {
		fmt.Fprintf(tw, "  sync_logs table\t%s\n", yesNo(rep.Database.TableExists))
	}
	if rep.Database.Error != "" {
		fmt.Fprintf(tw, "  error\t%s\n", rep.Database.Error)
	}

	if rep.Stats == nil {
		return tw.Flush()
	}

	fmt.Fprintln(tw)
	fmt.Fprintf(tw, "Recent sync logs (%d)\n", len(rep.Logs))
	if len(rep.Logs) == 0 {
		fmt.Fprintln(tw, "  none")
	} else {
		fmt.Fprintln(tw, "  ID\tSTARTED\tSTATUS\tDURATION\tPROCESSED\tCREATED\tUPDATED\tERROR")
		for _, l := range rep.Logs {
			errMsg := "-"
			if l.ErrorMessage != nil {
				errMsg = *l.ErrorMessage
			}
			fmt.Fprintf(tw, "  %d\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
				l.ID,
				l.StartedAt.UTC().Format(time.RFC3339),
				l.Status,
				(time.Duration(l.DurationMs) * time.Millisecond).String(),
				l.EventsProcessed, l.EventsCreated, l.EventsUpdated,
				errMsg,
			)
		}
	}

	s := rep.Stats
	fmt.Fprintln(tw)
	fmt.Fprintf(tw, "Statistics (last %s)\n", s.Window)
	fmt.Fprintf(tw, "  total runs\t%d\n", s.Total)
	fmt.Fprintf(tw, "  completed / failed / running\t%d / %d / %d\n", s.Completed, s.Failed, s.Running)
	fmt.Fprintf(tw, "  success rate\t%.1f%%\n", s.SuccessRate*100)
	fmt.Fprintf(tw, "  events processed\t%d\n", s.EventsProcessed)
	fmt.Fprintf(tw, "  events created\t%d\n", s.EventsCreated)
	fmt.Fprintf(tw, "  events updated\t%d\n", s.EventsUpdated)
	fmt.Fprintf(tw, "  last success\t%s\n", formatTime(s.LastSuccessAt))
	fmt.Fprintf(tw, "  last failure\t%s\n", formatTime(s.LastFailureAt))

	return tw.Flush()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.UTC().Format(time.RFC3339)
}

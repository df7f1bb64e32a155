package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/harun/mcpilot/pkg/agent"
	"github.com/harun/mcpilot/pkg/artifacts"
	"github.com/spf13/cobra"
)

var (
	historyLimit      int
	historyTranscript bool
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "Show recent runs, or one run in detail",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of runs to list")
	historyCmd.Flags().BoolVar(&historyTranscript, "transcript", false, "with a run id, print the recorded conversation")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	store, err := a.openHistory()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if len(args) == 0 {
		runs, err := store.Recent(ctx, historyLimit)
		if err != nil {
			return err
		}
		printRuns(out, runs)
		return nil
	}

	run, err := store.Get(ctx, args[0])
	if err != nil {
		return err
	}
	printRun(out, run)

	if historyTranscript {
		files, err := artifacts.NewFileRecorder(cfg.Artifacts.Dir, a.logger)
		if err != nil {
			return err
		}
		entries, err := files.ReadTranscript(run.ID)
		if err != nil {
			return err
		}
		printTranscript(out, entries)
	}
	return nil
}

func printRuns(out io.Writer, runs []artifacts.RunSummary) {
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tSTARTED\tDURATION\tITER\tTOOLS\tSTATUS\tREQUEST")
	for _, r := range runs {
		status := "ok"
		if r.Error != "" {
			status = "error"
		} else if r.Truncated {
			status = "truncated"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			r.ID,
			r.StartedAt.Format(time.DateTime),
			formatDuration(r.Duration),
			r.Iterations,
			r.ToolCalls,
			status,
			truncate(oneLine(r.Request), 60),
		)
	}
	w.Flush()
}

func printRun(out io.Writer, r *artifacts.RunSummary) {
	fmt.Fprintf(out, "Run:        %s\n", r.ID)
	fmt.Fprintf(out, "Trace:      %s\n", r.TraceID)
	fmt.Fprintf(out, "Started:    %s\n", r.StartedAt.Format(time.DateTime))
	fmt.Fprintf(out, "Duration:   %s\n", formatDuration(r.Duration))
	fmt.Fprintf(out, "Iterations: %d (tool calls %d, failed %d)\n", r.Iterations, r.ToolCalls, r.ToolErrors)
	fmt.Fprintf(out, "Tokens:     %d in / %d out\n", r.InputTokens, r.OutputTokens)
	if r.Truncated {
		fmt.Fprintln(out, "Note:       stopped at the iteration limit")
	}
	fmt.Fprintf(out, "\nRequest:\n%s\n", r.Request)
	if r.Plan != "" {
		fmt.Fprintf(out, "\nPlan:\n%s\n", r.Plan)
	}
	if r.Error != "" {
		fmt.Fprintf(out, "\nError:\n%s\n", r.Error)
		return
	}
	fmt.Fprintf(out, "\nAnswer:\n%s\n", r.Answer)
}

func printTranscript(out io.Writer, entries []artifacts.TranscriptEntry) {
	fmt.Fprintln(out, "\nTranscript:")
	for _, e := range entries {
		if e.Kind != artifacts.EntryMessage || e.Message == nil {
			continue
		}
		for _, block := range e.Message.Content {
			switch b := block.(type) {
			case agent.TextBlock:
				fmt.Fprintf(out, "[%s] %s\n", e.Message.Role, oneLine(b.Text))
			case agent.ToolUse:
				fmt.Fprintf(out, "[%s] tool_use %s %s %v\n", e.Message.Role, b.ID, b.Name, b.Arguments)
			case agent.ToolResult:
				marker := ""
				if b.IsError {
					marker = " (error)"
				}
				fmt.Fprintf(out, "[%s] tool_result %s%s %s\n", e.Message.Role, b.ToolUseID, marker, truncate(oneLine(b.Content), 200))
			}
		}
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

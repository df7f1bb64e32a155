package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/harun/mcpilot/pkg/agent"
	"github.com/harun/mcpilot/pkg/orchestrator"
	"github.com/harun/mcpilot/pkg/planner"
	"github.com/spf13/cobra"
)

var chatReview bool

var chatCmd = &cobra.Command{
	Use:   "chat <server>",
	Short: "Interactive request loop against an MCP server",
	Long: `Connect to an MCP server and answer requests read from stdin until
"quit" or end of input. <server> is a script path (.py or .js), a command
line, stdio://cmd, sse://host/path or http+stream://host/path.`,
	Args: cobra.ExactArgs(1),
	RunE: runChat,
}

func init() {
	chatCmd.Flags().BoolVar(&chatReview, "review", false, "show each plan and ask before executing it")
	rootCmd.AddCommand(chatCmd)
}

// processor answers one request.
type processor interface {
	Process(ctx context.Context, request string) string
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.connect(ctx, args[0]); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	input := bufio.NewScanner(cmd.InOrStdin())

	var opts []orchestrator.Option
	if chatReview {
		opts = append(opts, orchestrator.WithReviewer(planner.NewReviewer(reviewPrompt(input, out))))
	}
	orch, err := a.newOrchestrator(printToolUse(out), opts...)
	if err != nil {
		return err
	}

	tools, err := a.client.ListTools(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tools: %w", err)
	}
	names := make([]string, 0, len(tools))
	for _, t := range tools {
		names = append(names, t.Name)
	}
	fmt.Fprintf(out, "Connected to server with tools: %s\n", strings.Join(names, ", "))

	return chatLoop(ctx, input, out, orch)
}

// chatLoop reads one request per line until "quit", end of input or
// cancellation.
func chatLoop(ctx context.Context, input *bufio.Scanner, out io.Writer, p processor) error {
	fmt.Fprintln(out, "Type your queries or 'quit' to exit.")
	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(out, "\nQuery: ")
		if !input.Scan() {
			fmt.Fprintln(out)
			return input.Err()
		}

		query := strings.TrimSpace(input.Text())
		if strings.EqualFold(query, "quit") {
			return nil
		}
		if query == "" {
			continue
		}

		fmt.Fprintln(out, "\n"+p.Process(ctx, query))
	}
}

// printToolUse announces each tool call before it is dispatched.
func printToolUse(out io.Writer) func(agent.ToolUse) {
	return func(use agent.ToolUse) {
		args, err := json.Marshal(use.Arguments)
		if err != nil {
			args = []byte("{}")
		}
		fmt.Fprintf(out, "[Calling tool %s with args %s]\n", use.Name, args)
	}
}

var errInputClosed = errors.New("input closed during plan review")

// reviewPrompt shows the plan and reads a decision from input. An edited plan
// is entered line by line and ends with a line holding a single ".".
func reviewPrompt(input *bufio.Scanner, out io.Writer) planner.ReviewCallback {
	return func(ctx context.Context, plan *planner.Plan) (planner.ReviewDecision, string, error) {
		fmt.Fprintf(out, "\n--- Plan ---\n%s\n------------\n", plan.Document)
		for {
			fmt.Fprint(out, "Execute this plan? [y]es / [n]o / [e]dit: ")
			if !input.Scan() {
				return "", "", errInputClosed
			}
			switch strings.ToLower(strings.TrimSpace(input.Text())) {
			case "", "y", "yes":
				return planner.ReviewApprove, "", nil
			case "n", "no":
				return planner.ReviewReject, "", nil
			case "e", "edit":
				fmt.Fprintln(out, "Enter the new plan, end with a single '.' line:")
				var lines []string
				for input.Scan() {
					line := input.Text()
					if line == "." {
						return planner.ReviewModify, strings.Join(lines, "\n"), nil
					}
					lines = append(lines, line)
				}
				return "", "", errInputClosed
			}
		}
	}
}

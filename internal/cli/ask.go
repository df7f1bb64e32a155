package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/harun/mcpilot/pkg/orchestrator"
	"github.com/spf13/cobra"
)

var errRequestFailed = errors.New("request failed")

var askCmd = &cobra.Command{
	Use:   "ask <server> <request>",
	Short: "Answer a single request and exit",
	Long: `Connect to an MCP server, answer one request and print the answer on
stdout. Tool calls are announced on stderr. The exit status is non-zero when
the request failed.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
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
	orch, err := a.newOrchestrator(printToolUse(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}

	answer := orch.Process(ctx, strings.Join(args[1:], " "))
	fmt.Fprintln(cmd.OutOrStdout(), answer)
	if strings.HasPrefix(answer, orchestrator.ErrorPrefix) {
		return errRequestFailed
	}
	return nil
}

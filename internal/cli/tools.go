package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/harun/mcpilot/pkg/agent"
	"github.com/harun/mcpilot/pkg/mcp"
	"github.com/spf13/cobra"
)

var (
	toolsJSON      bool
	toolsResources bool
)

var toolsCmd = &cobra.Command{
	Use:   "tools <server>",
	Short: "List the tools (and resources) a server exposes",
	Args:  cobra.ExactArgs(1),
	RunE:  runTools,
}

func init() {
	toolsCmd.Flags().BoolVar(&toolsJSON, "json", false, "print full descriptors including input schemas as JSON")
	toolsCmd.Flags().BoolVar(&toolsResources, "resources", false, "also list resources")
	rootCmd.AddCommand(toolsCmd)
}

func runTools(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	if err := a.connect(ctx, args[0]); err != nil {
		return err
	}

	tools, err := a.client.ListTools(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tools: %w", err)
	}
	out := cmd.OutOrStdout()
	if err := printTools(out, tools, toolsJSON); err != nil {
		return err
	}

	if toolsResources {
		resources, err := a.client.ListResources(ctx)
		if err != nil {
			return fmt.Errorf("failed to list resources: %w", err)
		}
		printResources(out, resources)
	}
	return nil
}

func printTools(out io.Writer, tools []agent.ToolDescriptor, asJSON bool) error {
	sorted := append([]agent.ToolDescriptor(nil), tools...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(sorted)
	}

	if len(sorted) == 0 {
		fmt.Fprintln(out, "No tools.")
		return nil
	}
	fmt.Fprintf(out, "Tools (%d):\n", len(sorted))
	for _, t := range sorted {
		if t.Description == "" {
			fmt.Fprintf(out, "  %s\n", t.Name)
			continue
		}
		fmt.Fprintf(out, "  %s - %s\n", t.Name, t.Description)
	}
	return nil
}

func printResources(out io.Writer, resources []mcp.Resource) {
	fmt.Fprintf(out, "Resources (%d):\n", len(resources))
	for _, r := range resources {
		name := r.Name
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(out, "  %s (%s)\n", r.URI, name)
	}
}

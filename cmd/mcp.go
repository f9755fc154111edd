package cmd

import (
	"github.com/spf13/cobra"

	"github.com/huangsam/biomarker/internal/mcp"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the biomarker MCP server",
	Long: `Launch an MCP server on stdio that lets AI agents score panels, predict risk
and forecast trends via standard tools.

Settings from flags, env and .biomarker.yaml become the defaults for every tool
call. A configured --panel is used when a call supplies no panel of its own.`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, cacheManager)
	},
}

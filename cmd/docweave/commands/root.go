// ABOUTME: Root CLI command with global flags and subcommand wiring
// ABOUTME: Defines the docweave command tree executed by main
package commands

import (
	"github.com/spf13/cobra"
)

var (
	verbose bool
	quiet   bool
)

const banner = `
███████  ██████   ██████ ██     ██ ███████  █████  ██    ██ ███████
██   ██ ██    ██ ██      ██     ██ ██      ██   ██ ██    ██ ██
██   ██ ██    ██ ██      ██  █  ██ █████   ███████ ██    ██ █████
██   ██ ██    ██ ██      ██ ███ ██ ██      ██   ██  ██  ██  ██
███████  ██████   ██████  ███ ███  ███████ ██   ██   ████   ███████
`

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docweave",
		Short: "Turn team conversations into living documents",
		Long: banner + `
Docweave reads conversation threads from Slack, Notion, or exported
files, distills them into semantic units with an LLM, and weaves the
units into FAQs, debriefs, and glossaries that survive hand edits
across regenerations.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-essential output")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.AddCommand(
		NewGenerateCmd(),
		NewUnitsCmd(),
		NewMCPCmd(),
		NewVersionCmd(),
	)

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

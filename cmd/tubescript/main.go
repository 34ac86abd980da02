package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/fpang/tubescript-ai/internal/config"
	"github.com/fpang/tubescript-ai/internal/logging"
)

// cfg is loaded once before any subcommand runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "tubescript",
	Short: "AI-assisted YouTube script and storyboard generator",
	Long: `TubeScript analyzes a reference script, suggests new topics that reuse its
structure, writes a new script in a narrative structure you choose, and
breaks that script into an illustrated storyboard.

Examples:
  tubescript run --file reference.txt --keywords "budget travel"
  tubescript run --pick
  tubescript serve --port 9090
  tubescript key set gemini`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init()
		cfg = config.Load()
	},
}

func init() {
	rootCmd.AddCommand(runCmd, serveCmd, keyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// Package cli provides the policyrag command line interface.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/policyrag/internal/logger"
)

// version is reported by the version command. main sets it at startup.
var version = "dev"

var (
	verbose   bool
	configDir string
)

var rootCmd = &cobra.Command{
	Use:   "policyrag",
	Short: "Retrieval-augmented answers about insurance policies",
	Long: `policyrag ingests an insurance knowledge base into a vector index and
answers customer questions with retrieved passages and the customer's own
policy documents in the prompt.

Settings come from ~/.policyrag/config.toml and the environment. A .env file
named by DOTENV_CONFIG_PATH (default .env.local) is loaded first.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print pipeline progress")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.policyrag)")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command and exits with status 1 on failure.
func Execute() {
	err := rootCmd.Execute()
	if cerr := closeServices(); cerr != nil {
		logger.Warn("Closing services: %v", cerr)
	}
	if err != nil {
		os.Exit(1)
	}
}

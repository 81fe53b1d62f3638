package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sofmeright/slipway/src/config"
)

var (
	cfgFile string
	verbose bool
	cfg     *config.Config

	// Explicit event overrides for local runs outside CI.
	flagEvent   string
	flagRef     string
	flagBaseRef string
	flagRepo    string
)

var rootCmd = &cobra.Command{
	Use:   "slipway",
	Short: "Trigger-driven container build and release orchestrator",
	Long: `Slipway — classify the triggering CI event and drive the checkout,
builder setup, registry login, build/push, and digest inspection steps.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for commands that don't need it.
		if cmd.Name() == "version" {
			return nil
		}
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .slipway.yml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&flagEvent, "event", "", "override event name (push, pull_request)")
	rootCmd.PersistentFlags().StringVar(&flagRef, "ref", "", "override triggering ref (refs/heads/main, refs/tags/v1.2.0)")
	rootCmd.PersistentFlags().StringVar(&flagBaseRef, "base-ref", "", "override pull request target branch")
	rootCmd.PersistentFlags().StringVar(&flagRepo, "repo", "", "override repository identifier (org/name)")
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}

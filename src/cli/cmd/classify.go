package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify the triggering event and print the trigger descriptor",
	Long: `Classify the triggering event from the CI environment (or the --event /
--ref / --base-ref / --repo overrides) against the configured filters.
Exits non-zero for unsupported events — usable as a pipeline gate.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ev, err := classifyEvent()
		if err != nil {
			return err
		}

		fmt.Printf("kind:       %s\n", ev.Kind)
		fmt.Printf("ref:        %s\n", ev.Ref)
		if ev.Repository != "" {
			fmt.Printf("repository: %s\n", ev.Repository)
		}
		if ev.Version != nil {
			fmt.Printf("version:    %s\n", ev.Version)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}

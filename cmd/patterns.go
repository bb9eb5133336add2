package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kfenwick/purrsuit/internal/pattern"
)

// newPatternsCmd creates the `patterns` command, listing the names accepted by
// the --pattern flag.
func newPatternsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "patterns",
		Short: "Lists the available play patterns",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("Authored patterns:")
			for _, k := range pattern.AuthoredKinds() {
				fmt.Printf("  %s\n", k)
			}
			fmt.Println("Reactive patterns (require --track):")
			for _, k := range pattern.ReactiveKinds() {
				fmt.Printf("  %s\n", k)
			}
		},
	}
}

func init() {
	rootCmd.AddCommand(newPatternsCmd())
}

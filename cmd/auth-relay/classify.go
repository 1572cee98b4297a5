package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"authrelay/internal/route"
)

func classifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <path>...",
		Short: "Print the guard's route class for each path",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			for _, p := range args {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", p, route.Classify(p))
			}
		},
	}
}

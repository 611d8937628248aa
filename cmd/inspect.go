package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ruimo/klavier-core-sub000/bucket"
)

func init() {
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.dat>",
	Short: "Inspects a stored performance",
	Long:  `Inspects a stored performance`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		perf, indexLength, err := bucket.ReadPerformance(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "id: %v\n", perf.ID)
		fmt.Fprintf(out, "name: %v\n", perf.Name)
		fmt.Fprintf(out, "index bytes: %v\n", indexLength)
		for _, w := range perf.Warnings {
			fmt.Fprintf(out, "warning: %v\n", w)
		}
		for _, e := range perf.Index() {
			fmt.Fprintf(out, "key: %v\n", e.AccumTick)
			fmt.Fprintf(out, "val: %v\n", e.Chunk)
		}
		return nil
	},
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/snmpfleet/snmpsim/internal/walkdiff"
)

func newDiffWalksCmd() *cobra.Command {
	var showAll bool
	cmd := &cobra.Command{
		Use:   "diff-walks LEFT RIGHT",
		Short: "Compare two walk files OID-by-OID and print what changed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := walkdiff.CompareFiles(args[0], args[1])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if result.Identical() {
				fmt.Fprintf(out, "identical: %d OIDs\n", result.LeftCount)
				return nil
			}

			fmt.Fprintf(out, "left=%d right=%d differences=%d\n", result.LeftCount, result.RightCount, len(result.Diffs))
			limit := len(result.Diffs)
			if !showAll && limit > 100 {
				limit = 100
			}
			for _, d := range result.Diffs[:limit] {
				fmt.Fprintf(out, "- %s [%s]\n", d.OID, d.Kind)
				if d.LeftValue != "" {
					fmt.Fprintf(out, "  left : %s\n", d.LeftValue)
				}
				if d.RightValue != "" {
					fmt.Fprintf(out, "  right: %s\n", d.RightValue)
				}
			}
			if !showAll && len(result.Diffs) > limit {
				fmt.Fprintf(out, "... %d more differences omitted (use --show-all)\n", len(result.Diffs)-limit)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showAll, "show-all", false, "Show every difference instead of the first 100")
	return cmd
}

func init() {
	rootCmd.AddCommand(newDiffWalksCmd())
}

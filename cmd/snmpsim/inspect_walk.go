package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/snmpfleet/snmpsim/internal/walk"
)

func newInspectWalkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect-walk WALK_FILE",
		Short: "Parse a walk file and print its bindings in sorted order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := walk.ParseFile(args[0])
			if err != nil {
				return err
			}
			for _, b := range w.SortedBindings() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", b.OID, b.Variable)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# %d OIDs\n", w.Len())
			return nil
		},
	}
	return cmd
}

func init() {
	rootCmd.AddCommand(newInspectWalkCmd())
}

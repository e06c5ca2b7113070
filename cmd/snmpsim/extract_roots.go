package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/snmpfleet/snmpsim/internal/oid"
	"github.com/snmpfleet/snmpsim/internal/rootextract"
	"github.com/snmpfleet/snmpsim/internal/walk"
)

func newExtractRootsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract-roots WALK_FILE",
		Short: "Print the minimal set of non-overlapping subtree roots a walk file would register as MO Groups",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := walk.ParseFile(args[0])
			if err != nil {
				return err
			}
			bindings := w.SortedBindings()
			oids := make([]oid.OID, len(bindings))
			for i, b := range bindings {
				oids[i] = b.OID
			}
			roots := rootextract.Extract(oids)
			for _, r := range roots {
				fmt.Fprintln(cmd.OutOrStdout(), r)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# %d roots from %d OIDs\n", len(roots), w.Len())
			return nil
		},
	}
	return cmd
}

func init() {
	rootCmd.AddCommand(newExtractRootsCmd())
}

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/snmpfleet/snmpsim/internal/recorder"
	"github.com/snmpfleet/snmpsim/internal/walk"
)

type recordOptions struct {
	target    string
	port      uint16
	out       string
	community string
	v3User    string
	v3Auth    string
	v3AuthKey string
	v3Priv    string
	v3PrivKey string
	maxOIDs   int
	rateLimit int
	timeout   time.Duration
	retries   int
	roots     []string
	excludes  []string
}

func newRecordCmd() *cobra.Command {
	opts := &recordOptions{}
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Walk a live SNMP agent and save it as a walk file",
		Long:  `record GETNEXT-walks a real agent's configured root subtrees and writes the result in the same format internal/walk parses, seeding a new simulated agent's dataset from a real device.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.out == "" {
				return fmt.Errorf("record: --out is required")
			}
			bindings, err := recorder.Record(recorder.Options{
				Target:    opts.target,
				Port:      opts.port,
				Timeout:   opts.timeout,
				Retries:   opts.retries,
				MaxOIDs:   opts.maxOIDs,
				RateLimit: opts.rateLimit,
				Roots:     opts.roots,
				Exclude:   opts.excludes,
				Community: opts.community,
				V3User:    opts.v3User,
				V3Auth:    opts.v3Auth,
				V3AuthKey: opts.v3AuthKey,
				V3Priv:    opts.v3Priv,
				V3PrivKey: opts.v3PrivKey,
			})
			if err != nil {
				return fmt.Errorf("record: %w", err)
			}
			if err := os.WriteFile(opts.out, walk.Serialize(bindings), 0o644); err != nil {
				return fmt.Errorf("record: write %s: %w", opts.out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recorded %d OIDs to %s\n", len(bindings), opts.out)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.target, "target", "127.0.0.1", "SNMP target host")
	cmd.Flags().Uint16Var(&opts.port, "port", 161, "SNMP target port")
	cmd.Flags().StringVar(&opts.out, "out", "", "Output walk file path (required)")
	cmd.Flags().StringVar(&opts.community, "community", "", "SNMP community (v1/v2c mode)")
	cmd.Flags().StringVar(&opts.v3User, "v3-user", "", "SNMPv3 username")
	cmd.Flags().StringVar(&opts.v3Auth, "v3-auth", "", "SNMPv3 auth protocol: MD5,SHA1,SHA224,SHA256,SHA384,SHA512")
	cmd.Flags().StringVar(&opts.v3AuthKey, "v3-auth-key", "", "SNMPv3 auth passphrase")
	cmd.Flags().StringVar(&opts.v3Priv, "v3-priv", "", "SNMPv3 privacy protocol: DES,AES128,AES192,AES256")
	cmd.Flags().StringVar(&opts.v3PrivKey, "v3-priv-key", "", "SNMPv3 privacy passphrase")
	cmd.Flags().IntVar(&opts.maxOIDs, "max-oids", 0, "Maximum OIDs to record (0 = unlimited)")
	cmd.Flags().IntVar(&opts.rateLimit, "rate-limit", 0, "Maximum OIDs processed per second (0 = unlimited)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 2*time.Second, "Request timeout")
	cmd.Flags().IntVar(&opts.retries, "retries", 0, "SNMP retries")
	cmd.Flags().StringSliceVar(&opts.roots, "root", nil, "Root subtree to walk (repeatable; defaults to recorder.DefaultRoots)")
	cmd.Flags().StringSliceVar(&opts.excludes, "exclude", nil, "OID prefix to exclude (repeatable)")
	return cmd
}

func init() {
	rootCmd.AddCommand(newRecordCmd())
}

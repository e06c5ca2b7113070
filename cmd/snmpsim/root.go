package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:     "snmpsim",
	Short:   "Simulate a fleet of SNMP agents from walk-file recordings",
	Long:    `snmpsim serves a configurable fleet of SNMPv1/v2c/v3 agents, each answering from a recorded walk file reshaped by a device's modifier bindings.`,
	Version: version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("snmpsim %s\n", version))
}

// Execute runs the root command, exiting the process with status 1 on
// any error, matching the teacher's own fatal-on-startup-error policy.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

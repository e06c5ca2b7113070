// Command snmpsim serves a fleet of simulated SNMP agents, each
// configured by a fleet config YAML document (spec §6) and backed by a
// device descriptor, a walk file, and optional SNMPv3 USM credentials.
package main

func main() {
	Execute()
}

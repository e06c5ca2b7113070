package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/snmpfleet/snmpsim/internal/assembler"
	"github.com/snmpfleet/snmpsim/internal/bootstate"
	"github.com/snmpfleet/snmpsim/internal/config"
	"github.com/snmpfleet/snmpsim/internal/devicecache"
	"github.com/snmpfleet/snmpsim/internal/devicefactory"
	"github.com/snmpfleet/snmpsim/internal/metrics"
	"github.com/snmpfleet/snmpsim/internal/routing"
	"github.com/snmpfleet/snmpsim/internal/stats"
	"github.com/snmpfleet/snmpsim/internal/transport"
	"github.com/snmpfleet/snmpsim/internal/v3"
	"github.com/snmpfleet/snmpsim/internal/walk"
	"github.com/snmpfleet/snmpsim/internal/wire"
)

type serveOptions struct {
	fleetPath   string
	deviceCache string
	bootDir     string
	metricsAddr string
	statsCron   string
}

func newServeCmd() *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve FLEET_FILE",
		Short: "Start every agent named in a fleet config",
		Long:  `serve reads a fleet config YAML document, builds one SNMP agent per entry (device + walk file + optional SNMPv3 credentials), and listens until interrupted.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.fleetPath = args[0]
			return runServe(opts)
		},
	}
	cmd.Flags().StringVar(&opts.deviceCache, "device-cache", "", "Path to a bbolt device-descriptor cache (disabled when empty)")
	cmd.Flags().StringVar(&opts.bootDir, "state-dir", "state", "Directory for per-agent boot-counter and engine-snapshot files")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", ":9116", "Address to serve Prometheus metrics on")
	cmd.Flags().StringVar(&opts.statsCron, "stats-cron", stats.DefaultSpec, "Cron spec for the periodic MO Group size snapshot (empty disables it)")
	return cmd
}

func init() {
	rootCmd.AddCommand(newServeCmd())
}

func runServe(opts *serveOptions) error {
	fleet, err := config.LoadFleet(opts.fleetPath)
	if err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	checkFileDescriptors(len(fleet.Agents))

	var disk *devicecache.Cache
	if opts.deviceCache != "" {
		disk, err = devicecache.Open(opts.deviceCache)
		if err != nil {
			return fmt.Errorf("serve: open device cache: %w", err)
		}
		defer disk.Close()
	}
	factory := devicefactory.New(disk)

	bootStore, err := bootstate.NewStore(opts.bootDir)
	if err != nil {
		return fmt.Errorf("serve: open state dir: %w", err)
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	reporter, err := stats.NewReporter(opts.statsCron, m)
	if err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	udpFleet := transport.NewFleet()

	for _, entry := range fleet.Agents {
		dev := factory.Default()
		if entry.Device != "" {
			loaded, modErrs, err := factory.Load(entry.Device)
			if err != nil {
				return fmt.Errorf("serve: agent %s: %w", entry.Name, err)
			}
			for _, modErr := range modErrs {
				log.Printf("serve: agent %s: device %s: %v", entry.Name, entry.Device, modErr)
			}
			dev = loaded
		}

		w, err := walk.ParseFile(entry.Walk)
		if err != nil {
			return fmt.Errorf("serve: agent %s: %w", entry.Name, err)
		}

		agent := assembler.Assemble(entry.Name, entry.Community, w.SortedBindings(), dev)

		server := transport.NewAgentServer(agent, entry.IP, entry.Port).
			WithMetrics(entry.Name, m)

		if entry.RouteFile != "" {
			router, err := routing.LoadFromFile(entry.RouteFile)
			if err != nil {
				return fmt.Errorf("serve: agent %s: %w", entry.Name, err)
			}
			datasets := make(map[string]*wire.Responder, len(router.DatasetPaths()))
			for _, path := range router.DatasetPaths() {
				altWalk, err := walk.ParseFile(path)
				if err != nil {
					return fmt.Errorf("serve: agent %s: route dataset %s: %w", entry.Name, path, err)
				}
				altAgent := assembler.Assemble(entry.Name, entry.Community, altWalk.SortedBindings(), dev)
				datasets[path] = wire.NewResponder(altAgent.Registry).WithMetrics(entry.Name, m)
			}
			server = server.WithRouting(router, datasets)
			log.Printf("serve: agent %s: dataset routing enabled (%d datasets)", entry.Name, len(datasets))
		}

		if entry.V3 != nil && entry.V3.Enabled {
			session, err := buildV3Session(entry, bootStore)
			if err != nil {
				return fmt.Errorf("serve: agent %s: %w", entry.Name, err)
			}
			server = server.WithV3(session)
		}

		udpFleet.Add(server)
		reporter.Track(stats.Source{Name: agent.Name, Registry: agent.Registry})
		log.Printf("serve: agent %s ready: %s:%d (community=%s, %d OIDs)", entry.Name, entry.IP, entry.Port, entry.Community, w.Len())
	}

	if err := udpFleet.Start(); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	reporter.Start()

	metricsServer := &http.Server{Addr: opts.metricsAddr, Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{})}
	go func() {
		log.Printf("serve: metrics listening on %s/metrics", opts.metricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("serve: metrics server error: %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("serve: received signal %v, shutting down", sig)
		cancel()
	}()

	log.Printf("serve: %d agents running", len(fleet.Agents))
	<-ctx.Done()

	reporter.Stop()
	udpFleet.Stop()
	_ = metricsServer.Shutdown(context.Background())
	log.Printf("serve: shutdown complete")
	return nil
}

// buildV3Session derives the engineID (generating and persisting one if
// the fleet config didn't pin it), recovers this engine's boot counter
// from state across restarts, and saves a snapshot for operators
// inspecting state-dir by hand.
func buildV3Session(agent config.AgentEntry, bootStore *bootstate.Store) (*v3.Session, error) {
	agentName := agent.Name
	entry := *agent.V3
	engineID, err := v3.ParseEngineID(entry.EngineID)
	if err != nil {
		return nil, fmt.Errorf("v3 engine id: %w", err)
	}
	if engineID == "" {
		engineID = v3.GenerateEngineID(agentName)
	}

	cfg := v3.Config{
		Enabled:  true,
		EngineID: engineID,
		Username: entry.Username,
		Auth:     v3.AuthProtocol(strings.ToUpper(entry.Auth)),
		AuthKey:  entry.AuthKey,
		Priv:     v3.PrivProtocol(strings.ToUpper(entry.Priv)),
		PrivKey:  entry.PrivKey,
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("v3 config: %w", err)
	}

	boots, err := bootStore.EnsureBoots(agentName)
	if err != nil {
		return nil, fmt.Errorf("v3 boot state: %w", err)
	}

	if err := bootStore.SaveSnapshot(agentName, bootstate.EngineSnapshot{
		Agent:      agentName,
		Community:  agent.Community,
		IP:         agent.IP,
		Port:       agent.Port,
		V3Enabled:  true,
		V3EngineID: engineID,
		V3Username: entry.Username,
	}); err != nil {
		log.Printf("serve: agent %s: save engine snapshot: %v", agentName, err)
	}

	return v3.NewSession(cfg, boots), nil
}

func checkFileDescriptors(agentCount int) {
	var rlimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rlimit); err != nil {
		log.Printf("serve: could not check file descriptor limit: %v", err)
		return
	}
	required := uint64(agentCount) + 100
	if rlimit.Cur < required {
		log.Printf("serve: file descriptor limit (%d) may be insufficient for %d agents (%d required); raise with ulimit -n %d", rlimit.Cur, agentCount, required, required*2)
	}
}

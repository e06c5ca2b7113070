// Package stats runs a cron-scheduled snapshot of every configured
// agent's live MO Group sizes, pushing them into internal/metrics and
// logging a summary line. It is internal/traps.Manager's cron-driven
// periodic job shape carried over without the trap-emission half, which
// spec.md's Non-goals exclude as a feature surface.
package stats

import (
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/snmpfleet/snmpsim/internal/assembler"
	"github.com/snmpfleet/snmpsim/internal/metrics"
)

// DefaultSpec is an "@every" descriptor, which NewReporter's parser
// (cron.Minute|Hour|Dom|Month|Dow plus cron.Descriptor) accepts, run at
// the domain stack's stated default cadence.
const DefaultSpec = "@every 30s"

// Source is the subset of assembler.Agent a Reporter snapshots: its name
// (for metric labels) and its Registry (for group sizes).
type Source struct {
	Name     string
	Registry *assembler.Registry
}

// Reporter periodically sums every tracked agent's MO Group sizes into
// metrics and a log line.
type Reporter struct {
	metrics *metrics.Metrics
	cron    *cron.Cron

	mu      sync.Mutex
	sources []Source
}

// NewReporter builds a Reporter that runs spec (e.g. DefaultSpec) against
// m. An empty spec disables scheduling; Start becomes a no-op and Report
// must be called manually (tests do this to avoid waiting on a timer).
func NewReporter(spec string, m *metrics.Metrics) (*Reporter, error) {
	r := &Reporter{metrics: m}
	if spec == "" {
		return r, nil
	}
	r.cron = cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)))
	if _, err := r.cron.AddFunc(spec, r.Report); err != nil {
		return nil, fmt.Errorf("stats: invalid cron spec %q: %w", spec, err)
	}
	return r, nil
}

// Track registers src for snapshotting on every future Report call.
func (r *Reporter) Track(src Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = append(r.sources, src)
}

// Start begins the scheduled reporting loop. A Reporter built with an
// empty spec has no scheduler and Start does nothing.
func (r *Reporter) Start() {
	if r.cron != nil {
		r.cron.Start()
	}
}

// Stop waits for the scheduler to finish its current run, if any, and
// halts further runs.
func (r *Reporter) Stop() {
	if r.cron != nil {
		ctx := r.cron.Stop()
		<-ctx.Done()
	}
}

// Report snapshots every tracked source's MO Group sizes into metrics
// and logs a summary. Exported so tests (or any other caller) can
// trigger one snapshot without waiting on the cron schedule.
func (r *Reporter) Report() {
	r.mu.Lock()
	sources := append([]Source(nil), r.sources...)
	r.mu.Unlock()

	total := 0
	for _, src := range sources {
		for _, ctxName := range src.Registry.Contexts() {
			size := 0
			for _, g := range src.Registry.GroupsFor(ctxName) {
				size += g.Len()
			}
			if r.metrics != nil {
				r.metrics.SetGroupSize(src.Name, ctxName, size)
			}
			total += size
		}
	}
	log.Printf("stats: snapshot: %d agents, %d OIDs total", len(sources), total)
}

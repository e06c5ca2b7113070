package transport

import (
	"fmt"
	"sync"
)

// Fleet starts and stops one AgentServer per configured agent, the
// multi-listener lifecycle engine/simulator.go's Simulator owns, except
// here each agent binds its own address:port pair instead of the
// teacher's fixed port-range-per-device scheme.
type Fleet struct {
	mu      sync.Mutex
	servers []*AgentServer
}

// NewFleet returns an empty Fleet.
func NewFleet() *Fleet {
	return &Fleet{}
}

// Add registers a server to be started by Start. Add before calling
// Start; adding after Start does not retroactively start the server.
func (f *Fleet) Add(s *AgentServer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.servers = append(f.servers, s)
}

// Start binds every added server's socket. If any bind fails, every
// server started so far is stopped and the first error is returned,
// matching Simulator.Start's all-or-nothing startup.
func (f *Fleet) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	started := make([]*AgentServer, 0, len(f.servers))
	for _, s := range f.servers {
		if err := s.Start(); err != nil {
			for _, up := range started {
				up.Stop()
			}
			return fmt.Errorf("transport: fleet start: %w", err)
		}
		started = append(started, s)
	}
	return nil
}

// Stop gracefully stops every server, waiting for each listener
// goroutine to exit.
func (f *Fleet) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.servers {
		s.Stop()
	}
}

// Package bootstate persists the two small per-agent files spec §6
// describes: a boot counter (incremented once per process startup, never
// allowed to regress per RFC 3414 §2.2.1) and a YAML snapshot of the
// agent's resolved engine config, useful for inspecting what an agent
// last started with without re-parsing its fleet/device YAML. Both files
// live in the Store's own directory (the serve command's --state-dir),
// not next to the agent's walk file, named from the agent's own name so
// a fleet config can be edited (reordered, renamed walk paths) without
// losing an agent's boot history — only renaming the agent itself does
// that, which matches engineID's own identity being tied to the name it
// was generated from (internal/v3.GenerateEngineID).
package bootstate

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// EngineSnapshot is the small YAML document written alongside an agent's
// boot counter: just enough to tell, without re-reading the fleet and
// device config, what an agent was last started with.
type EngineSnapshot struct {
	Agent      string `yaml:"agent"`
	Community  string `yaml:"community"`
	IP         string `yaml:"ip"`
	Port       int    `yaml:"port"`
	V3Enabled  bool   `yaml:"v3_enabled"`
	V3EngineID string `yaml:"v3_engine_id,omitempty"`
	V3Username string `yaml:"v3_username,omitempty"`
}

// Store persists boot-counter and engine-snapshot files under dir, one
// pair per agent name.
type Store struct {
	dir string
	mu  sync.Mutex
}

// NewStore builds a Store rooted at dir, creating dir if it does not
// already exist.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("bootstate: create state dir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// encodeName percent-encodes name per RFC 3986, the way net/url.QueryEscape
// does except spaces come out as %20 rather than "+" — filenames built
// from this must round-trip through ordinary path tools, which treat "+"
// as a literal character, not query-string shorthand for space.
func encodeName(name string) string {
	return strings.ReplaceAll(url.QueryEscape(name), "+", "%20")
}

func (s *Store) bcPath(agent string) string {
	return filepath.Join(s.dir, encodeName(agent)+".BC.cfg")
}

func (s *Store) configPath(agent string) string {
	return filepath.Join(s.dir, encodeName(agent)+".Config.cfg")
}

// EnsureBoots increments and persists agent's boot counter, returning the
// new value. A missing file starts the counter at 1, matching RFC 3414
// §2.2.1's first-contact behavior for a never-before-seen engine.
func (s *Store) EnsureBoots(agent string) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.bcPath(agent)
	boots, err := readBoots(path)
	if err != nil {
		return 0, err
	}
	boots++
	if err := os.WriteFile(path, []byte(strconv.FormatUint(uint64(boots), 10)), 0o600); err != nil {
		return 0, fmt.Errorf("bootstate: write %s: %w", path, err)
	}
	return boots, nil
}

func readBoots(path string) (uint32, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("bootstate: read %s: %w", path, err)
	}
	boots, err := strconv.ParseUint(strings.TrimSpace(string(raw)), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("bootstate: parse %s: %w", path, err)
	}
	return uint32(boots), nil
}

// SaveSnapshot writes snap as the agent's current engine-config snapshot,
// overwriting any previous one.
func (s *Store) SaveSnapshot(agent string, snap EngineSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap.Agent = agent
	raw, err := yaml.Marshal(snap)
	if err != nil {
		return fmt.Errorf("bootstate: marshal snapshot for %s: %w", agent, err)
	}
	if err := os.WriteFile(s.configPath(agent), raw, 0o600); err != nil {
		return fmt.Errorf("bootstate: write snapshot for %s: %w", agent, err)
	}
	return nil
}

// LoadSnapshot reads back the last snapshot saved for agent. A missing
// file returns a zero EngineSnapshot and no error — there is nothing
// wrong with an agent that has never been started before.
func (s *Store) LoadSnapshot(agent string) (EngineSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.configPath(agent))
	if err != nil {
		if os.IsNotExist(err) {
			return EngineSnapshot{}, nil
		}
		return EngineSnapshot{}, fmt.Errorf("bootstate: read snapshot for %s: %w", agent, err)
	}
	var snap EngineSnapshot
	if err := yaml.Unmarshal(raw, &snap); err != nil {
		return EngineSnapshot{}, fmt.Errorf("bootstate: parse snapshot for %s: %w", agent, err)
	}
	return snap, nil
}

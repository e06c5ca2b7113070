// Package devicefactory provides a cached, explicitly-injected parse of
// device descriptors (spec component table: "Device Factory — cached
// parse of device descriptors"). Spec §9 flags the source's equivalent as
// a hidden process-wide global with a TODO asking each agent instance to
// own one instead; Factory has no package-level state at all — callers
// construct and pass one explicitly, typically once per process, shared
// by reference across every agent that needs it.
package devicefactory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/snmpfleet/snmpsim/internal/config"
	"github.com/snmpfleet/snmpsim/internal/device"
	"github.com/snmpfleet/snmpsim/internal/devicecache"
)

// Factory is a read-mostly, concurrency-safe cache of parsed Devices,
// keyed by descriptor path. Per spec §5's shared-resource policy, it must
// be safe for concurrent reads after the initial populate; Load takes the
// write lock only on a cache miss.
type Factory struct {
	mu   sync.RWMutex
	mem  map[string]*device.Device
	disk *devicecache.Cache // optional; nil disables cross-restart caching
}

// New builds a Factory. disk may be nil, in which case the factory caches
// only in-memory for this process's lifetime.
func New(disk *devicecache.Cache) *Factory {
	return &Factory{mem: make(map[string]*device.Device), disk: disk}
}

// Load returns the Device parsed from path, building and caching it on
// first request. Concurrent Loads for the same never-yet-seen path each
// parse independently and the last one to finish wins the cache slot —
// acceptable because Build is pure and idempotent for a given file.
func (f *Factory) Load(path string) (*device.Device, []error, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, nil, fmt.Errorf("devicefactory: resolve path %s: %w", path, err)
	}
	path = abs

	f.mu.RLock()
	if d, ok := f.mem[path]; ok {
		f.mu.RUnlock()
		return d, nil, nil
	}
	f.mu.RUnlock()

	doc, modErrs, err := f.decode(path)
	if err != nil {
		return nil, nil, err
	}
	d, buildErrs := config.BuildDevice(doc)

	f.mu.Lock()
	f.mem[path] = d
	f.mu.Unlock()

	return d, append(modErrs, buildErrs...), nil
}

// decode returns the descriptor document for path, served from the disk
// cache when its stored mtime still matches the file on disk, else
// re-read and re-parsed from YAML (and the disk cache repopulated).
func (f *Factory) decode(path string) (config.DeviceDescriptorYAML, []error, error) {
	info, err := os.Stat(path)
	if err != nil {
		return config.DeviceDescriptorYAML{}, nil, fmt.Errorf("devicefactory: stat %s: %w", path, err)
	}

	if f.disk != nil {
		if raw, ok := f.disk.Get(path, info.ModTime()); ok {
			var doc config.DeviceDescriptorYAML
			if err := json.Unmarshal(raw, &doc); err == nil {
				return doc, nil, nil
			}
		}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return config.DeviceDescriptorYAML{}, nil, fmt.Errorf("devicefactory: read %s: %w", path, err)
	}
	doc, err := config.ParseDeviceDescriptorYAML(raw)
	if err != nil {
		return config.DeviceDescriptorYAML{}, nil, fmt.Errorf("devicefactory: parse %s: %w", path, err)
	}

	if f.disk != nil {
		if encoded, err := json.Marshal(doc); err == nil {
			_ = f.disk.Put(path, info.ModTime(), encoded)
		}
	}

	return doc, nil, nil
}

// Default returns the zero-configuration DEFAULT_DEVICE without touching
// the cache, for agent entries whose device field is empty (spec §6).
func (f *Factory) Default() *device.Device {
	return device.Default()
}

// Package config loads the two YAML shapes spec §6 defines: a device
// descriptor (name, vlans, modifier bindings) and a fleet config (a list
// of agent entries). Both loaders read a file once at startup and never
// watch it for changes, per the Lifecycle guarantee of spec §3.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/snmpfleet/snmpsim/internal/device"
)

// DeviceDescriptorYAML mirrors spec §6's device descriptor document.
type DeviceDescriptorYAML struct {
	Name      string                   `yaml:"name"`
	VLANs     []uint64                 `yaml:"vlans"`
	Modifiers []ModifierDescriptorYAML `yaml:"modifiers"`
}

// ModifierDescriptorYAML mirrors one entry of a device descriptor's
// modifiers list.
type ModifierDescriptorYAML struct {
	OID        string                 `yaml:"oid"`
	Class      string                 `yaml:"class"`
	Properties map[string]interface{} `yaml:"properties"`
}

// LoadDevice reads and parses a device descriptor file, then builds its
// Device eagerly via device.New. Modifier-construction errors are
// returned alongside the Device rather than failing the load outright,
// matching spec §7: "unknown modifier kind. Logged; modifier or device
// falls back to defaults; other agents continue."
func LoadDevice(path string) (*device.Device, []error, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read device descriptor %s: %w", path, err)
	}
	doc, err := ParseDeviceDescriptorYAML(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("parse device descriptor %s: %w", path, err)
	}
	d, modErrs := BuildDevice(doc)
	return d, modErrs, nil
}

// ParseDeviceDescriptorYAML unmarshals raw YAML bytes into the descriptor
// document shape, without building the Device. internal/devicefactory
// uses this directly so it can cache the decoded document independently
// of modifier construction (see devicecache).
func ParseDeviceDescriptorYAML(raw []byte) (DeviceDescriptorYAML, error) {
	var doc DeviceDescriptorYAML
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return DeviceDescriptorYAML{}, err
	}
	return doc, nil
}

// BuildDevice turns a decoded descriptor document into a Device, building
// every modifier binding eagerly via device.New.
func BuildDevice(doc DeviceDescriptorYAML) (*device.Device, []error) {
	desc := device.Descriptor{
		Name:  doc.Name,
		VLANs: doc.VLANs,
	}
	for _, m := range doc.Modifiers {
		desc.Modifiers = append(desc.Modifiers, device.ModifierDescriptor{
			OID:        m.OID,
			Class:      m.Class,
			Properties: m.Properties,
		})
	}
	return device.New(desc)
}

// AgentEntry mirrors one element of the agent config list of spec §6: an
// agent's listening address, its walk file, and the device it wears.
type AgentEntry struct {
	Name      string       `yaml:"name"`
	Device    string       `yaml:"device"`
	Walk      string       `yaml:"walk"`
	IP        string       `yaml:"ip"`
	Port      int          `yaml:"port"`
	Community string       `yaml:"community"`
	V3        *V3EntryYAML `yaml:"v3,omitempty"`
	RouteFile string       `yaml:"route_file,omitempty"`
}

// V3EntryYAML mirrors the teacher's main.go v3-* flags as a YAML block,
// one per agent rather than one shared across the whole process: spec §4
// treats v3 as a per-engine (per-agent) config, not a process-global.
type V3EntryYAML struct {
	Enabled  bool   `yaml:"enabled"`
	EngineID string `yaml:"engine_id"`
	Username string `yaml:"username"`
	Auth     string `yaml:"auth"`
	AuthKey  string `yaml:"auth_key"`
	Priv     string `yaml:"priv"`
	PrivKey  string `yaml:"priv_key"`
}

// FleetConfig is the top-level agent config list document.
type FleetConfig struct {
	Agents []AgentEntry `yaml:"agents"`
}

const defaultCommunity = "public"

// Normalize applies the documented defaults of spec §6: name defaults to
// "<ip>:<port>", community defaults to "public", device is left empty
// (the caller substitutes device.Default() when empty).
func (e AgentEntry) Normalize() AgentEntry {
	if e.Name == "" {
		e.Name = fmt.Sprintf("%s:%d", e.IP, e.Port)
	}
	if e.Community == "" {
		e.Community = defaultCommunity
	}
	return e
}

// LoadFleet reads and parses a fleet config file, validating that every
// entry names a walk file and a listening IP/port — the two fields spec
// §6 marks required. Relative device/walk paths are resolved against the
// fleet file's own directory, so a fleet config can be invoked from any
// working directory.
func LoadFleet(path string) (*FleetConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fleet config %s: %w", path, err)
	}
	var cfg FleetConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse fleet config %s: %w", path, err)
	}

	base := filepath.Dir(path)
	for i, a := range cfg.Agents {
		if a.Walk == "" {
			return nil, fmt.Errorf("fleet config %s: agent %d: walk is required", path, i)
		}
		if a.IP == "" || a.Port == 0 {
			return nil, fmt.Errorf("fleet config %s: agent %d: ip and port are required", path, i)
		}
		a.Walk = resolveRelative(base, a.Walk)
		if a.Device != "" {
			a.Device = resolveRelative(base, a.Device)
		}
		if a.RouteFile != "" {
			a.RouteFile = resolveRelative(base, a.RouteFile)
		}
		cfg.Agents[i] = a.Normalize()
	}
	return &cfg, nil
}

func resolveRelative(base, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

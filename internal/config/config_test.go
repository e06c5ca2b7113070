package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestLoadDeviceBuildsModifiersAndCollectsErrors(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "switch.yaml", `
name: switch-24port
vlans: [10, 20]
modifiers:
  - oid: 1.3.6.1.2.1.2.2.1.10
    class: Counter32
    properties: { minimum: 0, maximum: 100, minimumStep: 1, maximumStep: 1 }
  - oid: 1.3.6.1.2.1.1.1
    class: NotAKind
`)
	d, modErrs, err := LoadDevice(path)
	if err != nil {
		t.Fatalf("LoadDevice: %v", err)
	}
	if len(modErrs) != 1 {
		t.Fatalf("expected 1 modifier error, got %d: %v", len(modErrs), modErrs)
	}
	if d.Name != "switch-24port" || len(d.VLANs) != 2 || len(d.Bindings) != 1 {
		t.Fatalf("unexpected device: %+v", d)
	}
}

func TestLoadDeviceMissingFileIsFatal(t *testing.T) {
	if _, _, err := LoadDevice(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing device file")
	}
}

func TestLoadFleetAppliesDefaultsAndResolvesPaths(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "fleet.yaml", `
agents:
  - walk: walks/a.walk
    ip: 127.0.0.1
    port: 16100
  - name: core-switch
    device: devices/switch.yaml
    walk: walks/b.walk
    ip: 127.0.0.1
    port: 16101
    community: myCom
`)
	cfg, err := LoadFleet(path)
	if err != nil {
		t.Fatalf("LoadFleet: %v", err)
	}
	if len(cfg.Agents) != 2 {
		t.Fatalf("got %d agents, want 2", len(cfg.Agents))
	}
	first := cfg.Agents[0]
	if first.Name != "127.0.0.1:16100" {
		t.Fatalf("name default = %q, want ip:port", first.Name)
	}
	if first.Community != "public" {
		t.Fatalf("community default = %q, want public", first.Community)
	}
	if want := filepath.Join(dir, "walks/a.walk"); first.Walk != want {
		t.Fatalf("walk = %q, want %q", first.Walk, want)
	}

	second := cfg.Agents[1]
	if second.Community != "myCom" {
		t.Fatalf("community = %q, want myCom", second.Community)
	}
	if want := filepath.Join(dir, "devices/switch.yaml"); second.Device != want {
		t.Fatalf("device = %q, want %q", second.Device, want)
	}
}

func TestLoadFleetRequiresWalkAndAddress(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "fleet.yaml", `
agents:
  - ip: 127.0.0.1
    port: 16100
`)
	if _, err := LoadFleet(path); err == nil {
		t.Fatalf("expected error for missing walk field")
	}
}

package devicecache

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"
)

func TestGetMissThenPutThenHit(t *testing.T) {
	c, err := Open(filepath.Join(t.TempDir(), "devices.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	mtime := time.Unix(1700000000, 0)
	if _, ok := c.Get("switch.yaml", mtime); ok {
		t.Fatalf("expected miss before Put")
	}

	payload, _ := json.Marshal(map[string]string{"name": "switch-24port"})
	if err := c.Put("switch.yaml", mtime, payload); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok := c.Get("switch.yaml", mtime)
	if !ok {
		t.Fatalf("expected hit after Put")
	}
	var decoded map[string]string
	if err := json.Unmarshal(got, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["name"] != "switch-24port" {
		t.Fatalf("got %v", decoded)
	}
}

func TestGetStaleMtimeIsMiss(t *testing.T) {
	c, err := Open(filepath.Join(t.TempDir(), "devices.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	original := time.Unix(1700000000, 0)
	payload, _ := json.Marshal(map[string]string{"name": "x"})
	if err := c.Put("d.yaml", original, payload); err != nil {
		t.Fatalf("Put: %v", err)
	}

	newer := original.Add(time.Second)
	if _, ok := c.Get("d.yaml", newer); ok {
		t.Fatalf("expected miss when mtime has advanced")
	}
}

func TestNilCacheIsSafe(t *testing.T) {
	var c *Cache
	if _, ok := c.Get("x", time.Now()); ok {
		t.Fatalf("expected miss on nil cache")
	}
	if err := c.Put("x", time.Now(), []byte("{}")); err != nil {
		t.Fatalf("Put on nil cache should be a no-op, got %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close on nil cache should be a no-op, got %v", err)
	}
}

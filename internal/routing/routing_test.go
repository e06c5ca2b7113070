package routing

import (
	"net"
	"testing"
)

func TestRouterPriorityAndMatching(t *testing.T) {
	router, err := NewRouter([]DatasetRule{
		{
			Match:    DatasetMatch{},
			WalkFile: "default.walk",
		},
		{
			Match:    DatasetMatch{DstPort: 20000},
			WalkFile: "endpoint.walk",
		},
		{
			Match:    DatasetMatch{Community: "private"},
			WalkFile: "community.walk",
		},
		{
			Match:    DatasetMatch{Context: "ctxA"},
			WalkFile: "context.walk",
		},
		{
			Match:    DatasetMatch{Context: "ctxA", EngineID: "8000000001020304"},
			WalkFile: "engine-context.walk",
		},
	})
	if err != nil {
		t.Fatalf("NewRouter failed: %v", err)
	}

	tests := []struct {
		name string
		key  RequestKey
		want string
	}{
		{
			name: "engine_context_has_highest_priority",
			key: RequestKey{
				Community: "private",
				Context:   "ctxA",
				EngineID:  decodedEngineID(t, "8000000001020304"),
				DstPort:   20000,
			},
			want: "engine-context.walk",
		},
		{
			name: "context_over_community",
			key: RequestKey{
				Community: "private",
				Context:   "ctxA",
				EngineID:  "different",
				DstPort:   20000,
			},
			want: "context.walk",
		},
		{
			name: "community_over_endpoint",
			key: RequestKey{
				Community: "private",
				DstPort:   20000,
			},
			want: "community.walk",
		},
		{
			name: "endpoint_over_default",
			key: RequestKey{
				Community: "public",
				DstPort:   20000,
			},
			want: "endpoint.walk",
		},
		{
			name: "default_fallback",
			key: RequestKey{
				Community: "public",
				DstPort:   20001,
			},
			want: "default.walk",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := router.Select(tc.key)
			if got != tc.want {
				t.Fatalf("Select() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRouterValidation(t *testing.T) {
	_, err := NewRouter([]DatasetRule{{Match: DatasetMatch{Community: "public"}, WalkFile: ""}})
	if err == nil {
		t.Fatal("expected NewRouter to fail when walkFile is empty")
	}
}

func TestRouterValidationRejectsBadSrcCIDR(t *testing.T) {
	_, err := NewRouter([]DatasetRule{{
		Match:    DatasetMatch{SrcCIDR: "not-an-address"},
		WalkFile: "x.walk",
	}})
	if err == nil {
		t.Fatal("expected NewRouter to fail on an unparseable srcCIDR")
	}
}

func TestRouterMatchesBareIPAsSlash32(t *testing.T) {
	router, err := NewRouter([]DatasetRule{
		{Match: DatasetMatch{SrcCIDR: "10.0.0.5"}, WalkFile: "exact.walk"},
	})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	if got := router.Select(RequestKey{SrcIP: net.ParseIP("10.0.0.5")}); got != "exact.walk" {
		t.Fatalf("Select() = %q, want exact.walk", got)
	}
	if got := router.Select(RequestKey{SrcIP: net.ParseIP("10.0.0.6")}); got != "" {
		t.Fatalf("Select() = %q, want no match for a different address", got)
	}
}

func TestRouterMatchesSrcCIDRBlock(t *testing.T) {
	router, err := NewRouter([]DatasetRule{
		{Match: DatasetMatch{SrcCIDR: "10.0.0.0/24"}, WalkFile: "subnet.walk"},
	})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	if got := router.Select(RequestKey{SrcIP: net.ParseIP("10.0.0.200")}); got != "subnet.walk" {
		t.Fatalf("Select() = %q, want subnet.walk", got)
	}
	if got := router.Select(RequestKey{SrcIP: net.ParseIP("10.0.1.1")}); got != "" {
		t.Fatalf("Select() = %q, want no match outside the subnet", got)
	}
}

func TestRouterNormalizesEngineIDToRawBytes(t *testing.T) {
	// A rule written with hex text must match a request key already in
	// internal/v3's decoded raw-byte form, not the hex text itself.
	router, err := NewRouter([]DatasetRule{
		{Match: DatasetMatch{EngineID: "0x8000000001020304"}, WalkFile: "engine.walk"},
	})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	if got := router.Select(RequestKey{EngineID: decodedEngineID(t, "8000000001020304")}); got != "engine.walk" {
		t.Fatalf("Select() = %q, want engine.walk", got)
	}
	if got := router.Select(RequestKey{EngineID: "8000000001020304"}); got != "" {
		t.Fatalf("Select() = %q, want no match against raw hex text", got)
	}
}

func TestDatasetPathsDedupesInRuleOrder(t *testing.T) {
	router, err := NewRouter([]DatasetRule{
		{Match: DatasetMatch{Community: "a"}, WalkFile: "shared.walk"},
		{Match: DatasetMatch{Community: "b"}, WalkFile: "shared.walk"},
		{Match: DatasetMatch{Community: "c"}, WalkFile: "other.walk"},
	})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	paths := router.DatasetPaths()
	if len(paths) != 2 {
		t.Fatalf("DatasetPaths() = %v, want 2 distinct entries", paths)
	}
}

func decodedEngineID(t *testing.T, hexText string) string {
	t.Helper()
	compiled, err := NewRouter([]DatasetRule{{Match: DatasetMatch{EngineID: hexText}, WalkFile: "x.walk"}})
	if err != nil {
		t.Fatalf("decode engineID %q: %v", hexText, err)
	}
	return compiled.rules[0].match.EngineID
}

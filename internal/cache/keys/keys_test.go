package keys

import (
	"regexp"
	"testing"
	"unicode"

	"github.com/mohammed-shakir/lkw-route-density/internal/core/model"
)

var (
	munich     = model.Coordinate{Lon: 11.5667, Lat: 48.2167}
	salzgitter = model.Coordinate{Lon: 10.3333, Lat: 52.15}
)

func TestRouteKey_Deterministic(t *testing.T) {
	k1 := RouteKey("München - Salzgitter", munich, salzgitter)
	k2 := RouteKey("München - Salzgitter", munich, salzgitter)
	if k1 != k2 {
		t.Fatalf("determinism failed:\n k1=%s\n k2=%s", k1, k2)
	}
	if !regexp.MustCompile(`^[A-Za-z0-9:_\-]+@[0-9a-f]{16}$`).MatchString(k1) {
		t.Fatalf("unexpected key shape: %s", k1)
	}
	for _, r := range k1 {
		if r > unicode.MaxASCII {
			t.Fatalf("non-ASCII rune leaked into key: %q in %s", r, k1)
		}
	}
}

func TestRouteKey_EndpointsChangeKey(t *testing.T) {
	k1 := RouteKey("R1", munich, salzgitter)
	k2 := RouteKey("R1", munich, model.Coordinate{Lon: 10.3334, Lat: 52.15})
	if k1 == k2 {
		t.Fatalf("moved endpoint must produce a different key")
	}
	if k3 := RouteKey("R1", salzgitter, munich); k3 == k1 {
		t.Fatalf("reversed route must produce a different key")
	}
}

func TestRouteKey_SanitizedCollisionsStillDiffer(t *testing.T) {
	k1 := RouteKey("R 1", munich, salzgitter)
	k2 := RouteKey("R_1", munich, salzgitter)
	if NamePart(k1) != NamePart(k2) {
		t.Fatalf("expected equal name parts: %s vs %s", k1, k2)
	}
	if k1 == k2 {
		t.Fatalf("different raw names must hash differently")
	}
}

func TestMatchesRoute(t *testing.T) {
	k := RouteKey("  Hamburg   Hafen ", munich, salzgitter)
	if !MatchesRoute(k, "Hamburg Hafen") {
		t.Fatalf("expected %s to match route", k)
	}
	if MatchesRoute(k, "Hamburg") {
		t.Fatalf("prefix of name must not match")
	}
	if MatchesRoute(k, "") {
		t.Fatalf("empty name must not match")
	}
}

func TestStoreKey(t *testing.T) {
	if got := StoreKey(""); got != "routecache:default" {
		t.Fatalf("StoreKey(\"\")=%q", got)
	}
	if got := StoreKey("lkw prod"); got != "routecache:lkw_prod" {
		t.Fatalf("StoreKey=%q", got)
	}
}

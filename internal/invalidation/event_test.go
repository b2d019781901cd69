package invalidation

import (
	"encoding/json"
	"testing"
	"time"
)

func mustTS() time.Time { return time.Date(2025, 10, 26, 12, 30, 45, 0, time.UTC) }

func TestEvent_Validate_HappyPath(t *testing.T) {
	ev := Event{Version: 1, Op: "invalidate", Routes: []string{"R1", "R2"}, TS: mustTS()}
	if err := ev.Validate(); err != nil {
		t.Fatalf("unexpected: %v", err)
	}
}

func TestEvent_Validate_Rejects(t *testing.T) {
	cases := map[string]Event{
		"version":     {Version: 2, Op: "invalidate", Routes: []string{"R1"}},
		"op":          {Version: 1, Op: "delete", Routes: []string{"R1"}},
		"no routes":   {Version: 1, Op: "invalidate"},
		"blank route": {Version: 1, Op: "invalidate", Routes: []string{"R1", "  "}},
	}
	for name, ev := range cases {
		if err := ev.Validate(); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestEvent_DecodeWireFormat(t *testing.T) {
	raw := `{"version":1,"op":"invalidate","routes":["Munich-Hanover"],"id":"ev-7","ts":"2025-10-26T12:30:45Z"}`
	var ev Event
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := ev.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if ev.ID != "ev-7" || len(ev.Routes) != 1 || ev.Routes[0] != "Munich-Hanover" {
		t.Fatalf("decoded %+v", ev)
	}
	if !ev.TS.Equal(mustTS()) {
		t.Fatalf("ts=%v", ev.TS)
	}
}

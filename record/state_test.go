package record

import (
	"encoding/json"
	"testing"
)

func TestState_JSONRoundTrip(t *testing.T) {
	for _, s := range []State{Register, Renew, Delete, Expired} {
		b, err := json.Marshal(s)
		if err != nil {
			t.Fatalf("Marshal(%v): %v", s, err)
		}
		var got State
		if err := json.Unmarshal(b, &got); err != nil {
			t.Fatalf("Unmarshal(%s): %v", b, err)
		}
		if got != s {
			t.Errorf("round trip: got %v want %v", got, s)
		}
	}
}

func TestState_UnmarshalRejectsUnknown(t *testing.T) {
	var s State
	if err := json.Unmarshal([]byte(`"NOT_A_STATE"`), &s); err == nil {
		t.Error("expected error for unknown state")
	}
}

func TestRecord_JSONRoundTrip(t *testing.T) {
	r := Record{
		URI:   "sls://cache/abc",
		Type:  "widget",
		State: Delete,
		Attrs: map[string]Value{"color": String("red")},
	}
	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got Record
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.State != Delete || got.URI != r.URI || got.Attrs["color"].Str != "red" {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

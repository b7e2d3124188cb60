package uri

import "testing"

func TestGenerator_NoPrefix(t *testing.T) {
	g := New("")
	id := g.Next()
	if id == "" {
		t.Fatal("expected a non-empty URI")
	}
	if id2 := g.Next(); id2 == id {
		t.Error("expected distinct URIs across calls")
	}
}

func TestGenerator_WithPrefix(t *testing.T) {
	g := New("lookup.example.org")
	id := g.Next()
	want := "lookup.example.org:"
	if len(id) <= len(want) || id[:len(want)] != want {
		t.Errorf("expected prefix %q, got %q", want, id)
	}
}

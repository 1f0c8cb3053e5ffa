package util

import (
	"strings"
	"testing"
)

func TestNewIDPrefix(t *testing.T) {
	id := NewID("client")
	if !strings.HasPrefix(id, "client_") {
		t.Fatalf("expected client_ prefix, got %q", id)
	}
	if len(id) != len("client_")+32 {
		t.Errorf("unexpected id length %d for %q", len(id), id)
	}
}

func TestNewIDWithoutPrefix(t *testing.T) {
	id := NewID("")
	if strings.Contains(id, "_") || strings.Contains(id, "-") {
		t.Fatalf("expected bare hex id, got %q", id)
	}
}

func TestNewIDUnique(t *testing.T) {
	seen := make(map[string]struct{}, 100)
	for i := 0; i < 100; i++ {
		id := NewID("task")
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = struct{}{}
	}
}

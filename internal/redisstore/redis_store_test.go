package redisstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ai-engineer-001/upcraft-crm/internal/store"
	"github.com/alicebob/miniredis/v2"
)

func setupTestRedis(t *testing.T) (*Store, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	st, err := New("redis://" + s.Addr())
	if err != nil {
		t.Fatalf("failed to create redis store: %v", err)
	}
	return st, s
}

func testState(name string) store.State {
	return store.State{
		Graph: store.Snapshot{
			Clients: []store.Client{{ID: "client_1", Name: name, Status: store.ClientActive, AgreementStatus: store.AgreementPending}},
		},
		Outreach: []store.OutreachRecord{{ID: "lead_1", StartupName: "Nimbus", Status: store.OutreachIdentified}},
		SavedAt:  time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
	}
}

func TestNew(t *testing.T) {
	s := miniredis.RunT(t)
	defer s.Close()

	st, err := New("redis://" + s.Addr())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer st.Close()

	if err := st.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestNewRejectsBadURL(t *testing.T) {
	if _, err := New("not-a-url"); err == nil {
		t.Fatal("expected error for invalid url")
	}
}

func TestSaveAndLoadState(t *testing.T) {
	st, s := setupTestRedis(t)
	defer st.Close()
	defer s.Close()

	ctx := context.Background()
	if err := st.SaveState(ctx, "default", testState("Acme")); err != nil {
		t.Fatalf("SaveState failed: %v", err)
	}

	got, err := st.LoadState(ctx, "default")
	if err != nil {
		t.Fatalf("LoadState failed: %v", err)
	}
	if len(got.Graph.Clients) != 1 || got.Graph.Clients[0].Name != "Acme" {
		t.Errorf("unexpected clients %+v", got.Graph.Clients)
	}
	if len(got.Outreach) != 1 || got.Outreach[0].StartupName != "Nimbus" {
		t.Errorf("unexpected outreach %+v", got.Outreach)
	}
	if s.TTL(defaultPrefix+"default") != 0 {
		t.Errorf("expected no ttl by default, got %v", s.TTL(defaultPrefix+"default"))
	}
}

func TestLoadMissingStateIsNotFound(t *testing.T) {
	st, s := setupTestRedis(t)
	defer st.Close()
	defer s.Close()

	_, err := st.LoadState(context.Background(), "missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStateExpiresWithTTL(t *testing.T) {
	st, s := setupTestRedis(t)
	defer st.Close()
	defer s.Close()

	ctx := context.Background()
	st.WithTTL(time.Minute)
	if err := st.SaveState(ctx, "short", testState("Acme")); err != nil {
		t.Fatalf("SaveState failed: %v", err)
	}

	s.FastForward(2 * time.Minute)

	if _, err := st.LoadState(ctx, "short"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected expired state to be not found, got %v", err)
	}
}

func TestDeleteStateAndNames(t *testing.T) {
	st, s := setupTestRedis(t)
	defer st.Close()
	defer s.Close()

	ctx := context.Background()
	for _, name := range []string{"beta", "alpha"} {
		if err := st.SaveState(ctx, name, testState(name)); err != nil {
			t.Fatalf("SaveState %s failed: %v", name, err)
		}
	}

	names, err := st.Names(ctx)
	if err != nil {
		t.Fatalf("Names failed: %v", err)
	}
	if len(names) != 2 || names[0] != "alpha" || names[1] != "beta" {
		t.Fatalf("unexpected names %v", names)
	}

	if err := st.DeleteState(ctx, "alpha"); err != nil {
		t.Fatalf("DeleteState failed: %v", err)
	}
	if err := st.DeleteState(ctx, "never-saved"); err != nil {
		t.Errorf("DeleteState for missing state failed: %v", err)
	}

	if _, err := st.LoadState(ctx, "alpha"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected alpha to be gone, got %v", err)
	}
	got, err := st.LoadState(ctx, "beta")
	if err != nil || got.Graph.Clients[0].Name != "beta" {
		t.Fatalf("beta should survive: %+v, %v", got, err)
	}
}

package config

import (
	"path/filepath"
	"testing"

	"github.com/toolprint/vibekit/pkg/agentkind"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := NewStore(filepath.Join(dir, "config.json"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	s := newTestStore(t)
	rec, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if rec.RegistryKind != agentkind.Hub {
		t.Errorf("RegistryKind = %v, want hub", rec.RegistryKind)
	}
	if !rec.PreferRegistryImages || !rec.PushImages {
		t.Errorf("expected prefer/push registry images to default true, got %+v", rec)
	}
}

func TestSaveFullThenLoadRoundTrips(t *testing.T) {
	s := newTestStore(t)
	rec := Default()
	rec.RegistryUser = "alice"
	rec.PerAgentOverrides[agentkind.A1] = agentkind.ImageRef{
		Host: "ghcr.io", Namespace: "alice", Repository: "vibekit-a1", Tag: "latest",
	}

	if err := s.SaveFull(rec); err != nil {
		t.Fatalf("SaveFull: %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.RegistryUser != "alice" {
		t.Errorf("RegistryUser = %q, want alice", got.RegistryUser)
	}
	ref, ok := got.PerAgentOverrides[agentkind.A1]
	if !ok {
		t.Fatal("expected per-agent override for A1")
	}
	if ref.String() != "ghcr.io/alice/vibekit-a1:latest" {
		t.Errorf("override ref = %q", ref.String())
	}
}

func TestSetPerAgentOverridePersists(t *testing.T) {
	s := newTestStore(t)
	ref := agentkind.ImageRef{Namespace: "bob", Repository: "vibekit-a2", Tag: "latest"}
	if err := s.SetPerAgentOverride(agentkind.A2, ref); err != nil {
		t.Fatalf("SetPerAgentOverride: %v", err)
	}
	got, ok, err := s.GetPerAgentOverride(agentkind.A2)
	if err != nil {
		t.Fatalf("GetPerAgentOverride: %v", err)
	}
	if !ok {
		t.Fatal("expected override to be present")
	}
	if got.Repository != "vibekit-a2" {
		t.Errorf("Repository = %q", got.Repository)
	}
}

func TestDeleteRemovesDocument(t *testing.T) {
	s := newTestStore(t)
	if err := s.SaveFull(Default()); err != nil {
		t.Fatalf("SaveFull: %v", err)
	}
	if err := s.Delete(); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	rec, err := s.Load()
	if err != nil {
		t.Fatalf("Load after delete: %v", err)
	}
	if rec.RegistryUser != "" {
		t.Errorf("expected default record after delete, got %+v", rec)
	}
}

func TestUpdatePartialRewritesWhole(t *testing.T) {
	s := newTestStore(t)
	if err := s.SaveFull(Default()); err != nil {
		t.Fatalf("SaveFull: %v", err)
	}
	rec, err := s.UpdatePartial(func(r *Record) {
		r.PushImages = false
	})
	if err != nil {
		t.Fatalf("UpdatePartial: %v", err)
	}
	if rec.PushImages {
		t.Error("expected PushImages to be false after update")
	}
	reloaded, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if reloaded.PushImages {
		t.Error("expected persisted PushImages to be false")
	}
}

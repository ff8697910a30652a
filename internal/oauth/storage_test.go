package oauth

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileStorageRoundTripsAndSetsPermissions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "provider.json")
	s := NewFileStorage(path)

	if err := s.Save(Token{AccessToken: "abc", TokenType: "Bearer"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("file mode = %v, want 0600", perm)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.AccessToken != "abc" {
		t.Errorf("AccessToken = %q", got.AccessToken)
	}
}

func TestFileStorageLoadMissingReturnsErrNoToken(t *testing.T) {
	s := NewFileStorage(filepath.Join(t.TempDir(), "missing.json"))
	if _, err := s.Load(); err == nil {
		t.Fatal("expected error loading missing file")
	}
}

func TestFileStorageClearRemovesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "provider.json")
	s := NewFileStorage(path)
	if err := s.Save(Token{AccessToken: "abc"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected file removed, stat err = %v", err)
	}
}

func TestEnvStorageReadsVariable(t *testing.T) {
	t.Setenv("VIBEKIT_TEST_TOKEN", "env-access")
	s := NewEnvStorage("VIBEKIT_TEST_TOKEN")

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.AccessToken != "env-access" {
		t.Errorf("AccessToken = %q", got.AccessToken)
	}
}

func TestEnvStorageMissingVariableReturnsError(t *testing.T) {
	s := NewEnvStorage("VIBEKIT_TEST_TOKEN_UNSET")
	if _, err := s.Load(); err == nil {
		t.Fatal("expected error for unset env var")
	}
}

func TestMemoryStorageRoundTrips(t *testing.T) {
	s := NewMemoryStorage()
	if err := s.Save(Token{AccessToken: "mem"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.AccessToken != "mem" {
		t.Errorf("AccessToken = %q", got.AccessToken)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, err := s.Load(); err == nil {
		t.Fatal("expected error after Clear")
	}
}

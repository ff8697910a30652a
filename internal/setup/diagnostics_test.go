package setup

import (
	"context"
	"errors"
	"testing"
)

func TestValidateDependenciesPassesWhenEveryCheckPasses(t *testing.T) {
	checks := []Check{
		{ID: "a", Description: "a", Run: func(context.Context) error { return nil }},
		{ID: "b", Description: "b", Run: func(context.Context) error { return nil }},
	}
	if err := ValidateDependencies(context.Background(), checks); err != nil {
		t.Fatalf("ValidateDependencies: %v", err)
	}
}

func TestValidateDependenciesJoinsFailures(t *testing.T) {
	boom := errors.New("boom")
	checks := []Check{
		{ID: "a", Description: "a", Run: func(context.Context) error { return nil }},
		{ID: "b", Description: "b", Run: func(context.Context) error { return boom }},
		{ID: "c", Description: "c", Run: func(context.Context) error { return boom }},
	}
	err := ValidateDependencies(context.Background(), checks)
	if err == nil {
		t.Fatal("expected a joined error")
	}
	if !errors.Is(err, boom) {
		t.Errorf("expected joined error to wrap the check failures, got %v", err)
	}
}

func TestVersionAtLeast(t *testing.T) {
	cases := []struct {
		have, want string
		wantOK     bool
	}{
		{"1.21.0", "1.21", true},
		{"1.22.3", "1.21", true},
		{"1.20.5", "1.21", false},
		{"2.0", "1.21", true},
	}
	for _, c := range cases {
		ok, err := versionAtLeast(c.have, c.want)
		if err != nil {
			t.Fatalf("versionAtLeast(%q, %q): %v", c.have, c.want, err)
		}
		if ok != c.wantOK {
			t.Errorf("versionAtLeast(%q, %q) = %v, want %v", c.have, c.want, ok, c.wantOK)
		}
	}
}

func TestCheckGoRuntimePassesForCurrentToolchain(t *testing.T) {
	if err := checkGoRuntime(context.Background()); err != nil {
		t.Errorf("checkGoRuntime: %v", err)
	}
}

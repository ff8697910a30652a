package agentkind

import "testing"

func TestParseKind(t *testing.T) {
	cases := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"a1", A1, false},
		{"A3", A3, false},
		{"  a5  ", A5, false},
		{"a6", "", true},
		{"", "", true},
	}
	for _, c := range cases {
		got, err := ParseKind(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("ParseKind(%q): expected error, got nil", c.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseKind(%q): unexpected error: %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("ParseKind(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestKindRepository(t *testing.T) {
	if got, want := A1.Repository(), "vibekit-a1"; got != want {
		t.Errorf("Repository() = %q, want %q", got, want)
	}
}

func TestParseRegistryKind(t *testing.T) {
	if _, err := ParseRegistryKind("bogus"); err == nil {
		t.Error("expected error for bogus registry kind")
	}
	got, err := ParseRegistryKind("Forge")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != Forge {
		t.Errorf("got %q, want %q", got, Forge)
	}
}

func TestImageRefString(t *testing.T) {
	cases := []struct {
		ref  ImageRef
		want string
	}{
		{ImageRef{Repository: "vibekit-a1"}, "vibekit-a1:latest"},
		{ImageRef{Namespace: "acme", Repository: "vibekit-a2", Tag: "v1"}, "acme/vibekit-a2:v1"},
		{ImageRef{Host: "ghcr.io", Namespace: "acme", Repository: "vibekit-a3", Tag: "v2"}, "ghcr.io/acme/vibekit-a3:v2"},
	}
	for _, c := range cases {
		if got := c.ref.String(); got != c.want {
			t.Errorf("String() = %q, want %q", got, c.want)
		}
	}
}

func TestParseImageRefRoundTrip(t *testing.T) {
	cases := []string{
		"vibekit-a1:latest",
		"acme/vibekit-a2:v1",
		"ghcr.io/acme/vibekit-a3:v2",
		"123456789.dkr.ecr.us-east-1.amazonaws.com/team/vibekit-a4:v3",
	}
	for _, s := range cases {
		ref, err := ParseImageRef(s)
		if err != nil {
			t.Fatalf("ParseImageRef(%q): unexpected error: %v", s, err)
		}
		if got := ref.String(); got != s {
			t.Errorf("round trip mismatch: parsed %q then rendered %q", s, got)
		}
	}
}

func TestValidateReferenceRejectsGarbage(t *testing.T) {
	bad := []string{"", " leading-space", "has a space", "!bang"}
	for _, s := range bad {
		if err := ValidateReference(s); err == nil {
			t.Errorf("ValidateReference(%q): expected error", s)
		}
	}
}

func TestLocalTag(t *testing.T) {
	if got, want := LocalTag(A4), "vibekit-a4:latest"; got != want {
		t.Errorf("LocalTag(A4) = %q, want %q", got, want)
	}
}

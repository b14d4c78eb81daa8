package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadPrefersFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "credentials.json")
	if err := os.WriteFile(path, []byte("  {\"type\":\"service_account\"}\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := Load(Source{Name: "credentials", Value: "inline", File: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got != `{"type":"service_account"}` {
		t.Fatalf("unexpected secret %q", got)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	empty := filepath.Join(t.TempDir(), "empty")
	if err := os.WriteFile(empty, []byte("  \n"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		src    Source
		expect string
	}{
		{name: "not configured", src: Source{Name: "token"}, expect: "token is not configured"},
		{name: "empty file", src: Source{File: empty}, expect: "is empty"},
		{name: "missing file", src: Source{Name: "token", File: empty + ".missing"}, expect: "reading token from file"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Load(tt.src)
			if err == nil || !strings.Contains(err.Error(), tt.expect) {
				t.Fatalf("expected error containing %q, got %v", tt.expect, err)
			}
		})
	}
}

func TestLoadSafety(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "safety.txt")
	if err := os.WriteFile(path, []byte("919800000000\ntesting\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	safety, err := LoadSafety(path, "ignored", "ignored")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if safety.Number != "919800000000" || safety.Name != "testing" {
		t.Fatalf("unexpected safety %+v", safety)
	}

	inline, err := LoadSafety("", "", "production")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inline.Name != "production" || inline.Number != "" {
		t.Fatalf("unexpected inline safety %+v", inline)
	}

	if _, err := LoadSafety("", "91", ""); err == nil {
		t.Fatalf("expected error without a name")
	}
}

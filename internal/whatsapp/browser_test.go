package whatsapp

import (
	"context"
	"net/url"
	"path/filepath"
	"testing"
)

func TestSendURL(t *testing.T) {
	t.Parallel()

	raw := SendURL("919812345678", "Hello Asha,\nyour slot: 12/08/2024, 10:00 AM & more")

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Host != "web.whatsapp.com" || u.Path != "/send" {
		t.Fatalf("unexpected url %q", raw)
	}
	if got := u.Query().Get("phone"); got != "919812345678" {
		t.Fatalf("unexpected phone %q", got)
	}
	if got := u.Query().Get("text"); got != "Hello Asha,\nyour slot: 12/08/2024, 10:00 AM & more" {
		t.Fatalf("text did not survive encoding: %q", got)
	}
}

func TestProfileDir(t *testing.T) {
	t.Parallel()

	opts := BrowserOptions{DataDir: ".data", Profile: "tester"}
	if got := opts.ProfileDir(); got != filepath.Join(".data", "tester") {
		t.Fatalf("unexpected profile dir %q", got)
	}
}

func TestNewBrowserRequiresProfile(t *testing.T) {
	t.Parallel()

	if _, err := NewBrowser(context.Background(), nil, BrowserOptions{DataDir: ".data"}); err == nil {
		t.Fatalf("expected error without profile name")
	}
}

package app

import "testing"

func TestBuildVersionWithDate(t *testing.T) {
	origVersion, origDate := Version, BuildDate
	defer func() {
		Version, BuildDate = origVersion, origDate
	}()

	Version = "1.2.0"
	BuildDate = "2026-08-20T10:30:00Z"
	if got := BuildVersionWithDate(); got != "1.2.0 (2026-08-20)" {
		t.Fatalf("got %q", got)
	}

	BuildDate = ""
	if got := BuildVersionWithDate(); got != "1.2.0" {
		t.Fatalf("got %q", got)
	}

	Version = "  "
	if got := BuildVersion(); got != "dev" {
		t.Fatalf("blank version = %q, want dev", got)
	}
}

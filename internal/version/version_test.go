package version

import (
	"testing"

	"github.com/fatih/color"
)

func TestCurrentPrefersLinkerValues(t *testing.T) {
	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	defer func() { Version, GitCommit, BuildDate = origVersion, origCommit, origDate }()

	Version = " 1.2.3 "
	GitCommit = "abc123def456"
	BuildDate = "2024-01-15T10:30:00Z"

	info := Current()
	if info.Version != "1.2.3" {
		t.Errorf("Version = %q", info.Version)
	}
	if info.GitCommit != "abc123def456" || info.BuildDate != "2024-01-15T10:30:00Z" {
		t.Errorf("info = %+v", info)
	}
}

func TestCurrentDefaultsVersion(t *testing.T) {
	orig := Version
	defer func() { Version = orig }()

	Version = ""
	if got := Current().Version; got != "dev" {
		t.Errorf("Version = %q, want dev", got)
	}
}

func TestColored(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	tests := []struct {
		in, want string
	}{
		{"0.1.0", "0.1.0"},
		{"0.1.0-dev", "0.1.0-dev"},
		{"1.2.3-rc.1+build.123", "1.2.3-rc.1+build.123"},
		{"dev", "dev"},
		{"1.2", "1.2"},
	}
	for _, tc := range tests {
		if got := Colored(tc.in); got != tc.want {
			t.Errorf("Colored(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestColoredAddsEscapes(t *testing.T) {
	prev := color.NoColor
	color.NoColor = false
	defer func() { color.NoColor = prev }()

	if got := Colored("1.2.3"); got == "1.2.3" {
		t.Errorf("no color codes in %q", got)
	}
}

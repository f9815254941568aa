package version

import (
	"strings"
	"testing"
)

func TestVersionVariables(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}

	if GitCommit == "" {
		t.Error("GitCommit should not be empty")
	}
	if GitCommit != "unknown" && len(GitCommit) < 7 {
		t.Errorf("GitCommit '%s' seems invalid, should be 'unknown' or a git hash", GitCommit)
	}

	if BuildTime == "" {
		t.Error("BuildTime should not be empty")
	}
}

func TestInfo(t *testing.T) {
	info := Info()
	for _, want := range []string{Version, GitCommit, BuildTime} {
		if !strings.Contains(info, want) {
			t.Errorf("Info() = %q; missing %q", info, want)
		}
	}
	if lines := strings.Count(info, "\n"); lines != 3 {
		t.Errorf("Info() has %d lines; want 3", lines)
	}
}

package version

import "testing"

func TestVersion(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}

	if BuildTime == "" {
		t.Error("BuildTime should be initialized")
	}

	if GitCommit == "" {
		t.Error("GitCommit should be initialized")
	}
}

func TestUserAgent(t *testing.T) {
	if got := UserAgent(""); got != "EOSUpdater/"+Version {
		t.Errorf("UserAgent(\"\") = %q", got)
	}
	if got := UserAgent("mako"); got != "EOSUpdater/"+Version+" (mako)" {
		t.Errorf("UserAgent(mako) = %q", got)
	}
}

package util

import "testing"

func TestEnvOr(t *testing.T) {
	if got := EnvOr("TRACKFORGE_TEST_UNSET", "fallback"); got != "fallback" {
		t.Errorf("expected fallback for unset variable, got %q", got)
	}

	t.Setenv("TRACKFORGE_TEST_SET", "from-env")
	if got := EnvOr("TRACKFORGE_TEST_SET", "fallback"); got != "from-env" {
		t.Errorf("expected env value, got %q", got)
	}

	t.Setenv("TRACKFORGE_TEST_EMPTY", "")
	if got := EnvOr("TRACKFORGE_TEST_EMPTY", "fallback"); got != "" {
		t.Errorf("expected empty set value to win, got %q", got)
	}
}

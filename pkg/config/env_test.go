package config

import (
	"os"
	"testing"
)

// unsetEnv removes key for the duration of the test. t.Setenv has to be called for key before so
// the original value is restored on cleanup.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("failed to unset %s: %v", key, err)
	}
}

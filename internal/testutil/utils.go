package testutil

import (
	"log"
	"os"
	"testing"
)

// TestLogger returns a logger scoped to a single test. Output goes to
// stdout while the test runs and is redirected to stderr on cleanup so
// late goroutines cannot interleave with the next test's output.
func TestLogger(t *testing.T) *log.Logger {
	t.Helper()

	logger := log.New(os.Stdout, "[careline-test] ", log.LstdFlags)
	t.Cleanup(func() {
		logger.SetOutput(os.Stderr)
	})

	return logger
}

// Package inttest enables writing of integration tests. Setup Docker containers for dependencies
// like PostgreSQL, Redis, RabbitMQ and Kubernetes (using k3s). Every setup function ensures the
// container is ready before returning, ensures resources are cleaned up after the tests are
// finished and return a client ready to interact with the container.
//
// Integration tests are skipped when running go test -short.
package inttest

import "testing"

// SkipIfShort skips the test when go test runs with -short.
func SkipIfShort(t *testing.T) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
}

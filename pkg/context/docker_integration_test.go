// SPDX-License-Identifier: MPL-2.0

package context

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
)

// dockerProviderAvailable checks for a usable testcontainers Docker
// provider. Its own engine detection can panic on some hosts, so the
// lookup is wrapped in a recover and treated as "unavailable" rather
// than a test failure.
func dockerProviderAvailable() (available bool) {
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()
	provider, err := testcontainers.ProviderDocker.GetProvider()
	if err != nil {
		return false
	}
	defer provider.Close()
	return true
}

func TestDocker_Integration_AcquireAndExecAgainstRealContainer(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if !dockerProviderAvailable() {
		t.Skip("skipping: no docker provider available")
	}

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:      "alpine:latest",
		Cmd:        []string{"sleep", "30"},
		WaitingFor: nil,
	}
	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("skipping: could not start container: %v", err)
	}
	defer func() { _ = ctr.Terminate(ctx) }()

	id := ctr.GetContainerID()
	d := newDocker(NewLocal(), id)

	require.NoError(t, d.Acquire(ctx))

	out, err := d.Sh(ctx, "echo hello-from-container", ShOpts{})
	require.NoError(t, err)
	require.True(t, strings.Contains(out, "hello-from-container"))
}

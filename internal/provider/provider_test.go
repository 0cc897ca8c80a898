// SPDX-License-Identifier: MPL-2.0

package provider

import (
	"context"
	"testing"

	pkgcontext "github.com/invowk/crewctl/pkg/context"
	"github.com/stretchr/testify/require"
)

func TestLocalProvider_YieldsSingletonOnce(t *testing.T) {
	p := NewLocalProvider()
	var seen []pkgcontext.Context
	err := p.Each(context.Background(), func(c pkgcontext.Context) bool {
		seen = append(seen, c)
		return true
	})
	require.NoError(t, err)
	require.Len(t, seen, 1)
	require.Equal(t, "local", seen[0].(interface{ Variant() string }).Variant())
}

func TestDockerProvider_YieldsOneContextPerID(t *testing.T) {
	p := NewDockerProvider("abc123", "def456")
	var descriptors []string
	err := p.Each(context.Background(), func(c pkgcontext.Context) bool {
		descriptors = append(descriptors, c.Descriptor())
		return true
	})
	require.NoError(t, err)
	require.Len(t, descriptors, 2)
}

func TestDockerProvider_YieldFalseStopsEarly(t *testing.T) {
	p := NewDockerProvider("a", "b", "c")
	count := 0
	err := p.Each(context.Background(), func(pkgcontext.Context) bool {
		count++
		return count < 1
	})
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestSSHProvider_ExpandsHostRangesBeforeYielding(t *testing.T) {
	p := NewSSHProvider([]string{"10.0.0.1-3"}, "deploy")
	var descriptors []string
	err := p.Each(context.Background(), func(c pkgcontext.Context) bool {
		descriptors = append(descriptors, c.Descriptor())
		return true
	})
	require.NoError(t, err)
	require.Len(t, descriptors, 3)
}

func TestSSHProvider_InvalidHostRange_Errors(t *testing.T) {
	p := NewSSHProvider([]string{"10.0.0.1-bad"}, "deploy")
	err := p.Each(context.Background(), func(pkgcontext.Context) bool { return true })
	require.Error(t, err)
}

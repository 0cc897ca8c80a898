// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"context"
	"testing"

	pkgcontext "github.com/invowk/crewctl/pkg/context"
	"github.com/invowk/crewctl/pkg/task"
	"github.com/stretchr/testify/require"
)

type writeTask struct{}

func (writeTask) Descriptor() task.Descriptor {
	return task.Descriptor{
		Name: "fs.write",
		Args: []task.ArgDecl{
			task.NewArg("path", task.TypeString).Required().Done(),
			task.NewArg("content", task.TypeString).Required().Done(),
		},
	}
}

func (writeTask) Run(_ task.InvocationContext, p task.Params) (any, error) {
	return p.Get("path").(string) + ":" + p.Get("content").(string), nil
}

func TestLoader_RegisterAndResolve(t *testing.T) {
	l := NewLoader()
	l.Register("fs.write", func() task.Task { return writeTask{} })

	require.True(t, l.Has("fs.write"))
	factory, err := l.Resolve("fs.write")
	require.NoError(t, err)
	require.NotNil(t, factory())
}

func TestLoader_Resolve_UnknownName_Errors(t *testing.T) {
	l := NewLoader()
	_, err := l.Resolve("nope")
	require.Error(t, err)
	var notFound *TaskNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestLoader_HasPackage(t *testing.T) {
	l := NewLoader()
	l.Register("fs.write", func() task.Task { return writeTask{} })
	require.True(t, l.HasPackage("fs"))
	require.False(t, l.HasPackage("fs.write"))
	require.False(t, l.HasPackage("net"))
}

func TestLoader_EachTask_LexicographicOrder(t *testing.T) {
	l := NewLoader()
	l.Register("fs.write", func() task.Task { return writeTask{} })
	l.Register("fs.read", func() task.Task { return writeTask{} })
	l.Register("net.ping", func() task.Task { return writeTask{} })

	var names []string
	l.EachTask(func(name string, _ TaskFactory) bool {
		names = append(names, name)
		return true
	})
	require.Equal(t, []string{"fs.read", "fs.write", "net.ping"}, names)
}

func TestLoader_EachTask_StopsEarly(t *testing.T) {
	l := NewLoader()
	l.Register("a", func() task.Task { return writeTask{} })
	l.Register("b", func() task.Task { return writeTask{} })

	var names []string
	l.EachTask(func(name string, _ TaskFactory) bool {
		names = append(names, name)
		return false
	})
	require.Len(t, names, 1)
}

func TestPackageProxy_ChainedPkgAndCall(t *testing.T) {
	l := NewLoader()
	l.Register("fs.write", func() task.Task { return writeTask{} })

	proxy := NewPackageProxy(pkgcontext.NewLocal(), l, nil)
	result, err := proxy.Pkg("fs").Pkg("write").Call(context.Background(), "/tmp/x", "hello")
	require.NoError(t, err)
	require.Equal(t, "/tmp/x:hello", result)
}

func TestPackageProxy_Call_UnresolvedName_Errors(t *testing.T) {
	l := NewLoader()
	proxy := NewPackageProxy(pkgcontext.NewLocal(), l, nil)
	_, err := proxy.Pkg("nope").Call(context.Background())
	require.Error(t, err)
}

func TestLoader_RegisterTestAndTests(t *testing.T) {
	l := NewLoader()
	l.Register("fs.write", func() task.Task { return writeTask{} })
	l.RegisterTest("fs.write", func() task.Task { return writeTask{} })

	tests, err := l.Tests("fs.write")
	require.NoError(t, err)
	require.Len(t, tests, 1)
}

func TestLoader_Tests_UnknownTask_Errors(t *testing.T) {
	l := NewLoader()
	_, err := l.Tests("nope")
	require.Error(t, err)
	var notFound *TaskNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestLoader_SatisfiesTaskDirectory(t *testing.T) {
	var _ TaskDirectory = NewLoader()
}

// SPDX-License-Identifier: MPL-2.0

// Package app is crewctl's composition root: it wires the Local
// singleton, the task Loader, configuration, the coloured logger, and
// a scratch template directory into a single App value external
// collaborators (the CLI, the on-disk TaskDirectory) build against.
package app

import (
	"fmt"

	"github.com/invowk/crewctl/internal/activitylog"
	"github.com/invowk/crewctl/internal/config"
	"github.com/invowk/crewctl/internal/registry"
	"github.com/invowk/crewctl/internal/template"
	pkgcontext "github.com/invowk/crewctl/pkg/context"
	"github.com/invowk/crewctl/pkg/fileref"
)

// copyLoggerAdapter lets *activitylog.Logger satisfy fileref.CopyLogger:
// Logger.OpenCopy returns the concrete *activitylog.Scope, which Go
// interface satisfaction won't covariantly accept in place of
// fileref.CopyScope, so the adapter performs that conversion at the
// composition root instead of making pkg/fileref import internal/activitylog.
type copyLoggerAdapter struct{ *activitylog.Logger }

func (a copyLoggerAdapter) OpenCopy(srcDescriptor, srcPath, dstDescriptor, dstPath string) fileref.CopyScope {
	return a.Logger.OpenCopy(srcDescriptor, srcPath, dstDescriptor, dstPath)
}

// App bundles the pieces every core operation needs: the Local
// singleton, the task Loader (populated by an external TaskDirectory
// collaborator), the active Config, the process-wide activity logger,
// and the scratch directory rendered templates are written under.
type App struct {
	Local       *pkgcontext.Local
	Loader      *registry.Loader
	Config      *config.Config
	Logger      *activitylog.Logger
	TemplateDir string
}

// New constructs an App from cfg (DefaultConfig if nil), creating the
// template scratch directory and returning a cleanup function the
// caller must defer — a Result{..., Cleanup} composition-root shape.
func New(cfg *config.Config) (*App, func(), error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	tempDir, cleanupTemplates, err := template.NewTempDir()
	if err != nil {
		return nil, func() {}, fmt.Errorf("app: %w", err)
	}

	a := &App{
		Local:       pkgcontext.NewLocal(),
		Loader:      registry.NewLoader(),
		Config:      cfg,
		Logger:      activitylog.Global(),
		TemplateDir: tempDir,
	}
	pkgcontext.SetLogger(a.Logger)
	fileref.SetLogger(copyLoggerAdapter{a.Logger})

	cleanup := func() {
		cleanupTemplates()
	}
	return a, cleanup, nil
}

// Proxy returns a PackageProxy rooted at the App's Local context and
// Loader, using the App's logger — the entry point for ad hoc
// dotted-name task invocation (a.Proxy().Pkg("fs").Pkg("write").Call(...)).
func (a *App) Proxy() *registry.PackageProxy {
	return registry.NewPackageProxy(a.Local, a.Loader, a.Logger)
}

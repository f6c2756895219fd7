package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/zhengda-lu/imgtag/internal/catalog"
	"github.com/zhengda-lu/imgtag/internal/config"
	"github.com/zhengda-lu/imgtag/internal/engine"
	"github.com/zhengda-lu/imgtag/internal/history"
	"github.com/zhengda-lu/imgtag/internal/scanner"
	"github.com/zhengda-lu/imgtag/internal/session"
	"github.com/zhengda-lu/imgtag/internal/trash"
)

func setupLogger(w io.Writer) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// workspace bundles the catalog and the objects built on top of it for
// one command invocation.
type workspace struct {
	store   catalog.Store
	engine  *engine.Engine
	session *session.Session
}

type workspaceOptions struct {
	// purgeMethod overrides purge.method from the config when set.
	purgeMethod trash.Method
	verify      bool
}

func openWorkspace(opts workspaceOptions) (*workspace, error) {
	if appConfig == nil {
		appConfig = config.Default()
	}

	store, err := catalog.Open(appConfig.Database.Driver, appConfig.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	method := opts.purgeMethod
	if method == "" {
		// Validate already warned about unknown methods.
		method, _ = trash.ParseMethod(appConfig.Purge.Method)
	}

	order, _ := scanner.ParseOrder(appConfig.Scan.Order)
	sc, err := scanner.New(order, appConfig.Scan.Exclude)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to build scanner: %w", err)
	}

	logger := slog.Default()
	eng := engine.New(store,
		engine.WithRemover(method.Remover()),
		engine.WithLogger(logger),
	)
	sess := session.New(store, sc, eng, session.Options{
		BatchSize:    appConfig.Scan.BatchSize,
		DefaultLabel: appConfig.Labels.Default,
		UseDefault:   appConfig.Labels.UseDefault,
		Verify:       appConfig.Organize.Verify || opts.verify,
		History:      history.New(history.DefaultPath()),
		Logger:       logger,
	})

	return &workspace{store: store, engine: eng, session: sess}, nil
}

// openDir opens a workspace and loads dir into its session.
func openDir(ctx context.Context, dir string, opts workspaceOptions) (*workspace, error) {
	ws, err := openWorkspace(opts)
	if err != nil {
		return nil, err
	}
	if _, err := ws.session.OpenDirectory(ctx, dir); err != nil {
		ws.Close()
		return nil, err
	}
	return ws, nil
}

func (w *workspace) Close() error {
	return w.store.Close()
}

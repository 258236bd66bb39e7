package app

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"golang.org/x/sync/errgroup"

	"odootest/internal/cli"
	"odootest/internal/config"
	"odootest/internal/mcpserver"
	"odootest/pkg/logging"
)

// runServe answers MCP requests on stdio until the editor closes the
// transport or the process is signaled. Settings changes are applied while
// serving.
func runServe(ctx context.Context, cfg *Config, services *Services) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := mcpserver.New(mcpserver.Options{
		Name:       "odoo-test",
		Version:    cfg.Version,
		Dispatcher: services.Dispatcher,
		Lenses:     services.Lenses,
		Config:     services.Store,
		Notifier:   services.Notifier,
	})
	reportProblems(services.Store.Check())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer stop()
		return srv.Serve(ctx)
	})
	g.Go(func() error {
		return watchConfig(ctx, services)
	})
	return g.Wait()
}

// runInteractive runs the REPL on the terminal.
func runInteractive(ctx context.Context, cfg *Config, services *Services) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM)
	defer stop()

	histFile := ""
	if dir := services.Store.Paths().UserDir; dir != "" {
		if err := os.MkdirAll(dir, 0o755); err == nil {
			histFile = filepath.Join(dir, "history")
		}
	}
	repl := cli.NewREPL(cli.REPLOptions{
		Dispatcher:  services.Dispatcher,
		Lenses:      services.Lenses,
		Out:         cfg.Out,
		Format:      cfg.Format,
		HistoryFile: histFile,
	})
	reportProblems(services.Store.Check())

	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return repl.Run(gctx)
	})
	g.Go(func() error {
		return watchConfig(gctx, services)
	})
	return g.Wait()
}

// watchConfig applies settings changes until ctx is done. Stores without
// files are not watched.
func watchConfig(ctx context.Context, services *Services) error {
	if services.Store.Paths().Workspace == "" {
		<-ctx.Done()
		return nil
	}
	return services.Store.Watch(ctx, config.DefaultWatchDebounce, func(c config.Config, errs config.ValidationErrors) {
		logging.Info("Config", "Configuration reloaded")
		services.Apply(c)
		reportProblems(errs)
	})
}

func reportProblems(errs config.ValidationErrors) {
	for _, e := range errs {
		logging.Warn("Config", "%s", e.Error())
	}
}

package app

import (
	"context"
	"fmt"
	"net"
	"path/filepath"

	"go.trai.ch/sitepipe/internal/adapters/livereload"
	"go.trai.ch/sitepipe/internal/core/domain"
	"go.trai.ch/sitepipe/internal/engine/watch"
	"golang.org/x/sync/errgroup"
)

// serve runs the live-reload server and the watch session until ctx is
// cancelled. Either one failing stops the other.
func (a *App) serve(ctx context.Context, project *domain.Project, runner watch.Runner, open bool) error {
	cfg := project.Config
	root := filepath.Join(cfg.Root, filepath.FromSlash(cfg.Paths.Build))

	server := livereload.NewServer(cfg.Server, root, a.hub, a.logger)
	session := watch.NewSession(a.watcher, runner, a.logger, cfg.Root, cfg.Debounce, project.Watches)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(ctx, func(addr string) {
			if !open {
				return
			}
			if err := a.openURL(browserURL(addr)); err != nil {
				a.logger.Warn(fmt.Sprintf("could not open browser: %v", err))
			}
		})
	})
	g.Go(func() error {
		return session.Run(ctx)
	})
	return g.Wait()
}

// browserURL turns a bound listen address into a URL a browser can reach.
func browserURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsUnspecified() {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}

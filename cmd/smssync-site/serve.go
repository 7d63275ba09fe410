package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"smssync-site/internal/handlers"
	"smssync-site/internal/site"
	"smssync-site/internal/watch"
	"smssync-site/internal/websocket"
	"smssync-site/pkg/config"
	"smssync-site/web"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr and PORT)")
	return cmd
}

// openSite returns the configured served root: a directory on disk, or the
// embedded deployment. The returned func releases the directory handle.
func openSite(cfg *config.Config) (*site.Site, func() error, error) {
	opts := site.Options{Document: cfg.Server.Document}
	if cfg.Server.Root != "" {
		dir, err := site.OpenDir(cfg.Server.Root)
		if err != nil {
			return nil, nil, err
		}
		return site.New(dir, opts), dir.Close, nil
	}
	// Embedded files carry no mtime; the process start stands in for the
	// deployment time.
	opts.ModTime = time.Now().UTC().Truncate(time.Second)
	return site.New(web.Root(), opts), func() error { return nil }, nil
}

func serve(ctx context.Context, cfg *config.Config) error {
	s, closeRoot, err := openSite(cfg)
	if err != nil {
		return err
	}
	defer closeRoot()

	opts := handlers.Options{CacheMaxAge: cfg.CacheMaxAgeSeconds()}
	if cfg.Reload.Enabled {
		hub := websocket.NewHub()
		opts.Hub = hub
		w := watch.New(s.FS(), cfg.ReloadInterval(), hub.Reload)
		go w.Run(ctx)
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handlers.LoggingMiddleware(handlers.NewMux(s, opts)),
		ReadHeaderTimeout: cfg.ReadHeaderTimeoutDuration(),
	}

	errCh := make(chan error, 1)
	go func() {
		root := cfg.Server.Root
		if root == "" {
			root = "embedded"
		}
		logrus.WithFields(logrus.Fields{
			"addr":   cfg.Server.Addr,
			"root":   root,
			"reload": cfg.Reload.Enabled,
		}).Info("Server started")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "listen")
	case <-ctx.Done():
	}

	logrus.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeoutDuration())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	return nil
}

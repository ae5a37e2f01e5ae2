package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"site/framework/devreload"
	"site/internal/web"
)

func devCmd(configFile *string) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Serve the site with live reload",
		Long: `Serve the site without caching and reload connected browsers
whenever content, templates or static assets change.

Templates are read from template_dir so edits show up without a rebuild.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(*configFile)
			if err != nil {
				return err
			}
			if addr != "" {
				a.cfg.ListenAddr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.runDev(ctx)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Address to listen on (default from config)")
	return cmd
}

func (a *app) runDev(ctx context.Context) error {
	hub := devreload.NewHub(a.logger)

	var templates fs.FS
	if info, err := os.Stat(a.cfg.TemplateDir); err == nil && info.IsDir() {
		templates = os.DirFS(a.cfg.TemplateDir)
	} else {
		a.logger.Warn("template dir not found, using embedded templates", "dir", a.cfg.TemplateDir)
	}

	site, err := a.site(web.Options{
		Templates: templates,
		Dev:       true,
		Reload:    hub,
	})
	if err != nil {
		return err
	}

	watcher := devreload.NewWatcher(devreload.WatcherConfig{
		Paths:    a.cfg.Dev.WatchPaths,
		Interval: a.cfg.Dev.PollInterval,
	})
	go func() {
		err := watcher.Run(ctx, func(changed []string) {
			a.logger.Info("change detected", "files", changed)
			if err := site.Rebuild(); err != nil {
				a.logger.Error("rebuild failed", "err", err)
				hub.NotifyError(err)
				return
			}
			hub.NotifyReload(changed[0])
			a.logger.Info("reloaded", "clients", hub.ClientCount())
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error("watcher stopped", "err", err)
		}
	}()

	return a.listen(ctx, site)
}

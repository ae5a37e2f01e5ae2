package main

import (
	"github.com/spf13/cobra"
	"site/framework/export"
	"site/internal/web"
)

func exportCmd(configFile *string) *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render the site to static files",
		Long: `Render every page to <out>/<path>/index.html, write 404.html from the
error page and copy the static assets, ready for any static host.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(*configFile)
			if err != nil {
				return err
			}

			site, err := a.site(web.Options{})
			if err != nil {
				return err
			}

			paths, err := site.ExportPaths(cmd.Context())
			if err != nil {
				return err
			}

			result, err := export.Run(cmd.Context(), export.Config{
				Handler:      site,
				OutDir:       outDir,
				Paths:        paths,
				StaticDir:    a.cfg.StaticDir,
				StaticPrefix: a.cfg.StaticPrefix,
				Logger:       a.logger,
			})
			if err != nil {
				return err
			}

			a.logger.Info("export complete", "out", outDir, "pages", len(result.Pages), "assets", result.Assets)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "dist", "Output directory")
	return cmd
}

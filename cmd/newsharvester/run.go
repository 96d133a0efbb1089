package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"NewsHarvester/internal/app"
)

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func newRunCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the harvesting loop until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			application, err := app.New(ctx, c.cfg, c.logger)
			if err != nil {
				c.logger.Error("startup failed", "error", err)
				return err
			}
			defer application.Close()

			if err := application.Run(ctx); err != nil {
				c.logger.Error("application stopped", "error", err)
				return err
			}
			c.logger.Info("harvester stopped")
			return nil
		},
	}
}

func newOnceCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "once",
		Short: "Run a single harvesting cycle and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			application, err := app.New(ctx, c.cfg, c.logger)
			if err != nil {
				c.logger.Error("startup failed", "error", err)
				return err
			}
			defer application.Close()

			report, err := application.RunOnce(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "cycle %s: collected=%d inserted=%d\n", report.ID, report.Collected, report.Inserted)
			for _, site := range report.Sites {
				status := "ok"
				if site.Err != nil {
					status = site.Err.Error()
				}
				fmt.Fprintf(out, "  %-28s links=%-3d articles=%-3d skipped=%-3d %s\n",
					site.Site, site.Links, site.Articles, site.Skipped, status)
			}
			return nil
		},
	}
}

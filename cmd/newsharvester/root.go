package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"NewsHarvester/internal/config"
	"NewsHarvester/internal/logging"
)

// cli carries state resolved once in the root pre-run.
type cli struct {
	configPath string
	logLevel   string
	envFile    string

	cfg    config.Config
	logger *slog.Logger
}

func newRootCommand() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:          "newsharvester",
		Short:        "Periodically harvest, summarize and store news articles",
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return c.init()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "path to YAML config (default $"+config.ConfigPathEnv+")")
	flags.StringVar(&c.logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")
	flags.StringVar(&c.envFile, "env-file", ".env", "dotenv file loaded before configuration")

	root.AddCommand(
		newRunCommand(c),
		newOnceCommand(c),
		newListCommand(c),
		newVerifyCommand(c),
		newSitesCommand(c),
	)
	return root
}

func (c *cli) init() error {
	if c.envFile != "" {
		if err := godotenv.Load(c.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", c.envFile, err)
		}
	}

	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		cfg.Logging.Level = c.logLevel
	}

	c.cfg = cfg
	c.logger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	return nil
}

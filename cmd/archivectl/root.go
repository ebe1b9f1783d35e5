package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/debemdeboas/the-archive-writer/internal/app"
	"github.com/debemdeboas/the-archive-writer/internal/config"
	"github.com/debemdeboas/the-archive-writer/internal/logger"
)

// cli carries the state shared by every subcommand. The App is opened on
// first use so offline commands never touch the store.
type cli struct {
	configPath string
	logLevel   string
	plain      bool

	cfg *config.Config
	app *app.App
	log zerolog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{log: zerolog.Nop()}

	root := &cobra.Command{
		Use:           "archivectl",
		Short:         "Read and write posts on the archive",
		Long:          "archivectl lists and reads posts, manages the login session and composes new posts against the blog API.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if c.app != nil {
				return c.app.Close()
			}
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", envOr("ARCHIVE_CONFIG", "config.yaml"), "path to the YAML config file")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "override the configured log level")
	root.PersistentFlags().BoolVar(&c.plain, "plain", false, "disable colours and styling")

	root.AddCommand(
		c.postsCmd(),
		c.pageCmd(),
		c.loginCmd(),
		c.logoutCmd(),
		c.slugCmd(),
		c.previewCmd(),
		c.uploadCmd(),
		c.newCmd(),
		c.draftsCmd(),
	)

	root.SetErr(os.Stderr)
	return root
}

func (c *cli) setup() error {
	if c.cfg != nil {
		return nil
	}

	envErr := godotenv.Load()

	if err := config.LoadConfig(c.configPath); err != nil {
		return err
	}
	c.cfg = config.AppConfig

	level := c.cfg.Logging.Level
	if c.logLevel != "" {
		level = c.logLevel
	}
	c.log = logger.New(level)
	app.SetLoggers(c.log)
	if envErr != nil {
		c.log.Debug().Err(envErr).Msg("No .env file loaded")
	}
	return nil
}

func (c *cli) open(ctx context.Context) (*app.App, error) {
	if c.app != nil {
		return c.app, nil
	}
	a, err := app.Open(ctx, c.cfg)
	if err != nil {
		return nil, err
	}
	c.app = a
	return a, nil
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

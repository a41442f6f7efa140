package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/tubedesk/internal/api"
	"github.com/tubedesk/internal/config"
	"github.com/tubedesk/internal/database"
	"github.com/tubedesk/internal/jobqueue"
)

// APICommand returns the CLI command for starting the API server
func APICommand() *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Start the TubeDesk API server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port for the API server (overrides config)",
			},
		},
		Action: runAPI,
	}
}

func runAPI(c *cli.Context) error {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if c.IsSet("port") {
		cfg.Server.Port = c.Int("port")
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.Log.Level != "" {
		if level, err := zerolog.ParseLevel(cfg.Log.Level); err == nil {
			zerolog.SetGlobalLevel(level)
		}
	}

	dbURL, err := database.ResolveURL(cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to resolve database URL: %w", err)
	}

	db, err := database.NewDB(dbURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	bootstrapCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := database.Bootstrap(bootstrapCtx, db); err != nil {
		return fmt.Errorf("failed to bootstrap schema: %w", err)
	}

	server, err := api.NewServer(cfg, db)
	if err != nil {
		return fmt.Errorf("failed to set up server: %w", err)
	}

	// The maintenance queue is best effort: a down queue means stale sessions
	// and an unpruned log, not an unusable dashboard.
	var queue *jobqueue.JobQueue
	if cfg.Jobs.Enabled {
		queueCfg := jobqueue.DefaultQueueConfig()
		queueCfg.SessionSweep = cfg.Jobs.SessionSweep
		if cfg.Jobs.LogRetentionDays > 0 {
			queueCfg.LogRetentionAge = time.Duration(cfg.Jobs.LogRetentionDays) * 24 * time.Hour
		}

		queue, err = jobqueue.New(context.Background(), dbURL, server.Sessions(), server.Events(), queueCfg)
		if err != nil {
			log.Warn().Err(err).Msg("maintenance job queue unavailable, serving without it")
			queue = nil
		} else if err := queue.Start(context.Background()); err != nil {
			log.Warn().Err(err).Msg("failed to start maintenance jobs, serving without them")
			queue = nil
		}
	}

	serveErr := server.Start()

	if queue != nil {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer stopCancel()
		if err := queue.Stop(stopCtx); err != nil {
			log.Warn().Err(err).Msg("job queue did not stop cleanly")
		}
	}

	return serveErr
}

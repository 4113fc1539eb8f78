package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/FallingWithStyle/Github-Notion-Logger-sub003/internal/app"
	"github.com/FallingWithStyle/Github-Notion-Logger-sub003/internal/config"
	"github.com/FallingWithStyle/Github-Notion-Logger-sub003/internal/domain"
	"github.com/FallingWithStyle/Github-Notion-Logger-sub003/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := &cli.Command{
		Name:  "commitlogctl",
		Usage: "bulk maintenance for the hosted commit-log collection",
		Commands: []*cli.Command{
			{
				Name:  "dedup",
				Usage: "archive duplicate commit records (resumable)",
				Flags: pipelineFlags(),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runPipeline(ctx, cmd, func(ctx context.Context, a *app.Application, ov app.Overrides) (domain.Summary, error) {
						return a.Dedup(ctx, ov)
					})
				},
			},
			{
				Name:  "rename",
				Usage: "copy one property's value into another across all records",
				Flags: append(pipelineFlags(),
					&cli.StringFlag{
						Name:     "from",
						Usage:    "source property name",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "to",
						Usage:    "target property name",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "clear-source",
						Usage: "remove the source property after copying",
					},
				),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					from := cmd.String("from")
					to := cmd.String("to")
					clear := cmd.Bool("clear-source")
					return runPipeline(ctx, cmd, func(ctx context.Context, a *app.Application, ov app.Overrides) (domain.Summary, error) {
						return a.Rename(ctx, ov, from, to, clear)
					})
				},
			},
			{
				Name:  "purge",
				Usage: "archive every record in the collection",
				Flags: append(pipelineFlags(),
					&cli.BoolFlag{
						Name:  "yes",
						Usage: "confirm the purge; refused otherwise",
					},
				),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if !cmd.Bool("yes") {
						return fmt.Errorf("purge archives the whole collection; pass --yes to confirm")
					}
					return runPipeline(ctx, cmd, func(ctx context.Context, a *app.Application, ov app.Overrides) (domain.Summary, error) {
						return a.Purge(ctx, ov)
					})
				},
			},
			{
				Name:  "status",
				Usage: "show the current checkpoint, if any",
				Flags: commonFlags(),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					a, done := buildApp(cmd)
					defer done()

					progress, found := a.Status(ctx)
					if !found {
						fmt.Println("no checkpoint")
						return nil
					}
					fmt.Printf("run %s (%s, %s): processed=%d/%d duplicates=%d removed=%d errors=%d batch=%d/%d cursor=%q saved=%s\n",
						progress.RunID, progress.Operation, progress.State,
						progress.ProcessedRecords, progress.TotalRecords,
						progress.DuplicatesFound, progress.DuplicatesRemoved, progress.Errors,
						progress.CurrentBatch, progress.TotalBatches,
						progress.NextCursor, progress.LastSavedAt.Format(time.RFC3339))
					return nil
				},
			},
			{
				Name:  "report",
				Usage: "write an HTML summary of recent runs",
				Flags: append(commonFlags(),
					&cli.StringFlag{
						Name:  "output",
						Usage: "output file path",
						Value: "maintenance_report.html",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "number of runs to include",
						Value: 20,
					},
				),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					a, done := buildApp(cmd)
					defer done()
					return a.Report(ctx, cmd.String("output"), int(cmd.Int("limit")))
				},
			},
		},
	}

	if err := root.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "env",
			Usage: "dotenv file path",
			Value: ".env",
		},
		&cli.StringFlag{
			Name:  "config",
			Usage: "YAML config file path (overrides COMMITLOGCTL_CONFIG)",
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "enable debug logging",
		},
	}
}

func pipelineFlags() []cli.Flag {
	return append(commonFlags(),
		&cli.IntFlag{
			Name:  "batch-size",
			Usage: "records per mutation batch (overrides config)",
		},
		&cli.IntFlag{
			Name:  "concurrency",
			Usage: "simultaneous requests per group (overrides config)",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "fetch stage wall-clock bound (overrides config)",
		},
		&cli.BoolFlag{
			Name:  "resume",
			Usage: "resume from a retained checkpoint",
		},
		&cli.BoolFlag{
			Name:  "fresh",
			Usage: "discard any checkpoint and start over",
		},
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: "detect and report without mutating anything",
		},
	)
}

func buildApp(cmd *cli.Command) (*app.Application, func()) {
	cfg := config.Load(cmd.String("env"), cmd.String("config"))
	if cmd.Bool("verbose") {
		cfg.Logging.Level = "debug"
	}
	logger := logging.New(cfg.Logging.Level)

	a := app.New(cfg, logger)
	return a, a.Close
}

func runPipeline(ctx context.Context, cmd *cli.Command, op func(context.Context, *app.Application, app.Overrides) (domain.Summary, error)) error {
	a, done := buildApp(cmd)
	defer done()

	ov := app.Overrides{
		BatchSize:   int(cmd.Int("batch-size")),
		Concurrency: int(cmd.Int("concurrency")),
		Timeout:     cmd.Duration("timeout"),
		Resume:      cmd.Bool("resume"),
		Fresh:       cmd.Bool("fresh"),
		DryRun:      cmd.Bool("dry-run"),
	}

	summary, err := op(ctx, a, ov)
	if summary.Operation != "" {
		fmt.Println(summary.String())
	}
	return err
}

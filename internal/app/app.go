package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/FallingWithStyle/Github-Notion-Logger-sub003/internal/config"
	"github.com/FallingWithStyle/Github-Notion-Logger-sub003/internal/domain"
	"github.com/FallingWithStyle/Github-Notion-Logger-sub003/internal/infrastructure/audit"
	"github.com/FallingWithStyle/Github-Notion-Logger-sub003/internal/infrastructure/checkpointfile"
	"github.com/FallingWithStyle/Github-Notion-Logger-sub003/internal/infrastructure/recordapi"
	"github.com/FallingWithStyle/Github-Notion-Logger-sub003/internal/infrastructure/telegram"
	"github.com/FallingWithStyle/Github-Notion-Logger-sub003/internal/mutation"
	"github.com/FallingWithStyle/Github-Notion-Logger-sub003/internal/ports"
	"github.com/FallingWithStyle/Github-Notion-Logger-sub003/internal/report"
	"github.com/FallingWithStyle/Github-Notion-Logger-sub003/internal/usecase"
)

// Overrides carries per-invocation flag values on top of configuration.
type Overrides struct {
	BatchSize   int
	Concurrency int
	Timeout     time.Duration
	Resume      bool
	Fresh       bool
	DryRun      bool
}

// Application wires configuration to adapters and use cases.
type Application struct {
	cfg         config.Config
	logger      *slog.Logger
	service     ports.RecordService
	checkpoints ports.CheckpointStore
	audit       ports.AuditLog
	notifier    ports.Notifier
}

// New builds a runnable application instance. The audit log is optional:
// a failure to open it degrades to a warning, never a dead CLI.
func New(cfg config.Config, logger *slog.Logger) *Application {
	a := &Application{
		cfg:         cfg,
		logger:      logger,
		service:     recordapi.New(cfg.Service, cfg.Properties.Date),
		checkpoints: checkpointfile.New(cfg.Checkpoint.Path, logger.With("component", "checkpoint")),
	}

	if cfg.Audit.Path != "" {
		store, err := audit.Open(cfg.Audit.Path)
		if err != nil {
			logger.Warn("audit log unavailable", "path", cfg.Audit.Path, "error", err)
		} else {
			a.audit = store
		}
	}

	if tg := cfg.Notifications.Telegram; tg.BotToken != "" && tg.ChatID != "" {
		a.notifier = telegram.NewNotifier(tg.BotToken, tg.ChatID)
	}

	return a
}

// Close releases resources held by the application.
func (a *Application) Close() {
	if a.audit != nil {
		if err := a.audit.Close(); err != nil {
			a.logger.Warn("audit close failed", "error", err)
		}
	}
}

// Dedup runs the deduplication pipeline.
func (a *Application) Dedup(ctx context.Context, ov Overrides) (domain.Summary, error) {
	if err := a.cfg.ValidateService(); err != nil {
		return domain.Summary{}, err
	}

	reg := mutation.NewRegistry()
	reg.Register(mutation.Archive{})
	return a.pipeline(reg, ov, a.cfg.Pipeline.ArchiveConcurrency).Dedup(ctx)
}

// Rename bulk-copies the `from` property into `to` across the collection.
func (a *Application) Rename(ctx context.Context, ov Overrides, from, to string, clearSource bool) (domain.Summary, error) {
	if err := a.cfg.ValidateService(); err != nil {
		return domain.Summary{}, err
	}
	if from == "" || to == "" || from == to {
		return domain.Summary{}, fmt.Errorf("rename needs distinct --from and --to property names")
	}

	reg := mutation.NewRegistry()
	reg.Register(mutation.Rewrite{From: from, To: to, ClearSource: clearSource})
	return a.pipeline(reg, ov, a.cfg.Pipeline.RewriteConcurrency).RewriteProperty(ctx, from)
}

// Purge archives every record in the collection.
func (a *Application) Purge(ctx context.Context, ov Overrides) (domain.Summary, error) {
	if err := a.cfg.ValidateService(); err != nil {
		return domain.Summary{}, err
	}

	reg := mutation.NewRegistry()
	reg.Register(mutation.Archive{})
	return a.pipeline(reg, ov, a.cfg.Pipeline.ArchiveConcurrency).Purge(ctx)
}

// Status returns the current checkpoint, if one exists.
func (a *Application) Status(ctx context.Context) (domain.Progress, bool) {
	progress, found, _ := a.checkpoints.Load(ctx)
	return progress, found
}

// Report writes an HTML summary of recent runs to the given path.
func (a *Application) Report(ctx context.Context, outPath string, limit int) error {
	if a.audit == nil {
		return fmt.Errorf("audit log is not configured")
	}

	runs, err := a.audit.RecentRuns(ctx, limit)
	if err != nil {
		return fmt.Errorf("load recent runs: %w", err)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	if err := report.Generate(f, runs); err != nil {
		return err
	}
	a.logger.Info("report written", "path", outPath, "runs", len(runs))
	return nil
}

func (a *Application) pipeline(reg *mutation.Registry, ov Overrides, concurrency int) *usecase.Pipeline {
	opts := usecase.Options{
		PageSize:         a.cfg.Service.PageSize,
		BatchSize:        a.cfg.Pipeline.BatchSize,
		Concurrency:      concurrency,
		GroupDelay:       a.cfg.Pipeline.GroupDelay(),
		BatchDelay:       a.cfg.Pipeline.BatchDelay(),
		SaveEveryPages:   a.cfg.Pipeline.SaveEveryPages,
		SaveEveryRecords: a.cfg.Pipeline.SaveEveryRecords,
		FetchTimeout:     a.cfg.Pipeline.FetchTimeout(),
		Resume:           ov.Resume,
		Fresh:            ov.Fresh,
		DryRun:           ov.DryRun,
		KeyFields: domain.KeyFields{
			SHA:     a.cfg.Properties.SHA,
			Message: a.cfg.Properties.Message,
			Project: a.cfg.Properties.Project,
			Date:    a.cfg.Properties.Date,
		},
	}
	if ov.BatchSize > 0 {
		opts.BatchSize = ov.BatchSize
	}
	if ov.Concurrency > 0 {
		opts.Concurrency = ov.Concurrency
	}
	if ov.Timeout > 0 {
		opts.FetchTimeout = ov.Timeout
	}

	return usecase.NewPipeline(usecase.PipelineDeps{
		Service:     a.service,
		Checkpoints: a.checkpoints,
		Mutations:   reg,
		Audit:       a.audit,
		Notifier:    a.notifier,
		Logger:      a.logger.With("component", "pipeline"),
	}, opts)
}

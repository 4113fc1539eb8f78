package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/FallingWithStyle/Github-Notion-Logger-sub003/internal/dedup"
	"github.com/FallingWithStyle/Github-Notion-Logger-sub003/internal/domain"
	"github.com/FallingWithStyle/Github-Notion-Logger-sub003/internal/mutation"
	"github.com/FallingWithStyle/Github-Notion-Logger-sub003/internal/ports"
	"github.com/FallingWithStyle/Github-Notion-Logger-sub003/pkg/batch"
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
// Audit and Notifier are optional; a nil adapter is skipped.
type PipelineDeps struct {
	Service     ports.RecordService
	Checkpoints ports.CheckpointStore
	Mutations   *mutation.Registry
	Audit       ports.AuditLog
	Notifier    ports.Notifier
	Logger      *slog.Logger
}

// Options bound one run of the pipeline.
type Options struct {
	PageSize         int
	BatchSize        int
	Concurrency      int
	GroupDelay       time.Duration
	BatchDelay       time.Duration
	SaveEveryPages   int
	SaveEveryRecords int
	FetchTimeout     time.Duration
	Resume           bool
	Fresh            bool
	DryRun           bool
	KeyFields        domain.KeyFields
}

// Pipeline drives the fetch, detect, mutate, and report stages over the
// record service. The single Progress value is owned here and mutated by no
// one else.
type Pipeline struct {
	service     ports.RecordService
	checkpoints ports.CheckpointStore
	mutations   *mutation.Registry
	audit       ports.AuditLog
	notifier    ports.Notifier
	logger      *slog.Logger
	opts        Options
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps, opts Options) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		service:     deps.Service,
		checkpoints: deps.Checkpoints,
		mutations:   deps.Mutations,
		audit:       deps.Audit,
		notifier:    deps.Notifier,
		logger:      logger,
		opts:        opts,
	}
}

// Dedup runs the full deduplication pipeline: fetch every record, classify
// duplicates first-seen-wins, archive them in paced batches.
func (p *Pipeline) Dedup(ctx context.Context) (domain.Summary, error) {
	return p.run(ctx, "dedup", "archive", func(records []domain.Record, progress *domain.Progress) []dedup.Duplicate {
		detector := dedup.New(p.opts.KeyFields).
			WithProgress(p.opts.SaveEveryRecords, func(processed, duplicates int) {
				progress.ProcessedRecords = processed
				progress.DuplicatesFound = duplicates
				p.saveProgress(ctx, progress)
			})
		return detector.Detect(records)
	})
}

// RewriteProperty bulk-copies one property to another across the collection.
// Only records carrying the source property are targeted.
func (p *Pipeline) RewriteProperty(ctx context.Context, from string) (domain.Summary, error) {
	return p.run(ctx, "rename", "rewrite", func(records []domain.Record, progress *domain.Progress) []dedup.Duplicate {
		targets := make([]dedup.Duplicate, 0, len(records))
		for _, rec := range records {
			if rec.Has(from) {
				targets = append(targets, dedup.Duplicate{Record: rec, Key: from, Reason: "rewrite"})
			}
		}
		progress.ProcessedRecords = len(records)
		return targets
	})
}

// Purge archives every record in the collection.
func (p *Pipeline) Purge(ctx context.Context) (domain.Summary, error) {
	return p.run(ctx, "purge", "archive", func(records []domain.Record, progress *domain.Progress) []dedup.Duplicate {
		targets := make([]dedup.Duplicate, 0, len(records))
		for _, rec := range records {
			targets = append(targets, dedup.Duplicate{Record: rec, Reason: "purge"})
		}
		progress.ProcessedRecords = len(records)
		return targets
	})
}

type selector func(records []domain.Record, progress *domain.Progress) []dedup.Duplicate

func (p *Pipeline) run(ctx context.Context, operation, mutationName string, selectTargets selector) (domain.Summary, error) {
	start := time.Now()

	mut, err := p.mutations.Resolve(mutationName)
	if err != nil {
		return domain.Summary{}, err
	}

	progress := p.openRun(ctx, operation)

	// A resumed run keeps accumulating the logical run's counters: records
	// already removed (and errors already counted) before the failure stay in
	// the totals the new pass adds to.
	baseRemoved := progress.DuplicatesRemoved
	baseErrors := progress.Errors

	records, err := p.fetchAll(ctx, &progress)
	if err != nil {
		return p.failRun(ctx, &progress, start, fmt.Errorf("fetch stage: %w", err))
	}
	p.logger.Info("fetch complete", "operation", operation, "records", len(records))

	progress.State = domain.StateAnalyzing
	targets := selectTargets(records, &progress)
	// Records removed before a resume are gone from the collection, so the
	// new detection pass only sees the remainder. Folding them back in keeps
	// the found count stable across the failure boundary.
	progress.DuplicatesFound = baseRemoved + len(targets)
	p.saveProgress(ctx, &progress)
	p.logger.Info("analysis complete", "operation", operation, "targets", len(targets))

	if p.opts.DryRun {
		progress.State = domain.StateDone
		summary := domain.Summarize(progress, time.Since(start))
		p.logger.Info("dry run, skipping mutation stage", "targets", len(targets))
		return summary, nil
	}

	progress.State = domain.StateMutating
	result, outcomes, err := batch.Run(ctx, targets, batch.Options{
		BatchSize:   p.opts.BatchSize,
		Concurrency: p.opts.Concurrency,
		GroupDelay:  p.opts.GroupDelay,
		BatchDelay:  p.opts.BatchDelay,
		AfterBatch: func(current, total int, cumulative batch.Result) {
			progress.CurrentBatch = current
			progress.TotalBatches = total
			progress.DuplicatesRemoved = baseRemoved + cumulative.Succeeded
			progress.Errors = baseErrors + cumulative.Failed
			p.saveProgress(ctx, &progress)
		},
	}, func(ctx context.Context, target dedup.Duplicate) error {
		if err := mut.Apply(ctx, p.service, target.Record); err != nil {
			p.logger.Error("mutation failed", "record", target.Record.ID, "error", err)
			return err
		}
		return nil
	})
	progress.DuplicatesRemoved = baseRemoved + result.Succeeded
	progress.Errors = baseErrors + result.Failed
	if err != nil {
		return p.failRun(ctx, &progress, start, fmt.Errorf("mutation stage: %w", err))
	}

	progress.State = domain.StateReporting
	p.recordRemovals(ctx, progress.RunID, outcomes)

	progress.State = domain.StateDone
	summary := domain.Summarize(progress, time.Since(start))

	if err := p.checkpoints.Clear(ctx); err != nil {
		p.logger.Warn("checkpoint clear failed", "error", err)
	}
	p.recordRun(ctx, progress)
	p.notify(ctx, summary)

	return summary, nil
}

// openRun loads a resumable checkpoint for the operation or starts fresh.
func (p *Pipeline) openRun(ctx context.Context, operation string) domain.Progress {
	if p.opts.Fresh {
		if err := p.checkpoints.Clear(ctx); err != nil {
			p.logger.Warn("checkpoint clear failed", "error", err)
		}
	} else if p.opts.Resume {
		if prev, found, _ := p.checkpoints.Load(ctx); found && prev.Operation == operation {
			p.logger.Info("resuming from checkpoint",
				"runId", prev.RunID,
				"processed", prev.ProcessedRecords,
				"total", prev.TotalRecords,
				"duplicatesFound", prev.DuplicatesFound,
				"batch", prev.CurrentBatch,
				"totalBatches", prev.TotalBatches,
			)
			prev.State = domain.StateIdle
			return prev
		}
	}

	return domain.Progress{
		RunID:     uuid.NewString(),
		Operation: operation,
		State:     domain.StateIdle,
		StartedAt: time.Now().UTC(),
	}
}

// fetchAll walks every page of the collection via cursor pagination. The
// whole ordered set is refetched on every run, including resumed ones: the
// duplicate detector needs every earlier record's key, so resuming the fetch
// mid-cursor would silently miss duplicates against the unfetched prefix.
// The cursor is still checkpointed so a failed fetch is inspectable.
func (p *Pipeline) fetchAll(ctx context.Context, progress *domain.Progress) ([]domain.Record, error) {
	fetchCtx := ctx
	if p.opts.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, p.opts.FetchTimeout)
		defer cancel()
	}

	progress.State = domain.StateFetching

	var all []domain.Record
	cursor := ""
	pages := 0
	for {
		page, err := p.service.QueryPage(fetchCtx, cursor, p.opts.PageSize)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", pages+1, err)
		}

		all = append(all, page.Records...)
		pages++
		progress.TotalRecords = len(all)
		progress.ProcessedRecords = len(all)
		progress.NextCursor = page.NextCursor

		if p.opts.SaveEveryPages > 0 && pages%p.opts.SaveEveryPages == 0 {
			p.saveProgress(ctx, progress)
		}

		if !page.HasMore {
			break
		}
		cursor = page.NextCursor
	}

	progress.NextCursor = ""
	return all, nil
}

// failRun saves a best-effort checkpoint and records the failed run so the
// partial counts survive for the summary and a later resume.
func (p *Pipeline) failRun(ctx context.Context, progress *domain.Progress, start time.Time, err error) (domain.Summary, error) {
	progress.State = domain.StateFailed
	p.saveProgress(context.WithoutCancel(ctx), progress)
	p.recordRun(context.WithoutCancel(ctx), *progress)

	summary := domain.Summarize(*progress, time.Since(start))
	p.logger.Error("run failed", "operation", progress.Operation, "error", err, "summary", summary.String())
	return summary, err
}

func (p *Pipeline) saveProgress(ctx context.Context, progress *domain.Progress) {
	if p.opts.DryRun {
		return
	}
	progress.LastSavedAt = time.Now().UTC()
	if err := p.checkpoints.Save(ctx, *progress); err != nil {
		p.logger.Warn("checkpoint save failed", "error", err)
	}
}

func (p *Pipeline) recordRemovals(ctx context.Context, runID string, outcomes []batch.Outcome[dedup.Duplicate]) {
	if p.audit == nil {
		return
	}

	removals := make([]domain.Removal, 0, len(outcomes))
	for _, out := range outcomes {
		if out.Err != nil {
			continue
		}
		removals = append(removals, domain.Removal{
			RecordID: out.Item.Record.ID,
			Key:      out.Item.Key,
			Reason:   out.Item.Reason,
		})
	}

	if err := p.audit.RecordRemovals(ctx, runID, removals); err != nil {
		p.logger.Warn("audit removals failed", "error", err)
	}
}

func (p *Pipeline) recordRun(ctx context.Context, progress domain.Progress) {
	if p.audit == nil {
		return
	}

	run := domain.RunRecord{
		RunID:           progress.RunID,
		Operation:       progress.Operation,
		State:           progress.State,
		Processed:       progress.ProcessedRecords,
		DuplicatesFound: progress.DuplicatesFound,
		Removed:         progress.DuplicatesRemoved,
		Errors:          progress.Errors,
		StartedAt:       progress.StartedAt,
		FinishedAt:      time.Now().UTC(),
	}
	if err := p.audit.RecordRun(ctx, run); err != nil {
		p.logger.Warn("audit run failed", "error", err)
	}
}

func (p *Pipeline) notify(ctx context.Context, summary domain.Summary) {
	if p.notifier == nil {
		return
	}
	if err := p.notifier.PublishSummary(ctx, summary.String()); err != nil {
		p.logger.Warn("summary notification failed", "error", err)
	}
}

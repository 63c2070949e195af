package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/milltrade-erp/milltrade-erp/internal/ledger"
	"github.com/milltrade-erp/milltrade-erp/internal/recon"
)

// SummaryRefreshJob recomputes the reconciliation summaries and warms the
// cache so interactive reads stay cheap after ledger writes.
type SummaryRefreshJob struct {
	Ledger *ledger.Service
	Logger *slog.Logger
}

// NewSummaryRefreshJob wires dependencies for the refresh handler.
func NewSummaryRefreshJob(ledgerSvc *ledger.Service, logger *slog.Logger) *SummaryRefreshJob {
	return &SummaryRefreshJob{Ledger: ledgerSvc, Logger: logger}
}

// Handle processes summary refresh tasks.
func (j *SummaryRefreshJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.Ledger == nil {
		return errors.New("summary refresh: handler not configured")
	}

	summaries, err := j.Ledger.Recompute(ctx)
	if err != nil {
		if j.Logger != nil {
			j.Logger.Error("summary refresh", slog.Any("error", err))
		}
		return err
	}

	if j.Logger != nil {
		mill := summaries[recon.MillOverviewKey]
		attrs := []any{slog.Int("groups", len(summaries) - 1)}
		if mill != nil {
			attrs = append(attrs,
				slog.Int("entries", mill.EntryCount),
				slog.Float64("outstanding", mill.TotalOutstanding),
			)
		}
		j.Logger.Info("summaries refreshed", attrs...)
	}
	return nil
}

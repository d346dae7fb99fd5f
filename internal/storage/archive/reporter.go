package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kyuwon/tradewind/internal/backtest"
	"github.com/kyuwon/tradewind/internal/core"
	"go.uber.org/zap"
)

// Reporter writes evaluation and backtest artifacts as JSON documents.
// Paths are date-partitioned: evaluations/2026/09/01/<id>.json.
type Reporter struct {
	storage Storage
	logger  *zap.Logger
	now     func() time.Time
}

// NewReporter creates a Reporter over the given storage backend.
func NewReporter(storage Storage, logger *zap.Logger) *Reporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reporter{storage: storage, logger: logger, now: time.Now}
}

type evaluationReport struct {
	ID          string                  `json:"id"`
	GeneratedAt time.Time               `json:"generated_at"`
	VIX         *float64                `json:"vix,omitempty"`
	Results     []core.EvaluationResult `json:"results"`
}

// SaveEvaluations archives a batch of evaluation results and returns the
// storage path.
func (r *Reporter) SaveEvaluations(ctx context.Context, results []core.EvaluationResult, vix *float64) (string, error) {
	report := evaluationReport{
		ID:          uuid.NewString(),
		GeneratedAt: r.now().UTC(),
		VIX:         vix,
		Results:     results,
	}
	path := datedPath("evaluations", report.GeneratedAt, report.ID)
	if err := r.writeJSON(ctx, path, report); err != nil {
		return "", err
	}
	r.logger.Info("archived evaluation report",
		zap.String("path", path),
		zap.Int("results", len(results)))
	return path, nil
}

// SaveBacktest archives a backtest summary under its run ID and returns the
// storage path.
func (r *Reporter) SaveBacktest(ctx context.Context, summary backtest.Summary) (string, error) {
	path := datedPath("backtests", summary.StartedAt.UTC(), summary.RunID)
	if err := r.writeJSON(ctx, path, summary); err != nil {
		return "", err
	}
	r.logger.Info("archived backtest summary",
		zap.String("path", path),
		zap.String("run_id", summary.RunID))
	return path, nil
}

func (r *Reporter) writeJSON(ctx context.Context, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	return r.storage.Write(ctx, path, data)
}

func datedPath(kind string, t time.Time, id string) string {
	return fmt.Sprintf("%s/%s/%s.json", kind, t.Format("2006/01/02"), id)
}

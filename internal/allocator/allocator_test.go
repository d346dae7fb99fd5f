package allocator

import (
	"context"
	"fmt"
	"testing"

	"github.com/kyuwon/tradewind/internal/core"
	"github.com/kyuwon/tradewind/internal/llm"
	"github.com/kyuwon/tradewind/internal/recommend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockLLM struct {
	content string
	err     error
}

func (m *mockLLM) Name() string { return "mock" }

func (m *mockLLM) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &llm.Response{Content: m.content}, nil
}

func eval(ticker string, grade core.Grade, gap, rsi *float64) core.EvaluationResult {
	return core.EvaluationResult{
		Ticker:     ticker,
		Grade:      grade,
		Indicators: core.IndicatorBundle{GapPct: gap, RSI14: rsi},
	}
}

func TestFraction_GradeTable(t *testing.T) {
	a := New(DefaultWeights())

	tests := []struct {
		name string
		ev   core.EvaluationResult
		want float64
	}{
		{"S base", eval("T", core.GradeS, nil, nil), 0.30},
		{"A base", eval("T", core.GradeA, nil, nil), 0.10},
		{"F gets nothing", eval("T", core.GradeF, nil, nil), 0},
		{"error gets nothing", eval("T", core.GradeError, nil, nil), 0},
		{"strong gap bonus", eval("T", core.GradeS, core.Float64(12), nil), 0.35},
		{"mild gap bonus", eval("T", core.GradeS, core.Float64(6), nil), 0.32},
		{"no bonus below mild threshold", eval("T", core.GradeS, core.Float64(3), nil), 0.30},
		{"low RSI bonus", eval("T", core.GradeS, nil, core.Float64(42)), 0.32},
		{"high RSI no bonus", eval("T", core.GradeS, nil, core.Float64(65)), 0.30},
		{"stacked bonuses", eval("T", core.GradeS, core.Float64(12), core.Float64(42)), 0.37},
		{"bonuses on F still zero", eval("T", core.GradeF, core.Float64(12), core.Float64(42)), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, a.Fraction(tt.ev), 1e-9)
		})
	}
}

func TestFraction_Cap(t *testing.T) {
	w := DefaultWeights()
	w.GradeS = 0.48
	a := New(w)

	got := a.Fraction(eval("T", core.GradeS, core.Float64(12), core.Float64(42)))
	assert.InDelta(t, w.Cap, got, 1e-9, "bonuses never push past the cap")
}

func TestAllocate_HeuristicWithoutRecommender(t *testing.T) {
	a := New(DefaultWeights())
	got := a.Allocate(context.Background(), eval("T", core.GradeS, nil, nil), 1_000_000)
	assert.InDelta(t, 300_000, got, 1e-6)
}

func TestAllocate_RecommenderOverrides(t *testing.T) {
	rec := recommend.New(&mockLLM{content: "go with 15% here"}, nil, nil)
	a := New(DefaultWeights(), WithRecommender(rec))

	got := a.Allocate(context.Background(), eval("T", core.GradeS, nil, nil), 1_000_000)
	assert.InDelta(t, 150_000, got, 1e-6)
}

func TestAllocate_OverrideClampedToCeiling(t *testing.T) {
	rec := recommend.New(&mockLLM{content: "bet 99% of everything"}, nil, nil)
	a := New(DefaultWeights(), WithRecommender(rec))

	got := a.Allocate(context.Background(), eval("T", core.GradeS, nil, nil), 1_000_000)
	assert.InDelta(t, 900_000, got, 1e-6)
}

func TestAllocate_SilentFallbackOnFailure(t *testing.T) {
	rec := recommend.New(&mockLLM{err: fmt.Errorf("model offline")}, nil, nil)
	a := New(DefaultWeights(), WithRecommender(rec))

	got := a.Allocate(context.Background(), eval("T", core.GradeS, nil, nil), 1_000_000)
	assert.InDelta(t, 300_000, got, 1e-6, "failed recommendation falls back to the heuristic")
}

func TestAllocate_ErrorGradeSkipsRecommender(t *testing.T) {
	rec := recommend.New(&mockLLM{content: "definitely 50%"}, nil, nil)
	a := New(DefaultWeights(), WithRecommender(rec))

	got := a.Allocate(context.Background(), eval("T", core.GradeError, nil, nil), 1_000_000)
	assert.Zero(t, got)
}

func TestAllocateAll_PartialBulkNeverMixesInHeuristic(t *testing.T) {
	// bulk answer covers AAPL only; the S-graded MSFT must not get its
	// grade-table amount alongside the recommended one in the same run
	rec := recommend.New(&mockLLM{content: `[{"ticker": "AAPL", "recommended_percent": 40}]`}, nil, nil)
	a := New(DefaultWeights(), WithRecommender(rec))

	evals := []core.EvaluationResult{
		eval("AAPL", core.GradeS, nil, nil),
		eval("MSFT", core.GradeS, nil, nil),
	}
	out := a.AllocateAll(context.Background(), evals, 1_000_000, nil)

	require.Len(t, out, 1)
	assert.InDelta(t, 400_000, out["AAPL"], 1e-6)
	_, ok := out["MSFT"]
	assert.False(t, ok, "skipped tickers stay unallocated")
}

func TestAllocateAll_AllHeuristicWhenBulkUnusable(t *testing.T) {
	// the model answered but produced nothing parseable: whole batch
	// falls back to the grade table
	rec := recommend.New(&mockLLM{content: "I would stay in cash this week."}, nil, nil)
	a := New(DefaultWeights(), WithRecommender(rec))

	evals := []core.EvaluationResult{
		eval("AAPL", core.GradeS, nil, nil),
		eval("MSFT", core.GradeA, nil, nil),
	}
	out := a.AllocateAll(context.Background(), evals, 1_000_000, nil)

	require.Len(t, out, 2)
	assert.InDelta(t, 300_000, out["AAPL"], 1e-6)
	assert.InDelta(t, 100_000, out["MSFT"], 1e-6)
}

func TestAllocateAll_AllHeuristicWhenBulkFails(t *testing.T) {
	rec := recommend.New(&mockLLM{err: fmt.Errorf("quota exceeded")}, nil, nil)
	a := New(DefaultWeights(), WithRecommender(rec))

	evals := []core.EvaluationResult{
		eval("AAPL", core.GradeS, nil, nil),
		eval("MSFT", core.GradeA, nil, nil),
	}
	out := a.AllocateAll(context.Background(), evals, 1_000_000, nil)

	assert.InDelta(t, 300_000, out["AAPL"], 1e-6)
	assert.InDelta(t, 100_000, out["MSFT"], 1e-6)
}

func TestAllocateAll_NoRecommender(t *testing.T) {
	a := New(DefaultWeights())
	evals := []core.EvaluationResult{
		eval("AAPL", core.GradeS, nil, nil),
		eval("BAD", core.GradeF, nil, nil),
	}
	out := a.AllocateAll(context.Background(), evals, 1_000_000, nil)

	assert.InDelta(t, 300_000, out["AAPL"], 1e-6)
	assert.Zero(t, out["BAD"])
}

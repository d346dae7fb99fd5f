// Package allocator sizes positions from evaluation grades, with an
// optional LLM override on top of the baseline heuristic.
package allocator

import (
	"context"

	"github.com/kyuwon/tradewind/internal/core"
	"github.com/kyuwon/tradewind/internal/recommend"
	"go.uber.org/zap"
)

// Weights controls the grade-based baseline.
type Weights struct {
	GradeS       float64 // fraction of cash for an S grade
	GradeA       float64 // fraction of cash for an A grade
	Cap          float64 // ceiling on the heuristic result
	OverrideCap  float64 // ceiling on an LLM-provided fraction
	GapStrongPct float64 // sector gap bonus threshold (+0.05)
	GapMildPct   float64 // sector gap bonus threshold (+0.02)
}

// DefaultWeights mirrors the shipped configuration defaults.
func DefaultWeights() Weights {
	return Weights{
		GradeS:       0.30,
		GradeA:       0.10,
		Cap:          0.50,
		OverrideCap:  0.90,
		GapStrongPct: 10,
		GapMildPct:   5,
	}
}

// Allocator converts evaluation results into cash amounts.
type Allocator struct {
	weights     Weights
	recommender *recommend.Recommender
	logger      *zap.Logger
}

// Option configures an Allocator.
type Option func(*Allocator)

// WithRecommender enables the LLM override path. A nil recommender keeps
// the pure heuristic.
func WithRecommender(r *recommend.Recommender) Option {
	return func(a *Allocator) { a.recommender = r }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Allocator) { a.logger = l }
}

// New creates an Allocator with the given weights.
func New(weights Weights, opts ...Option) *Allocator {
	a := &Allocator{weights: weights, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Fraction computes the heuristic allocation fraction for one evaluation.
// F and ERROR grades always get zero.
func (a *Allocator) Fraction(ev core.EvaluationResult) float64 {
	var base float64
	switch ev.Grade {
	case core.GradeS:
		base = a.weights.GradeS
	case core.GradeA:
		base = a.weights.GradeA
	default:
		return 0
	}

	if ev.Indicators.GapPct != nil {
		switch gap := *ev.Indicators.GapPct; {
		case gap >= a.weights.GapStrongPct:
			base += 0.05
		case gap >= a.weights.GapMildPct:
			base += 0.02
		}
	}
	if ev.Indicators.RSI14 != nil && *ev.Indicators.RSI14 < 50 {
		base += 0.02
	}

	if base > a.weights.Cap {
		base = a.weights.Cap
	}
	return base
}

// Allocate computes the cash amount for one evaluation. When a recommender
// is configured it is consulted first; any recommendation failure falls back
// to the heuristic silently.
func (a *Allocator) Allocate(ctx context.Context, ev core.EvaluationResult, totalCash float64) float64 {
	if a.recommender != nil && ev.Grade != core.GradeError {
		if frac, err := a.recommender.Percent(ctx, ev); err == nil {
			return a.clampOverride(frac) * totalCash
		} else {
			a.logger.Debug("recommendation unavailable, using heuristic",
				zap.String("ticker", ev.Ticker),
				zap.Error(err))
		}
	}
	return a.Fraction(ev) * totalCash
}

// AllocateAll computes cash amounts for a batch. With a recommender the
// batch is priced in a single bulk call. A non-empty bulk answer is
// authoritative for the whole run: tickers it skips are simply absent from
// the result, never filled in with heuristic amounts. Only a failed or
// entirely unusable bulk answer drops the whole batch to the heuristic.
func (a *Allocator) AllocateAll(ctx context.Context, evals []core.EvaluationResult, totalCash float64, vix *float64) map[string]float64 {
	out := make(map[string]float64, len(evals))

	if a.recommender != nil {
		bulk, err := a.recommender.BulkPercents(ctx, evals, totalCash, vix)
		if err != nil {
			a.logger.Warn("bulk recommendation failed, using heuristic for all",
				zap.Error(err))
		} else if len(bulk) > 0 {
			for _, ev := range evals {
				if frac, ok := bulk[ev.Ticker]; ok {
					out[ev.Ticker] = a.clampOverride(frac) * totalCash
				}
			}
			return out
		}
	}

	for _, ev := range evals {
		out[ev.Ticker] = a.Fraction(ev) * totalCash
	}
	return out
}

func (a *Allocator) clampOverride(frac float64) float64 {
	if frac < 0 {
		return 0
	}
	if frac > a.weights.OverrideCap {
		return a.weights.OverrideCap
	}
	return frac
}

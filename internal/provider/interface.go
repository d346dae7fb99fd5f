// Package provider defines the abstract data collaborators the evaluation
// and backtest core consumes. Implementations return errors; batch callers
// are responsible for treating a failed ticker as an empty series so one bad
// symbol never aborts the rest.
package provider

import (
	"context"

	"github.com/kyuwon/tradewind/internal/core"
)

// HistoryProvider fetches historical daily bars.
type HistoryProvider interface {
	// History returns the bar series for one ticker over the given lookback
	// period ("1y", "3mo") and interval ("1d").
	History(ctx context.Context, ticker, period, interval string) ([]core.PriceBar, error)

	// Histories fetches several tickers at once. Failed tickers map to an
	// empty series; the error is reserved for total failure.
	Histories(ctx context.Context, tickers []string, period, interval string) (map[string][]core.PriceBar, error)
}

// QuoteProvider fetches the latest session prices and fundamentals.
type QuoteProvider interface {
	Quote(ctx context.Context, ticker string) (*core.Quote, error)
}

// VolatilityProvider reads the current fear-gauge level (VIX).
type VolatilityProvider interface {
	VolatilityIndex(ctx context.Context) (float64, error)
}

// SectorClassifier looks up a ticker's sector classification.
type SectorClassifier interface {
	Sector(ctx context.Context, ticker string) (string, error)
}

// Package sector computes per-ticker and per-sector trend levels used as the
// evaluator's relative-gap input.
package sector

import (
	"context"

	"github.com/kyuwon/tradewind/internal/core"
	"github.com/kyuwon/tradewind/internal/indicator"
	"github.com/kyuwon/tradewind/internal/provider"
	"go.uber.org/zap"
)

// Unclassified is the bucket for tickers whose sector lookup failed.
const Unclassified = "Unclassified"

// Stats holds the aggregation output.
type Stats struct {
	TickerMA     map[string]*float64 // nil entries mean no usable bars
	TickerSector map[string]string
	SectorMeanMA map[string]*float64
	OverallMean  *float64 // mean across all tickers with a valid MA
}

// MAFor returns the sector mean for a ticker, falling back to the overall
// mean when the ticker's sector has no usable average.
func (s *Stats) MAFor(ticker string) *float64 {
	sec, ok := s.TickerSector[ticker]
	if ok {
		if m := s.SectorMeanMA[sec]; m != nil {
			return m
		}
	}
	return s.OverallMean
}

// Aggregator groups ticker trend levels by sector.
type Aggregator struct {
	history    provider.HistoryProvider
	classifier provider.SectorClassifier
	window     int
	period     string
	logger     *zap.Logger
}

// New creates an Aggregator with the given MA window.
func New(history provider.HistoryProvider, classifier provider.SectorClassifier, window int, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if window <= 0 {
		window = 20
	}
	return &Aggregator{
		history:    history,
		classifier: classifier,
		window:     window,
		period:     "3mo",
		logger:     logger,
	}
}

// Compute fetches histories in bulk and aggregates moving averages by
// sector. A ticker with fewer bars than the window falls back to the mean of
// whatever bars exist; a ticker with no bars gets a nil MA.
func (a *Aggregator) Compute(ctx context.Context, tickers []string) (*Stats, error) {
	histories, err := a.history.Histories(ctx, tickers, a.period, "1d")
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		TickerMA:     make(map[string]*float64, len(tickers)),
		TickerSector: make(map[string]string, len(tickers)),
		SectorMeanMA: make(map[string]*float64),
	}
	groups := make(map[string][]float64)

	for _, t := range tickers {
		sec := Unclassified
		if a.classifier != nil {
			if s, err := a.classifier.Sector(ctx, t); err == nil && s != "" {
				sec = s
			}
		}
		stats.TickerSector[t] = sec

		closes := core.Closes(histories[t])
		ma, ok := indicator.MovingAverage(closes, a.window)
		if !ok {
			// short series: fall back to the mean of available bars
			ma, ok = indicator.MovingAverage(closes, len(closes))
		}
		if !ok {
			stats.TickerMA[t] = nil
			continue
		}
		stats.TickerMA[t] = core.Float64(ma)
		groups[sec] = append(groups[sec], ma)
	}

	var all []float64
	for sec, vals := range groups {
		if len(vals) == 0 {
			stats.SectorMeanMA[sec] = nil
			continue
		}
		stats.SectorMeanMA[sec] = core.Float64(mean(vals))
		all = append(all, vals...)
	}
	if len(all) > 0 {
		stats.OverallMean = core.Float64(mean(all))
	}
	return stats, nil
}

func mean(vals []float64) float64 {
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

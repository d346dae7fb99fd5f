// Package backtest replays historical price series through the fixed
// trend-following entry/exit rule and accounts for the resulting equity
// curve and drawdown.
package backtest

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kyuwon/tradewind/internal/core"
	"github.com/kyuwon/tradewind/internal/indicator"
	"github.com/kyuwon/tradewind/internal/metrics"
	"github.com/kyuwon/tradewind/internal/provider"
	"go.uber.org/zap"
)

// Simulator replays price histories per ticker through a single-position
// state machine: enter long when the close crosses above the long moving
// average after warm-up, exit on stop-loss, trend break, or end of series.
// The simulator itself is deterministic: identical inputs produce identical
// ledgers.
type Simulator struct {
	history provider.HistoryProvider
	cfg     Config
	metrics *metrics.Registry
	logger  *zap.Logger
}

// New creates a Simulator.
func New(history provider.HistoryProvider, cfg Config, logger *zap.Logger, reg *metrics.Registry) *Simulator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MAWindow <= 0 {
		cfg.MAWindow = 200
	}
	if cfg.StopLossPct <= 0 {
		cfg.StopLossPct = 0.10
	}
	if cfg.Period == "" {
		cfg.Period = "1y"
	}
	return &Simulator{history: history, cfg: cfg, metrics: reg, logger: logger}
}

// Run simulates all tickers sequentially against a shared cash balance.
// allocations overrides the per-trade allocation for listed tickers; a
// negative override is ignored. Cancellation is honored between ticker
// iterations, never mid-series.
func (s *Simulator) Run(ctx context.Context, tickers []string, allocations map[string]float64) (*Summary, error) {
	cash := s.cfg.StartCash
	var trades []core.Trade
	equityPoints := []float64{cash}

	for _, ticker := range tickers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		bars, err := s.history.History(ctx, ticker, s.cfg.Period, "1d")
		if err != nil {
			s.logger.Warn("backtest history fetch failed",
				zap.String("ticker", ticker),
				zap.Error(err),
			)
			continue
		}
		if len(bars) == 0 {
			continue
		}

		alloc := s.cfg.AllocationPerTrade
		if a, ok := allocations[ticker]; ok && a >= 0 {
			alloc = a
		}

		cash = s.simulateTicker(ticker, bars, alloc, cash, &trades, &equityPoints)
	}

	summary := summarize(trades, equityPoints, s.cfg.StartCash, cash)
	summary.RunID = uuid.NewString()
	summary.StartedAt = time.Now()

	if s.metrics != nil {
		s.metrics.ObserveBacktest()
		for _, t := range trades {
			s.metrics.ObserveTrade(string(t.Action))
		}
	}
	return summary, nil
}

// simulateTicker walks one series through the FLAT/LONG machine and returns
// the updated cash balance.
func (s *Simulator) simulateTicker(ticker string, bars []core.PriceBar, alloc, cash float64, trades *[]core.Trade, equityPoints *[]float64) float64 {
	closes := core.Closes(bars)
	ma, maValid := indicator.RollingMA(closes, s.cfg.MAWindow)

	var entryPrice float64
	var shares int64
	long := false

	sell := func(price float64, reason string) {
		cash += float64(shares) * price
		*trades = append(*trades, core.Trade{
			Ticker: ticker,
			Action: core.ActionSell,
			Price:  price,
			Shares: shares,
			Reason: reason,
		})
		*equityPoints = append(*equityPoints, cash)
		long = false
		entryPrice = 0
		shares = 0
	}

	for i, price := range closes {
		// MA200 warm-up: no decisions until 200 bars have elapsed
		if i < s.cfg.MAWindow {
			continue
		}
		if !maValid[i] {
			continue
		}

		if !long {
			if price > ma[i] {
				size := int64(alloc / price)
				if size <= 0 {
					continue
				}
				entryPrice = price
				shares = size
				long = true
				cash -= float64(size) * price
				*trades = append(*trades, core.Trade{
					Ticker: ticker,
					Action: core.ActionBuy,
					Price:  price,
					Shares: size,
				})
			}
			continue
		}

		// stop-loss takes priority over the trend break
		if price <= entryPrice*(1-s.cfg.StopLossPct) {
			sell(price, "stoploss")
		} else if price < ma[i] {
			sell(price, "ma200_break")
		}
	}

	if long && shares > 0 {
		sell(closes[len(closes)-1], "end")
	}

	return cash
}

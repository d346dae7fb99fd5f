package backtest

import "github.com/kyuwon/tradewind/internal/core"

// PairTrades matches each sell with the most recent unmatched buy for the
// same ticker. The simulator holds at most one open position per ticker, so
// pairing is unambiguous; an orphan sell with no preceding buy is dropped
// from pairing, not an error.
func PairTrades(trades []core.Trade) []core.PairedTrade {
	lastBuys := make(map[string]core.Trade)
	var paired []core.PairedTrade

	for _, tr := range trades {
		switch tr.Action {
		case core.ActionBuy:
			lastBuys[tr.Ticker] = tr
		case core.ActionSell:
			buy, ok := lastBuys[tr.Ticker]
			if !ok {
				continue
			}
			delete(lastBuys, tr.Ticker)
			paired = append(paired, core.PairedTrade{
				Ticker:    tr.Ticker,
				BuyPrice:  buy.Price,
				SellPrice: tr.Price,
				Shares:    tr.Shares,
				PnL:       (tr.Price - buy.Price) * float64(tr.Shares),
				Reason:    tr.Reason,
			})
		}
	}
	return paired
}

// MaxDrawdown scans the equity-point sequence for the largest peak-to-trough
// relative decline, tracking a running peak that only increases. ok is false
// for an empty sequence.
func MaxDrawdown(equityPoints []float64) (float64, bool) {
	if len(equityPoints) == 0 {
		return 0, false
	}
	peak := equityPoints[0]
	var maxDD float64
	for _, e := range equityPoints {
		if e > peak {
			peak = e
		}
		if peak > 0 {
			dd := (peak - e) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD, true
}

// summarize computes the final read-only summary from the trade ledger and
// equity points.
func summarize(trades []core.Trade, equityPoints []float64, startCash, finalCash float64) *Summary {
	paired := PairTrades(trades)

	wins := 0
	for _, p := range paired {
		if p.IsWin() {
			wins++
		}
	}

	summary := &Summary{
		StartCash:    startCash,
		FinalCash:    finalCash,
		TotalProfit:  finalCash - startCash,
		ReturnPct:    (finalCash - startCash) / startCash * 100,
		TradeCount:   len(trades),
		PairCount:    len(paired),
		Wins:         wins,
		Trades:       trades,
		PairedTrades: paired,
	}

	if len(paired) > 0 {
		wr := float64(wins) / float64(len(paired))
		summary.WinRate = &wr
	}
	if dd, ok := MaxDrawdown(equityPoints); ok {
		pct := dd * 100
		summary.MaxDrawdownPct = &pct
	}
	return summary
}

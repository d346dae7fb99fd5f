package backtest

import (
	"time"

	"github.com/kyuwon/tradewind/internal/core"
)

// Summary holds the complete output of one simulation run. It is computed
// once at the end of the run and read-only afterwards.
type Summary struct {
	RunID          string
	StartedAt      time.Time
	StartCash      float64
	FinalCash      float64
	TotalProfit    float64
	ReturnPct      float64
	TradeCount     int
	PairCount      int
	Wins           int
	WinRate        *float64 // nil when no pairs closed
	MaxDrawdownPct *float64 // nil when no equity points recorded
	Trades         []core.Trade
	PairedTrades   []core.PairedTrade
}

// Config holds the simulation parameters.
type Config struct {
	StartCash          float64
	AllocationPerTrade float64 // default per-ticker allocation
	StopLossPct        float64 // fractional decline from entry forcing an exit
	MAWindow           int
	Period             string
}

// DefaultConfig returns the standard simulation parameters.
func DefaultConfig() Config {
	return Config{
		StartCash:          10_000_000,
		AllocationPerTrade: 100_000,
		StopLossPct:        0.10,
		MAWindow:           200,
		Period:             "1y",
	}
}

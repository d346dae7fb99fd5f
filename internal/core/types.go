package core

import "time"

// Grade classifies how strongly a ticker passes the filter chain.
type Grade string

const (
	GradeS Grade = "S"
	GradeA Grade = "A"
	GradeF Grade = "F"

	// GradeError marks a ticker whose data could not be fetched. It is a
	// per-ticker marker so one bad symbol never aborts a batch.
	GradeError Grade = "ERROR"
)

// Action represents a simulated trade action
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

// PriceBar represents one daily OHLCV bar
type PriceBar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// Closes extracts the close column from a bar series.
func Closes(bars []PriceBar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// Fundamentals is the raw fundamentals snapshot for a ticker. Fields come
// straight from the upstream payload: any key may be absent, and values may
// be numbers or malformed strings ("12%", "1,234.5"). The indicator package
// owns all parsing.
type Fundamentals map[string]any

// Quote represents the latest session's prices plus fundamentals
type Quote struct {
	Symbol       string
	Last         float64
	Open         float64
	High         float64
	Low          float64
	Fundamentals Fundamentals
}

// IsValid checks if the quote has required fields
func (q Quote) IsValid() bool {
	return q.Symbol != "" && q.Last > 0
}

// IndicatorBundle holds every indicator computed for one evaluation.
// Nil pointer fields mean "unavailable". Immutable after creation.
type IndicatorBundle struct {
	Last      *float64
	Open      *float64
	High      *float64
	Low       *float64
	MA200     *float64
	RSI14     *float64
	PEG       *float64
	RevGrowth *float64
	GapPct    *float64
	SectorMA  *float64
}

// DemarkTargets is a day-ahead support/resistance estimate derived from the
// previous session's OHLC.
type DemarkTargets struct {
	Pivot      float64
	Support    float64 // buy target
	Resistance float64 // sell target
}

// EvaluationResult is the evaluator's output for one ticker. Never mutated
// after return.
type EvaluationResult struct {
	Ticker     string
	Grade      Grade
	Reasons    []string
	Indicators IndicatorBundle
	Demark     *DemarkTargets
	Err        error // set only when Grade is GradeError
}

// Trade is one entry in the simulated trade ledger. Immutable once appended.
type Trade struct {
	Ticker string
	Action Action
	Price  float64
	Shares int64
	Reason string
}

// PairedTrade matches one buy to the next sell for a ticker.
type PairedTrade struct {
	Ticker    string
	BuyPrice  float64
	SellPrice float64
	Shares    int64
	PnL       float64
	Reason    string
}

// IsWin returns true if the pair closed with a profit
func (p PairedTrade) IsWin() bool {
	return p.PnL > 0
}

// Float64 returns a pointer to v. Convenience for optional indicator fields.
func Float64(v float64) *float64 {
	return &v
}

package evaluator

import (
	"context"
	"fmt"
	"testing"

	"github.com/kyuwon/tradewind/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockHistory struct {
	bars map[string][]core.PriceBar
	errs map[string]error
}

func (m *mockHistory) History(ctx context.Context, ticker, period, interval string) ([]core.PriceBar, error) {
	if err, ok := m.errs[ticker]; ok {
		return nil, err
	}
	return m.bars[ticker], nil
}

func (m *mockHistory) Histories(ctx context.Context, tickers []string, period, interval string) (map[string][]core.PriceBar, error) {
	out := make(map[string][]core.PriceBar)
	for _, t := range tickers {
		out[t] = m.bars[t]
	}
	return out, nil
}

type mockQuotes struct {
	quotes map[string]*core.Quote
	errs   map[string]error
}

func (m *mockQuotes) Quote(ctx context.Context, ticker string) (*core.Quote, error) {
	if err, ok := m.errs[ticker]; ok {
		return nil, err
	}
	if q, ok := m.quotes[ticker]; ok {
		return q, nil
	}
	return nil, core.ErrNoData
}

// risingBars yields n bars climbing gently so the last close sits above the
// long moving average and RSI stays in a normal band.
func risingBars(n int, start float64) []core.PriceBar {
	bars := make([]core.PriceBar, n)
	price := start
	for i := range bars {
		step := 0.1
		if i%2 == 1 {
			step = -0.06 // pullbacks keep RSI in a normal band
		}
		price += step
		bars[i] = core.PriceBar{
			Open: price - 0.05, High: price + 0.5, Low: price - 0.5, Close: price,
		}
	}
	return bars
}

func passingQuote(last float64) *core.Quote {
	return &core.Quote{
		Symbol: "GOOD",
		Last:   last,
		Open:   last - 1,
		High:   last + 1,
		Low:    last - 2,
		Fundamentals: core.Fundamentals{
			"pegRatio":      1.0,
			"revenueGrowth": 0.15,
		},
	}
}

func newTestEvaluator(history *mockHistory, quotes *mockQuotes) *Evaluator {
	return New(history, quotes, Options{Workers: 2})
}

func TestEvaluate_AllConditionsHeldIsS(t *testing.T) {
	bars := risingBars(260, 100)
	last := bars[len(bars)-1].Close + 5 // clear of the MA

	quotes := &mockQuotes{quotes: map[string]*core.Quote{"GOOD": passingQuote(last)}}
	e := newTestEvaluator(&mockHistory{bars: map[string][]core.PriceBar{"GOOD": bars}}, quotes)

	sectorMA := core.Float64(last / 1.10) // gap of 10%, above the 5% floor
	res := e.Evaluate(context.Background(), "GOOD", Input{SectorMA: sectorMA})

	assert.Equal(t, core.GradeS, res.Grade, "reasons: %v", res.Reasons)
	require.NotNil(t, res.Indicators.MA200)
	require.NotNil(t, res.Indicators.PEG)
	require.NotNil(t, res.Indicators.RevGrowth)
	require.NotNil(t, res.Indicators.GapPct)
	require.NotNil(t, res.Demark)
}

func TestEvaluate_SmallGapDowngradesToA(t *testing.T) {
	bars := risingBars(260, 100)
	last := bars[len(bars)-1].Close + 5

	quotes := &mockQuotes{quotes: map[string]*core.Quote{"GOOD": passingQuote(last)}}
	e := newTestEvaluator(&mockHistory{bars: map[string][]core.PriceBar{"GOOD": bars}}, quotes)

	sectorMA := core.Float64(last / 1.02) // only 2% ahead of the sector
	res := e.Evaluate(context.Background(), "GOOD", Input{SectorMA: sectorMA})

	assert.Equal(t, core.GradeA, res.Grade, "reasons: %v", res.Reasons)
	assert.NotEmpty(t, res.Reasons)
}

func TestEvaluate_VIXHaltShortCircuits(t *testing.T) {
	bars := risingBars(260, 100)
	last := bars[len(bars)-1].Close + 5

	quotes := &mockQuotes{quotes: map[string]*core.Quote{"GOOD": passingQuote(last)}}
	e := newTestEvaluator(&mockHistory{bars: map[string][]core.PriceBar{"GOOD": bars}}, quotes)

	res := e.Evaluate(context.Background(), "GOOD", Input{VIX: core.Float64(35)})

	assert.Equal(t, core.GradeF, res.Grade)
	require.Len(t, res.Reasons, 1, "halt must be the only reason")
	assert.Contains(t, res.Reasons[0], "VIX")
}

func TestEvaluate_BelowMAIsCriticalFail(t *testing.T) {
	bars := risingBars(260, 100)
	last := bars[0].Close - 10 // far below the moving average

	q := passingQuote(last)
	quotes := &mockQuotes{quotes: map[string]*core.Quote{"GOOD": q}}
	e := newTestEvaluator(&mockHistory{bars: map[string][]core.PriceBar{"GOOD": bars}}, quotes)

	sectorMA := core.Float64(last / 1.10)
	res := e.Evaluate(context.Background(), "GOOD", Input{SectorMA: sectorMA})

	assert.Equal(t, core.GradeF, res.Grade)
}

func TestEvaluate_MissingPEGIsCriticalFail(t *testing.T) {
	bars := risingBars(260, 100)
	last := bars[len(bars)-1].Close + 5

	q := passingQuote(last)
	delete(q.Fundamentals, "pegRatio")
	quotes := &mockQuotes{quotes: map[string]*core.Quote{"GOOD": q}}
	e := newTestEvaluator(&mockHistory{bars: map[string][]core.PriceBar{"GOOD": bars}}, quotes)

	sectorMA := core.Float64(last / 1.10)
	res := e.Evaluate(context.Background(), "GOOD", Input{SectorMA: sectorMA})

	assert.Equal(t, core.GradeF, res.Grade)
	assert.Contains(t, res.Reasons, "PEG unavailable")
}

func TestEvaluate_MissingMAIsNotCritical(t *testing.T) {
	// only a handful of bars: no MA, but PEG and growth still pass
	bars := risingBars(10, 100)
	last := bars[len(bars)-1].Close

	quotes := &mockQuotes{quotes: map[string]*core.Quote{"GOOD": passingQuote(last)}}
	e := newTestEvaluator(&mockHistory{bars: map[string][]core.PriceBar{"GOOD": bars}}, quotes)

	sectorMA := core.Float64(last / 1.10)
	res := e.Evaluate(context.Background(), "GOOD", Input{SectorMA: sectorMA})

	// trend condition is simply not held: 3 of 5 conditions -> A
	assert.Equal(t, core.GradeA, res.Grade, "reasons: %v", res.Reasons)
	assert.Nil(t, res.Indicators.MA200)
}

func TestEvaluate_QuoteFailureIsGradeError(t *testing.T) {
	quotes := &mockQuotes{errs: map[string]error{"BAD": fmt.Errorf("connection refused")}}
	e := newTestEvaluator(&mockHistory{}, quotes)

	res := e.Evaluate(context.Background(), "BAD", Input{})

	assert.Equal(t, core.GradeError, res.Grade)
	require.Error(t, res.Err)
	require.Len(t, res.Reasons, 1)
	assert.Contains(t, res.Reasons[0], "data error")
}

func TestEvaluate_HistoryFailureDegrades(t *testing.T) {
	quotes := &mockQuotes{quotes: map[string]*core.Quote{"GOOD": passingQuote(100)}}
	history := &mockHistory{errs: map[string]error{"GOOD": fmt.Errorf("timeout")}}
	e := newTestEvaluator(history, quotes)

	res := e.Evaluate(context.Background(), "GOOD", Input{})

	assert.NotEqual(t, core.GradeError, res.Grade, "history failure must not abort")
	assert.Nil(t, res.Indicators.MA200)
	assert.Nil(t, res.Indicators.RSI14)
}

func TestEvaluate_DemarkFallsBackToQuote(t *testing.T) {
	q := passingQuote(100)
	quotes := &mockQuotes{quotes: map[string]*core.Quote{"GOOD": q}}
	e := newTestEvaluator(&mockHistory{}, quotes)

	res := e.Evaluate(context.Background(), "GOOD", Input{})
	require.NotNil(t, res.Demark, "quote OHLC should feed the pivot when history is short")
	assert.Less(t, res.Demark.Support, res.Demark.Resistance)
}

func TestEvaluateBatch(t *testing.T) {
	bars := risingBars(260, 100)
	last := bars[len(bars)-1].Close + 5

	quotes := &mockQuotes{
		quotes: map[string]*core.Quote{"GOOD": passingQuote(last)},
		errs:   map[string]error{"BAD": fmt.Errorf("boom")},
	}
	e := newTestEvaluator(&mockHistory{bars: map[string][]core.PriceBar{"GOOD": bars}}, quotes)

	sectorMA := core.Float64(last / 1.10)
	results := e.EvaluateBatch(context.Background(), []string{"GOOD", "BAD"}, BatchInput{
		SectorMA: map[string]*float64{"GOOD": sectorMA},
	})

	require.Len(t, results, 2)
	assert.Equal(t, core.GradeS, results["GOOD"].Grade)
	assert.Equal(t, core.GradeError, results["BAD"].Grade)
}

// Package recommend asks an LLM backend for allocation percentages and
// parses them out of free text. Absence of a usable answer is a first-class
// value, never an exception path: callers fall back to their heuristics.
package recommend

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kyuwon/tradewind/internal/core"
	"github.com/kyuwon/tradewind/internal/llm"
	"github.com/kyuwon/tradewind/internal/metrics"
	"go.uber.org/zap"
)

const systemPrompt = "You are a conservative portfolio assistant. " +
	"Given technical and fundamental indicators for a stock, recommend what " +
	"percentage of available cash to allocate to it. Answer with a single " +
	"percentage like \"12%\" and one short sentence of reasoning."

// Recommender wraps an LLM client as a recommendation source.
type Recommender struct {
	client  llm.Client
	metrics *metrics.Registry
	logger  *zap.Logger
}

// New creates a Recommender. client may not be nil.
func New(client llm.Client, reg *metrics.Registry, logger *zap.Logger) *Recommender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recommender{client: client, metrics: reg, logger: logger}
}

// Percent asks for an allocation percentage for one evaluated ticker and
// returns it as a fraction in [0, 1]. The error distinguishes quota
// exhaustion (ErrRecommendQuota) from "no opinion" (ErrNoPercentage) and
// transport failures (ErrRecommendFailed).
func (r *Recommender) Percent(ctx context.Context, ev core.EvaluationResult) (float64, error) {
	resp, err := r.client.Complete(ctx, llm.Request{
		System:    systemPrompt,
		Prompt:    singlePrompt(ev),
		MaxTokens: 256,
	})
	if err != nil {
		return 0, r.classify(err)
	}

	pct, err := ParsePercent(resp.Content)
	if err != nil {
		r.observe("no_percentage")
		return 0, err
	}
	r.observe("ok")
	return pct / 100, nil
}

// BulkPercents asks for allocations for a whole batch in one call and
// returns fractional percentages per ticker. Tickers the model skipped are
// simply absent; an empty map with nil error means the model answered but
// produced nothing usable.
func (r *Recommender) BulkPercents(ctx context.Context, evals []core.EvaluationResult, totalCash float64, vix *float64) (map[string]float64, error) {
	resp, err := r.client.Complete(ctx, llm.Request{
		System:    systemPrompt,
		Prompt:    bulkPrompt(evals, totalCash, vix),
		MaxTokens: 2048,
	})
	if err != nil {
		return nil, r.classify(err)
	}

	out := parseBulk(resp.Content, evals, totalCash)
	if len(out) == 0 {
		r.observe("no_percentage")
	} else {
		r.observe("ok")
	}
	return out, nil
}

func (r *Recommender) classify(err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "429") || strings.Contains(msg, "too many") ||
		strings.Contains(msg, "quota") || strings.Contains(msg, "rate limit") {
		r.observe("quota")
		return core.WrapError(core.ErrRecommendQuota, err)
	}
	r.logger.Debug("recommendation request failed", zap.Error(err))
	r.observe("error")
	return core.WrapError(core.ErrRecommendFailed, err)
}

func (r *Recommender) observe(outcome string) {
	if r.metrics != nil {
		r.metrics.ObserveRecommendation(outcome)
	}
}

func singlePrompt(ev core.EvaluationResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Ticker: %s (grade %s)\n", ev.Ticker, ev.Grade)
	writeIndicators(&b, ev.Indicators)
	if len(ev.Reasons) > 0 {
		fmt.Fprintf(&b, "Flags: %s\n", strings.Join(ev.Reasons, "; "))
	}
	b.WriteString("What percentage of available cash should go into this position?")
	return b.String()
}

func bulkPrompt(evals []core.EvaluationResult, totalCash float64, vix *float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Available cash: %.0f\n", totalCash)
	if vix != nil {
		fmt.Fprintf(&b, "VIX: %.1f\n", *vix)
	}
	b.WriteString("Candidates:\n")
	for _, ev := range evals {
		fmt.Fprintf(&b, "- %s (grade %s)", ev.Ticker, ev.Grade)
		if ev.Indicators.RSI14 != nil {
			fmt.Fprintf(&b, " RSI=%.1f", *ev.Indicators.RSI14)
		}
		if ev.Indicators.PEG != nil {
			fmt.Fprintf(&b, " PEG=%.2f", *ev.Indicators.PEG)
		}
		if ev.Indicators.GapPct != nil {
			fmt.Fprintf(&b, " gap=%.1f%%", *ev.Indicators.GapPct)
		}
		b.WriteString("\n")
	}
	b.WriteString("Respond with a JSON array of objects with fields " +
		"\"ticker\" and \"recommended_percent\".")
	return b.String()
}

func writeIndicators(b *strings.Builder, ind core.IndicatorBundle) {
	if ind.Last != nil {
		fmt.Fprintf(b, "Price: %.2f\n", *ind.Last)
	}
	if ind.MA200 != nil {
		fmt.Fprintf(b, "MA200: %.2f\n", *ind.MA200)
	}
	if ind.RSI14 != nil {
		fmt.Fprintf(b, "RSI14: %.1f\n", *ind.RSI14)
	}
	if ind.PEG != nil {
		fmt.Fprintf(b, "PEG: %.2f\n", *ind.PEG)
	}
	if ind.RevGrowth != nil {
		fmt.Fprintf(b, "Revenue growth: %.3f\n", *ind.RevGrowth)
	}
	if ind.GapPct != nil {
		fmt.Fprintf(b, "Gap vs sector: %.2f%%\n", *ind.GapPct)
	}
}

// bulkItem mirrors the JSON shape the bulk prompt requests. The model does
// not always comply, so textual fields are mined as a fallback.
type bulkItem struct {
	Ticker             string  `json:"ticker"`
	Symbol             string  `json:"symbol"`
	RecommendedPercent any     `json:"recommended_percent"`
	RecommendedAmount  float64 `json:"recommended_amount"`
	Explanation        string  `json:"explanation"`
	Notes              string  `json:"notes"`
}

// parseBulk extracts per-ticker percentages from the model output. Accepts a
// JSON array (possibly fenced); an absolute recommended_amount is converted
// against totalCash when the percent field is absent, and textual fields are
// regex-mined as the last resort.
func parseBulk(text string, evals []core.EvaluationResult, totalCash float64) map[string]float64 {
	known := make(map[string]struct{}, len(evals))
	for _, ev := range evals {
		known[strings.ToUpper(ev.Ticker)] = struct{}{}
	}

	out := make(map[string]float64)
	for _, item := range decodeBulkItems(text) {
		ticker := strings.ToUpper(item.Ticker)
		if ticker == "" {
			ticker = strings.ToUpper(item.Symbol)
		}
		if ticker == "" {
			continue
		}
		if _, ok := known[ticker]; !ok {
			continue
		}

		switch v := item.RecommendedPercent.(type) {
		case float64:
			out[ticker] = clampFraction(v / 100)
			continue
		case string:
			if pct, err := ParsePercent(v); err == nil {
				out[ticker] = clampFraction(pct / 100)
				continue
			}
		}
		if item.RecommendedAmount > 0 && totalCash > 0 {
			out[ticker] = clampFraction(item.RecommendedAmount / totalCash)
			continue
		}
		if pct, err := ParsePercent(item.Explanation + "\n" + item.Notes); err == nil {
			out[ticker] = clampFraction(pct / 100)
		}
	}
	return out
}

func decodeBulkItems(text string) []bulkItem {
	// models frequently fence JSON in markdown blocks
	if i := strings.Index(text, "["); i >= 0 {
		if j := strings.LastIndex(text, "]"); j > i {
			var items []bulkItem
			if err := json.Unmarshal([]byte(text[i:j+1]), &items); err == nil {
				return items
			}
		}
	}
	return nil
}

func clampFraction(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 0.9 {
		return 0.9
	}
	return f
}

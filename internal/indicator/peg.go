package indicator

import (
	"math"

	"github.com/kyuwon/tradewind/internal/core"
	"go.uber.org/zap"
)

// Field priority for PEG estimation. Forward PE is preferred over trailing
// variants; the first parseable growth field wins.
var (
	peFields     = []string{"forwardPE", "forwardPE1", "trailingPE", "peRatio"}
	growthFields = []string{
		"earningsQuarterlyGrowth",
		"earningsGrowth",
		"revenueGrowth",
		"earningsEstimateGrowth",
		"earningsGrowthYoY",
		"revenueGrowthYoY",
	}
	revenueFields = []string{
		"revenueGrowth",
		"revenueGrowthYoY",
		"earningsQuarterlyGrowth",
		"earningsGrowth",
		"earningsEstimateGrowth",
	}
)

// CalcPEG extracts or estimates the PEG ratio from a fundamentals snapshot.
// A finite direct pegRatio passes through verbatim. Otherwise the first
// parseable PE-like field is divided by the first parseable growth field on
// the percent scale (growth magnitudes <= 1 are fractional and multiplied by
// 100). The field decisions are recorded on the audit logger, keyed by
// symbol; the log is a side effect only.
func CalcPEG(symbol string, f core.Fundamentals, audit *zap.Logger) (float64, bool) {
	if audit == nil {
		audit = zap.NewNop()
	}
	if f == nil {
		return 0, false
	}

	if raw, present := f["pegRatio"]; present {
		if peg, err := ParseNumeric(raw); err == nil {
			if !math.IsNaN(peg) && !math.IsInf(peg, 0) {
				audit.Debug("peg decision",
					zap.String("symbol", symbol),
					zap.String("used_field", "pegRatio"),
					zap.Float64("value", peg),
				)
				return peg, true
			}
		}
	}

	var pe float64
	peField := ""
	for _, field := range peFields {
		raw, present := f[field]
		if !present || raw == nil {
			continue
		}
		v, err := ParseNumeric(raw)
		if err != nil {
			continue
		}
		pe = v
		peField = field
		break
	}
	if peField == "" || pe <= 0 {
		return 0, false
	}

	for _, field := range growthFields {
		raw, present := f[field]
		if !present || raw == nil {
			continue
		}
		v, err := ParseNumeric(raw)
		if err != nil {
			continue
		}
		growthPct := v
		if math.Abs(v) <= 1 {
			growthPct = v * 100
		}
		if growthPct <= 0 {
			return 0, false
		}
		est := pe / growthPct
		audit.Debug("peg decision",
			zap.String("symbol", symbol),
			zap.String("used_field", "estimated"),
			zap.String("pe_field", peField),
			zap.String("growth_field", field),
			zap.Float64("pe", pe),
			zap.Float64("growth_pct", growthPct),
			zap.Float64("value", est),
		)
		return est, true
	}

	return 0, false
}

// RevenueGrowth scans the growth-like fields in priority order and normalizes
// the first parseable one to a fractional decimal (0.12 means +12%). Values
// with magnitude above 1 are taken as percentage points and divided by 100.
func RevenueGrowth(symbol string, f core.Fundamentals, audit *zap.Logger) (float64, bool) {
	if audit == nil {
		audit = zap.NewNop()
	}
	if f == nil {
		return 0, false
	}
	for _, field := range revenueFields {
		raw, present := f[field]
		if !present || raw == nil {
			continue
		}
		v, err := ParseNumeric(raw)
		if err != nil {
			continue
		}
		note := "decimal"
		if math.Abs(v) > 1 {
			v /= 100
			note = "percent-like, converted"
		}
		audit.Debug("revenue growth decision",
			zap.String("symbol", symbol),
			zap.String("used_field", field),
			zap.Float64("value", v),
			zap.String("note", note),
		)
		return v, true
	}
	return 0, false
}

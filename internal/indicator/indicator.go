// Package indicator provides pure computations over price series and
// fundamentals snapshots. Every function reports availability explicitly
// through a bool return instead of propagating NaN or panicking on short
// input.
package indicator

import "math"

// MovingAverage returns the arithmetic mean of the last window closes.
// ok is false when the series is shorter than window.
func MovingAverage(closes []float64, window int) (float64, bool) {
	if window <= 0 || len(closes) < window {
		return 0, false
	}
	var sum float64
	for _, c := range closes[len(closes)-window:] {
		sum += c
	}
	return sum / float64(window), true
}

// RollingMA computes the simple moving average aligned to the input: out[i]
// holds the mean of closes[i-window+1..i] and valid[i] reports whether a full
// window was available at i.
func RollingMA(closes []float64, window int) (out []float64, valid []bool) {
	out = make([]float64, len(closes))
	valid = make([]bool, len(closes))
	if window <= 0 {
		return out, valid
	}
	var sum float64
	for i, c := range closes {
		sum += c
		if i >= window {
			sum -= closes[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
			valid[i] = true
		}
	}
	return out, valid
}

// RSI computes the Relative Strength Index with Wilder's smoothing: an
// exponential mean of gains and losses with alpha = 1/window, seeded from the
// first delta. Requires at least window deltas. When the average loss is zero
// the result is 100 if there were gains, unavailable for a perfectly flat
// series (0/0 has no meaningful value).
func RSI(closes []float64, window int) (float64, bool) {
	if window <= 0 || len(closes) < window+1 {
		return 0, false
	}

	alpha := 1.0 / float64(window)
	var avgGain, avgLoss float64
	for i := 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		var gain, loss float64
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		if i == 1 {
			avgGain = gain
			avgLoss = loss
			continue
		}
		avgGain += alpha * (gain - avgGain)
		avgLoss += alpha * (loss - avgLoss)
	}

	if avgLoss == 0 {
		if avgGain == 0 {
			return 0, false
		}
		return 100, true
	}

	rs := avgGain / avgLoss
	rsi := 100 - 100/(1+rs)
	if math.IsNaN(rsi) || math.IsInf(rsi, 0) {
		return 0, false
	}
	return rsi, true
}

// GapVsSector returns the percentage divergence of a price from the sector's
// mean trend level: (price/sectorMean - 1) * 100. ok is false when the
// denominator is zero.
func GapVsSector(currentPrice, sectorMeanMA float64) (float64, bool) {
	if sectorMeanMA == 0 {
		return 0, false
	}
	return (currentPrice/sectorMeanMA - 1) * 100, true
}

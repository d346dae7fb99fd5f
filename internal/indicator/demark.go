package indicator

import "github.com/kyuwon/tradewind/internal/core"

// Demark computes day-ahead pivot targets from the previous session's OHLC
// using the direction-dependent weighting: the dominant side of the session
// (close vs open) counts double. Resistance is the sell target, support the
// buy target.
func Demark(prevOpen, prevHigh, prevLow, prevClose float64) core.DemarkTargets {
	var pivot float64
	switch {
	case prevClose > prevOpen:
		pivot = (2*prevHigh + prevLow + prevClose) / 4
	case prevClose < prevOpen:
		pivot = (prevHigh + 2*prevLow + prevClose) / 4
	default:
		pivot = (prevHigh + prevLow + 2*prevClose) / 4
	}
	return core.DemarkTargets{
		Pivot:      pivot,
		Support:    2*pivot - prevHigh,
		Resistance: 2*pivot - prevLow,
	}
}

// DemarkHLC is the simplified variant for when the previous open is not
// known: equal High+Low+Close weighting, no direction branch.
func DemarkHLC(prevHigh, prevLow, prevClose float64) core.DemarkTargets {
	x := prevHigh + prevLow + prevClose
	pivot := x / 4
	return core.DemarkTargets{
		Pivot:      pivot,
		Support:    2*pivot - prevHigh,
		Resistance: 2*pivot - prevLow,
	}
}

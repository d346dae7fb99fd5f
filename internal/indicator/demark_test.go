package indicator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDemark_UpDay(t *testing.T) {
	// close > open: high counts double
	d := Demark(100, 110, 95, 105)
	pivot := (2*110.0 + 95 + 105) / 4
	assert.InDelta(t, pivot, d.Pivot, 1e-9)
	assert.InDelta(t, 2*pivot-110, d.Support, 1e-9)
	assert.InDelta(t, 2*pivot-95, d.Resistance, 1e-9)
}

func TestDemark_DownDay(t *testing.T) {
	// close < open: low counts double
	d := Demark(105, 110, 95, 100)
	pivot := (110.0 + 2*95 + 100) / 4
	assert.InDelta(t, pivot, d.Pivot, 1e-9)
	assert.InDelta(t, 2*pivot-110, d.Support, 1e-9)
	assert.InDelta(t, 2*pivot-95, d.Resistance, 1e-9)
}

func TestDemark_FlatDay(t *testing.T) {
	// close == open: close counts double
	d := Demark(100, 110, 95, 100)
	pivot := (110.0 + 95 + 2*100) / 4
	assert.InDelta(t, pivot, d.Pivot, 1e-9)
}

func TestDemark_SupportBelowResistance(t *testing.T) {
	d := Demark(100, 110, 95, 105)
	assert.Less(t, d.Support, d.Resistance)
}

func TestDemarkHLC(t *testing.T) {
	d := DemarkHLC(110, 95, 105)
	pivot := (110.0 + 95 + 105) / 4
	assert.InDelta(t, pivot, d.Pivot, 1e-9)
	assert.InDelta(t, 2*pivot-110, d.Support, 1e-9)
	assert.InDelta(t, 2*pivot-95, d.Resistance, 1e-9)
}

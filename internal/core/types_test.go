package core

import "testing"

func TestCloses(t *testing.T) {
	bars := []PriceBar{
		{Close: 1}, {Close: 2}, {Close: 3},
	}
	closes := Closes(bars)
	if len(closes) != 3 || closes[0] != 1 || closes[2] != 3 {
		t.Errorf("unexpected closes: %v", closes)
	}

	if got := Closes(nil); len(got) != 0 {
		t.Errorf("expected empty slice for nil bars, got %v", got)
	}
}

func TestQuote_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		quote Quote
		want  bool
	}{
		{"valid", Quote{Symbol: "AAPL", Last: 150}, true},
		{"no symbol", Quote{Last: 150}, false},
		{"zero price", Quote{Symbol: "AAPL"}, false},
		{"negative price", Quote{Symbol: "AAPL", Last: -1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.quote.IsValid(); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPairedTrade_IsWin(t *testing.T) {
	if (PairedTrade{PnL: 10}).IsWin() != true {
		t.Error("positive PnL should be a win")
	}
	if (PairedTrade{PnL: 0}).IsWin() {
		t.Error("flat PnL is not a win")
	}
	if (PairedTrade{PnL: -10}).IsWin() {
		t.Error("negative PnL is not a win")
	}
}

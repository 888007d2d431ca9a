package calculator

import (
	"testing"

	"StalkMarket/internal/model"
)

func TestProfit(t *testing.T) {
	tests := []struct {
		name      string
		buy       model.Buy
		observed  int64
		wantUnit  int64
		wantTotal int64
	}{
		{"gain", model.Buy{Price: 100, Quantity: 10}, 120, 20, 200},
		{"loss", model.Buy{Price: 100, Quantity: 10}, 80, -20, -200},
		{"flat", model.Buy{Price: 95, Quantity: 4000}, 95, 0, 0},
		{"spike", model.Buy{Price: 92, Quantity: 3000}, 605, 513, 1539000},
	}
	for _, tt := range tests {
		unit, total := Profit(tt.buy, tt.observed)
		if unit != tt.wantUnit || total != tt.wantTotal {
			t.Errorf("%s: got (%d, %d), want (%d, %d)", tt.name, unit, total, tt.wantUnit, tt.wantTotal)
		}
	}
}

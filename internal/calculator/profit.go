package calculator

import "StalkMarket/internal/model"

// Profit returns the gain of selling at observed against buy, per unit and in total.
// Losses come back negative.
func Profit(buy model.Buy, observed int64) (perUnit, total int64) {
	perUnit = observed - buy.Price
	return perUnit, perUnit * buy.Quantity
}

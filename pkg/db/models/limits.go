package models

import (
	"math"

	"github.com/shopspring/decimal"
)

// Column ranges. Ids are BIGINT, quantities INTEGER, prices NUMERIC(10,2)
// and order totals NUMERIC(12,2).
const (
	MaxID       uint64 = math.MaxInt64
	MaxQuantity        = math.MaxInt32
	MoneyScale         = 2
)

var (
	MaxPrice = decimal.RequireFromString("99999999.99")
	MaxTotal = decimal.RequireFromString("9999999999.99")
)

// FitsMoney reports whether v has at most two decimals and is within max.
func FitsMoney(v, max decimal.Decimal) bool {
	return v.Equal(v.Round(MoneyScale)) && v.Abs().LessThanOrEqual(max)
}

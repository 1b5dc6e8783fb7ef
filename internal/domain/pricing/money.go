package pricing

import (
	"github.com/leekchan/accounting"
	"github.com/shopspring/decimal"
)

var brl = accounting.Accounting{
	Symbol:    "R$ ",
	Precision: 2,
	Thousand:  ".",
	Decimal:   ",",
}

// 4990 -> "R$ 49,90"
func FormatBRL(cents int64) string {
	ac := brl
	return ac.FormatMoneyDecimal(decimal.New(cents, -2))
}

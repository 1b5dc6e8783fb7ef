package pricing

const (
	//この金額以上で送料無料（R$150,00）
	DefaultFreeShippingThreshold int64 = 15000
	//定額送料（R$15,00）
	DefaultFlatShippingFee int64 = 1500
)

type Line struct {
	UnitPrice int64
	Quantity  int64
}

type Totals struct {
	Subtotal int64 `json:"subtotal"`
	Shipping int64 `json:"shipping"`
	Total    int64 `json:"total"`
}

// 送料ルール（重量・距離は見ない）
type Policy struct {
	FreeShippingThreshold int64
	FlatShippingFee       int64
}

func DefaultPolicy() Policy {
	return Policy{
		FreeShippingThreshold: DefaultFreeShippingThreshold,
		FlatShippingFee:       DefaultFlatShippingFee,
	}
}

func (p Policy) Compute(lines []Line) Totals {
	var subtotal int64
	for _, l := range lines {
		subtotal += l.UnitPrice * l.Quantity
	}

	shipping := p.FlatShippingFee
	if subtotal >= p.FreeShippingThreshold {
		shipping = 0
	}

	return Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		Total:    subtotal + shipping,
	}
}

func ComputeTotals(lines []Line) Totals {
	return DefaultPolicy().Compute(lines)
}

package order

import "github.com/shopspring/decimal"

// ShippingPolicy is a flat fee waived once the subtotal reaches FreeThreshold.
type ShippingPolicy struct {
	FreeThreshold decimal.Decimal
	Fee           decimal.Decimal
}

// DefaultShippingPolicy ships free from 100 and charges 10 below that.
func DefaultShippingPolicy() ShippingPolicy {
	return ShippingPolicy{
		FreeThreshold: decimal.NewFromInt(100),
		Fee:           decimal.NewFromInt(10),
	}
}

// Totals are tax-free: Total is Subtotal plus Shipping.
type Totals struct {
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Total    decimal.Decimal
}

// ShippingFor returns the shipping cost for a subtotal.
func (p ShippingPolicy) ShippingFor(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(p.FreeThreshold) {
		return decimal.Zero
	}
	return p.Fee
}

func ComputeTotals(items []Item, policy ShippingPolicy) Totals {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	shipping := policy.ShippingFor(subtotal)
	return Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		Total:    subtotal.Add(shipping),
	}
}

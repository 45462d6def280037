package api

import "github.com/shopspring/decimal"

// CouponType distinguishes flat-amount coupons from percentage coupons.
type CouponType string

const (
	CouponFlat    CouponType = "flat"
	CouponPercent CouponType = "percent"
)

// Coupon is one entry of a coupon table.
//
// For CouponFlat, Value is an amount in rupees subtracted from the
// subtotal. For CouponPercent, Value is a percentage of the subtotal.
type Coupon struct {
	Code  string
	Type  CouponType
	Value decimal.Decimal
}

// CouponTable maps coupon codes to their definitions.
// Lookup is case-sensitive; codes are stored uppercase by convention.
type CouponTable map[string]Coupon

// FeeComponent is one named line item of the fee schedule.
type FeeComponent struct {
	Name   string
	Amount decimal.Decimal
}

// FeeSchedule is the ordered list of fee components summed into the
// subtotal. It is injected into the pricing engine at construction so
// tests can substitute their own schedules.
type FeeSchedule []FeeComponent

// Subtotal returns the sum of all components.
func (fs FeeSchedule) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, c := range fs {
		sum = sum.Add(c.Amount)
	}
	return sum
}

// PricingQuote is the derived price for the current coupon selection.
//
// Invariants:
//   - Discount <= Subtotal
//   - Total = Subtotal - Discount
//   - AppliedCoupon is empty when no coupon is applied.
type PricingQuote struct {
	Subtotal      decimal.Decimal
	Discount      decimal.Decimal
	Total         decimal.Decimal
	AppliedCoupon string
}

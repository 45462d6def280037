// Package pricing computes the payable amount for an application from
// an injected fee schedule and coupon table. It has no knowledge of
// payment or persistence; it only produces the number the payment
// orchestrator later trusts.
package pricing

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/globalminds/visaflow/pkg/api"
)

// Engine derives PricingQuotes for one wizard session.
//
// At most one coupon is applied at a time; applying a new coupon
// replaces the previous one, never stacks. The engine can be frozen for
// the duration of a payment attempt so the amount the applicant was
// shown cannot change underneath an open checkout.
type Engine struct {
	mu       sync.Mutex
	schedule api.FeeSchedule
	coupons  api.CouponTable
	applied  string
	frozen   bool
}

// New creates an Engine for the given schedule and coupon table.
// Nil arguments fall back to DefaultSchedule / DefaultCoupons.
func New(schedule api.FeeSchedule, coupons api.CouponTable) *Engine {
	if schedule == nil {
		schedule = DefaultSchedule()
	}
	if coupons == nil {
		coupons = DefaultCoupons()
	}
	return &Engine{schedule: schedule, coupons: coupons}
}

// Quote returns the quote for the currently applied coupon.
func (e *Engine) Quote() api.PricingQuote {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.quoteLocked()
}

// ApplyCoupon applies the given code, replacing any previous coupon.
// Unknown codes return ErrInvalidCoupon and leave the quote unchanged.
// While the engine is frozen, ErrQuoteFrozen is returned instead.
func (e *Engine) ApplyCoupon(code string) (api.PricingQuote, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.frozen {
		return e.quoteLocked(), api.ErrQuoteFrozen
	}
	if _, ok := e.coupons[code]; !ok {
		return e.quoteLocked(), api.ErrInvalidCoupon
	}
	e.applied = code
	return e.quoteLocked(), nil
}

// ClearCoupon resets the discount to zero.
func (e *Engine) ClearCoupon() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.frozen {
		return api.ErrQuoteFrozen
	}
	e.applied = ""
	return nil
}

// Freeze blocks coupon mutation until Unfreeze. Called by the payment
// orchestrator while a checkout is open.
func (e *Engine) Freeze() {
	e.mu.Lock()
	e.frozen = true
	e.mu.Unlock()
}

// Unfreeze lifts a previous Freeze.
func (e *Engine) Unfreeze() {
	e.mu.Lock()
	e.frozen = false
	e.mu.Unlock()
}

// Schedule returns the fee schedule the engine was built with.
func (e *Engine) Schedule() api.FeeSchedule {
	return e.schedule
}

func (e *Engine) quoteLocked() api.PricingQuote {
	subtotal := e.schedule.Subtotal()
	discount := decimal.Zero

	if e.applied != "" {
		c := e.coupons[e.applied]
		switch c.Type {
		case api.CouponPercent:
			discount = subtotal.Mul(c.Value).Div(decimal.NewFromInt(100)).Round(0)
		case api.CouponFlat:
			discount = c.Value
		}
		if discount.GreaterThan(subtotal) {
			discount = subtotal
		}
	}

	return api.PricingQuote{
		Subtotal:      subtotal,
		Discount:      discount,
		Total:         subtotal.Sub(discount),
		AppliedCoupon: e.applied,
	}
}

// DefaultSchedule is the production fee schedule, in rupees.
func DefaultSchedule() api.FeeSchedule {
	return api.FeeSchedule{
		{Name: "Application Processing Fee", Amount: decimal.NewFromInt(5000)},
		{Name: "Document Verification", Amount: decimal.NewFromInt(2000)},
		{Name: "Counselor Support", Amount: decimal.NewFromInt(3000)},
	}
}

// DefaultCoupons is the production coupon table.
func DefaultCoupons() api.CouponTable {
	return api.CouponTable{
		"GMI10":    {Code: "GMI10", Type: api.CouponPercent, Value: decimal.NewFromInt(10)},
		"GMI500":   {Code: "GMI500", Type: api.CouponFlat, Value: decimal.NewFromInt(500)},
		"WELCOME5": {Code: "WELCOME5", Type: api.CouponPercent, Value: decimal.NewFromInt(5)},
	}
}

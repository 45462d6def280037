package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/globalminds/visaflow/pkg/api"
)

func TestQuoteWithoutCoupon(t *testing.T) {
	t.Parallel()

	e := New(nil, nil)
	q := e.Quote()

	require.True(t, q.Subtotal.Equal(decimal.NewFromInt(10000)), "subtotal should be 10000, got %s", q.Subtotal)
	require.True(t, q.Discount.IsZero())
	require.True(t, q.Total.Equal(decimal.NewFromInt(10000)))
	require.Empty(t, q.AppliedCoupon)
}

func TestUnknownCouponLeavesQuoteUnchanged(t *testing.T) {
	t.Parallel()

	e := New(nil, nil)
	q, err := e.ApplyCoupon("NOPE")

	require.ErrorIs(t, err, api.ErrInvalidCoupon)
	require.True(t, q.Discount.IsZero())
	require.True(t, q.Total.Equal(decimal.NewFromInt(10000)))
	require.Empty(t, q.AppliedCoupon)
}

func TestPercentCoupon(t *testing.T) {
	t.Parallel()

	e := New(nil, nil)
	q, err := e.ApplyCoupon("GMI10")

	require.NoError(t, err)
	require.True(t, q.Discount.Equal(decimal.NewFromInt(1000)), "10%% of 10000 is 1000, got %s", q.Discount)
	require.True(t, q.Total.Equal(decimal.NewFromInt(9000)))
	require.Equal(t, "GMI10", q.AppliedCoupon)
	require.True(t, q.Discount.LessThanOrEqual(q.Subtotal))
}

func TestPercentCouponRoundsToWholeRupees(t *testing.T) {
	t.Parallel()

	schedule := api.FeeSchedule{{Name: "Fee", Amount: decimal.NewFromInt(9995)}}
	coupons := api.CouponTable{
		"P3": {Code: "P3", Type: api.CouponPercent, Value: decimal.NewFromInt(3)},
	}
	e := New(schedule, coupons)

	q, err := e.ApplyCoupon("P3")
	require.NoError(t, err)
	// 3% of 9995 = 299.85, rounds half-up to 300.
	require.True(t, q.Discount.Equal(decimal.NewFromInt(300)), "got %s", q.Discount)
	require.True(t, q.Total.Equal(decimal.NewFromInt(9695)))
}

func TestFlatCouponCappedAtSubtotal(t *testing.T) {
	t.Parallel()

	schedule := api.FeeSchedule{{Name: "Fee", Amount: decimal.NewFromInt(400)}}
	coupons := api.CouponTable{
		"BIG": {Code: "BIG", Type: api.CouponFlat, Value: decimal.NewFromInt(500)},
	}
	e := New(schedule, coupons)

	q, err := e.ApplyCoupon("BIG")
	require.NoError(t, err)
	require.True(t, q.Discount.Equal(decimal.NewFromInt(400)))
	require.True(t, q.Total.IsZero())
}

func TestCouponReplacesNotStacks(t *testing.T) {
	t.Parallel()

	e := New(nil, nil)

	_, err := e.ApplyCoupon("GMI500")
	require.NoError(t, err)

	q, err := e.ApplyCoupon("GMI10")
	require.NoError(t, err)

	// Only GMI10's discount applies, never 500 + 1000.
	require.True(t, q.Discount.Equal(decimal.NewFromInt(1000)), "got %s", q.Discount)
	require.Equal(t, "GMI10", q.AppliedCoupon)
}

func TestClearCoupon(t *testing.T) {
	t.Parallel()

	e := New(nil, nil)
	_, err := e.ApplyCoupon("GMI10")
	require.NoError(t, err)

	require.NoError(t, e.ClearCoupon())

	q := e.Quote()
	require.True(t, q.Discount.IsZero())
	require.True(t, q.Total.Equal(decimal.NewFromInt(10000)))
	require.Empty(t, q.AppliedCoupon)
}

func TestFrozenEngineRejectsCouponMutation(t *testing.T) {
	t.Parallel()

	e := New(nil, nil)
	_, err := e.ApplyCoupon("GMI10")
	require.NoError(t, err)

	e.Freeze()

	_, err = e.ApplyCoupon("GMI500")
	require.ErrorIs(t, err, api.ErrQuoteFrozen)
	require.ErrorIs(t, e.ClearCoupon(), api.ErrQuoteFrozen)

	// The quote is still readable and unchanged while frozen.
	q := e.Quote()
	require.Equal(t, "GMI10", q.AppliedCoupon)
	require.True(t, q.Total.Equal(decimal.NewFromInt(9000)))

	e.Unfreeze()
	_, err = e.ApplyCoupon("GMI500")
	require.NoError(t, err)
}

func TestInvalidCouponDoesNotDisplaceAppliedOne(t *testing.T) {
	t.Parallel()

	e := New(nil, nil)
	_, err := e.ApplyCoupon("GMI10")
	require.NoError(t, err)

	q, err := e.ApplyCoupon("NOPE")
	require.ErrorIs(t, err, api.ErrInvalidCoupon)
	require.Equal(t, "GMI10", q.AppliedCoupon)
	require.True(t, q.Total.Equal(decimal.NewFromInt(9000)))
}

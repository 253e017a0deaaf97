package leads

import "github.com/caregate/lead-platform/internal/hospitals"

// Breakdown is the derived money state of a lead. Amounts in paise.
type Breakdown struct {
	Discount       int64
	DiscountedCost int64
	Revenue        int64
}

// Calculator derives the money fields from a lead's inputs. Pure and
// deterministic; no I/O.
type Calculator struct {
	// CommissionPercent is the platform's share of the discounted cost.
	CommissionPercent int
}

// NewCalculator returns a calculator with the standard 15% commission.
func NewCalculator() Calculator {
	return Calculator{CommissionPercent: 15}
}

// Compute derives discount, discounted cost and revenue.
//
//   - originalCost nil: all outputs zero, not an error
//   - hospital nil: discount is zero regardless of hasCard
//   - negative cost: rejected with ErrInvalidCost before any computation
//
// Rounding is half away from zero on both the discount and the commission.
func (c Calculator) Compute(originalCost *int64, hasCard bool, hospital *hospitals.Hospital) (Breakdown, error) {
	if originalCost == nil {
		return Breakdown{}, nil
	}
	cost := *originalCost
	if cost < 0 {
		return Breakdown{}, ErrInvalidCost
	}

	var discount int64
	if hasCard && hospital != nil {
		discount = roundPercent(cost, int64(hospital.DiscountPercent))
	}

	discounted := cost - discount
	revenue := roundPercent(discounted, int64(c.CommissionPercent))

	return Breakdown{
		Discount:       discount,
		DiscountedCost: discounted,
		Revenue:        revenue,
	}, nil
}

// roundPercent computes amount*percent/100 rounded half away from zero,
// in integer arithmetic.
func roundPercent(amount, percent int64) int64 {
	return (amount*percent + 50) / 100
}

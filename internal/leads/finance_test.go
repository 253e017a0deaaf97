package leads

import (
	"errors"
	"testing"

	"github.com/caregate/lead-platform/internal/hospitals"
)

func int64p(v int64) *int64 { return &v }

func TestComputeWithCardAndHospital(t *testing.T) {
	calc := NewCalculator()
	hospital := &hospitals.Hospital{ID: "hosp-1", DiscountPercent: 20}

	got, err := calc.Compute(int64p(100000), true, hospital)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if got.Discount != 20000 {
		t.Errorf("Discount = %d, want 20000", got.Discount)
	}
	if got.DiscountedCost != 80000 {
		t.Errorf("DiscountedCost = %d, want 80000", got.DiscountedCost)
	}
	if got.Revenue != 12000 {
		t.Errorf("Revenue = %d, want 12000", got.Revenue)
	}
}

func TestComputeNoCardNoDiscount(t *testing.T) {
	calc := NewCalculator()
	hospital := &hospitals.Hospital{ID: "hosp-1", DiscountPercent: 20}

	got, err := calc.Compute(int64p(100000), false, hospital)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if got.Discount != 0 {
		t.Errorf("Discount = %d, want 0 without card", got.Discount)
	}
	if got.DiscountedCost != 100000 {
		t.Errorf("DiscountedCost = %d, want 100000", got.DiscountedCost)
	}
	if got.Revenue != 15000 {
		t.Errorf("Revenue = %d, want 15000", got.Revenue)
	}
}

func TestComputeCardWithoutHospital(t *testing.T) {
	calc := NewCalculator()

	got, err := calc.Compute(int64p(50000), true, nil)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if got.Discount != 0 {
		t.Errorf("Discount = %d, want 0 without a hospital", got.Discount)
	}
	if got.Revenue != 7500 {
		t.Errorf("Revenue = %d, want 7500", got.Revenue)
	}
}

func TestComputeNilCostIsZeroNotError(t *testing.T) {
	calc := NewCalculator()

	got, err := calc.Compute(nil, true, &hospitals.Hospital{DiscountPercent: 20})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if got != (Breakdown{}) {
		t.Errorf("expected zero breakdown, got %+v", got)
	}
}

func TestComputeNegativeCostRejected(t *testing.T) {
	calc := NewCalculator()

	_, err := calc.Compute(int64p(-1), false, nil)
	if !errors.Is(err, ErrInvalidCost) {
		t.Fatalf("expected ErrInvalidCost, got %v", err)
	}
}

func TestComputeRoundsHalfAwayFromZero(t *testing.T) {
	calc := NewCalculator()
	hospital := &hospitals.Hospital{DiscountPercent: 33}

	// 33% of 101 = 33.33 -> 33; discounted 68; 15% of 68 = 10.2 -> 10.
	got, err := calc.Compute(int64p(101), true, hospital)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if got.Discount != 33 {
		t.Errorf("Discount = %d, want 33", got.Discount)
	}
	if got.Revenue != 10 {
		t.Errorf("Revenue = %d, want 10", got.Revenue)
	}

	// 15% of 10 = 1.5 rounds up to 2.
	got, err = calc.Compute(int64p(10), false, nil)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if got.Revenue != 2 {
		t.Errorf("Revenue = %d, want 2 (half rounds away from zero)", got.Revenue)
	}
}

func TestComputeZeroCost(t *testing.T) {
	calc := NewCalculator()

	got, err := calc.Compute(int64p(0), true, &hospitals.Hospital{DiscountPercent: 20})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if got != (Breakdown{}) {
		t.Errorf("expected zero breakdown for zero cost, got %+v", got)
	}
}

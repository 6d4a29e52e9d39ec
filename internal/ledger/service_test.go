// Ledger tests exercise the non-negative balance invariant over a real
// SQLite store.
package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rf-baldi/BACKEND-SISTEMA-LAR-MARIA-DE-NAZAR/internal/db"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	d, err := db.Open(context.Background(), t.TempDir()+"/test.db")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return &Service{DB: d}
}

func distribution(qty int64) DistributionInput {
	return DistributionInput{
		FamilyID:         "fam-1",
		FamilyName:       "Silva",
		PickupPersonName: "Ana",
		Quantity:         qty,
	}
}

// TestDonateThenDistributeScenario walks the canonical intake/disbursement
// sequence: 20+5 donated, 25 distributed, then 1 more is refused with
// available 0.
func TestDonateThenDistributeScenario(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	if _, err := s.RecordDonation(ctx, DonationInput{ResponsibleName: "Maria", Quantity: 20}); err != nil {
		t.Fatalf("RecordDonation: %v", err)
	}
	if _, err := s.RecordDonation(ctx, DonationInput{ResponsibleName: "João", Quantity: 5}); err != nil {
		t.Fatalf("RecordDonation: %v", err)
	}
	if bal, err := s.StockBalance(ctx); err != nil || bal != 25 {
		t.Fatalf("StockBalance=%d err=%v, want 25", bal, err)
	}

	if _, err := s.RecordDistribution(ctx, distribution(25)); err != nil {
		t.Fatalf("RecordDistribution(25): %v", err)
	}
	if bal, err := s.StockBalance(ctx); err != nil || bal != 0 {
		t.Fatalf("StockBalance=%d err=%v, want 0", bal, err)
	}

	_, err := s.RecordDistribution(ctx, distribution(1))
	var insufficient *InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if insufficient.Available != 0 {
		t.Fatalf("expected available 0, got %d", insufficient.Available)
	}
}

// TestBalanceNeverNegative refuses any disbursement beyond stock and
// leaves the balance untouched.
func TestBalanceNeverNegative(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	_, err := s.RecordDistribution(ctx, distribution(1))
	var insufficient *InsufficientStockError
	if !errors.As(err, &insufficient) || insufficient.Available != 0 {
		t.Fatalf("empty ledger should refuse with available 0, got %v", err)
	}

	if _, err := s.RecordDonation(ctx, DonationInput{ResponsibleName: "Maria", Quantity: 3}); err != nil {
		t.Fatalf("RecordDonation: %v", err)
	}
	if _, err := s.RecordDistribution(ctx, distribution(4)); err == nil {
		t.Fatalf("expected refusal")
	}
	if bal, _ := s.StockBalance(ctx); bal != 3 {
		t.Fatalf("refused disbursement must not change balance, got %d", bal)
	}
}

// TestConcurrentDistributions races two disbursements that cannot both be
// satisfied: exactly one must succeed and the final balance must reflect
// only the winner.
func TestConcurrentDistributions(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	if _, err := s.RecordDonation(ctx, DonationInput{ResponsibleName: "Maria", Quantity: 10}); err != nil {
		t.Fatalf("RecordDonation: %v", err)
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.RecordDistribution(ctx, distribution(6))
		}(i)
	}
	wg.Wait()

	var succeeded, refused int
	for _, err := range errs {
		var insufficient *InsufficientStockError
		switch {
		case err == nil:
			succeeded++
		case errors.As(err, &insufficient):
			refused++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 || refused != 1 {
		t.Fatalf("want exactly one winner, got succeeded=%d refused=%d", succeeded, refused)
	}
	if bal, err := s.StockBalance(ctx); err != nil || bal != 4 {
		t.Fatalf("StockBalance=%d err=%v, want 4", bal, err)
	}
}

// TestStockBalanceIdempotentRead reads the balance twice with no writes
// in between.
func TestStockBalanceIdempotentRead(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	if _, err := s.RecordDonation(ctx, DonationInput{ResponsibleName: "Maria", Quantity: 7}); err != nil {
		t.Fatalf("RecordDonation: %v", err)
	}
	a, err := s.StockBalance(ctx)
	if err != nil {
		t.Fatalf("StockBalance: %v", err)
	}
	b, err := s.StockBalance(ctx)
	if err != nil {
		t.Fatalf("StockBalance: %v", err)
	}
	if a != b {
		t.Fatalf("balance reads differ: %d vs %d", a, b)
	}
}

// TestValidation rejects missing required fields before any store access.
func TestValidation(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	var verr *ValidationError
	if _, err := s.RecordDonation(ctx, DonationInput{Quantity: 1}); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, err := s.RecordDonation(ctx, DonationInput{ResponsibleName: "Maria", Quantity: 0}); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, err := s.RecordDistribution(ctx, DistributionInput{FamilyName: "Silva", PickupPersonName: "Ana", Quantity: 1}); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, err := s.RecordDistribution(ctx, DistributionInput{FamilyID: "f", FamilyName: "Silva", PickupPersonName: "Ana", Quantity: -2}); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

// TestSummaryStats aggregates totals and the recent distribution window.
func TestSummaryStats(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	if err := s.DB.CreateFamily(ctx, &db.Family{Name: "Silva"}); err != nil {
		t.Fatalf("CreateFamily: %v", err)
	}
	if _, err := s.RecordDonation(ctx, DonationInput{ResponsibleName: "Maria", Quantity: 30}); err != nil {
		t.Fatalf("RecordDonation: %v", err)
	}
	for i := 0; i < 6; i++ {
		if _, err := s.RecordDistribution(ctx, distribution(2)); err != nil {
			t.Fatalf("RecordDistribution: %v", err)
		}
	}

	st, err := s.SummaryStats(ctx)
	if err != nil {
		t.Fatalf("SummaryStats: %v", err)
	}
	if st.TotalFamilies != 1 || st.TotalDonations != 30 || st.TotalDistributions != 12 {
		t.Fatalf("unexpected totals: %+v", st)
	}
	if st.AvailableBaskets != 18 {
		t.Fatalf("expected 18 available, got %d", st.AvailableBaskets)
	}
	if len(st.RecentDistributions) != 5 {
		t.Fatalf("expected 5 recent distributions, got %d", len(st.RecentDistributions))
	}
}

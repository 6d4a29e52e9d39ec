package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/rf-baldi/BACKEND-SISTEMA-LAR-MARIA-DE-NAZAR/internal/db"
)

// recentDistributionCount is how many recent disbursements the dashboard
// summary carries.
const recentDistributionCount = 5

// Service exposes the ledger operations. It owns the donation and
// distribution rows exclusively; no other component writes them.
type Service struct {
	DB *db.DB
}

// DonationInput is the caller-supplied portion of a donation record.
type DonationInput struct {
	ResponsibleName string
	CPF             string
	Phone           string
	Quantity        int64
	Type            string
}

// DistributionInput is the caller-supplied portion of a distribution
// record. Date of zero means "now". FamilyID is informational; the
// ledger never checks it against the family registry.
type DistributionInput struct {
	FamilyID         string
	FamilyName       string
	PickupPersonName string
	Quantity         int64
	Date             int64
}

// Stats aggregates the dashboard numbers.
type Stats struct {
	TotalFamilies       int64
	TotalDonations      int64
	TotalDistributions  int64
	AvailableBaskets    int64
	RecentDistributions []db.Distribution
}

// RecordDonation validates and durably records a basket intake.
func (s *Service) RecordDonation(ctx context.Context, in DonationInput) (*db.Donation, error) {
	if strings.TrimSpace(in.ResponsibleName) == "" {
		return nil, &ValidationError{Field: "responsibleName"}
	}
	if in.Quantity <= 0 {
		return nil, &ValidationError{Field: "quantity"}
	}
	dn := &db.Donation{
		ResponsibleName: strings.TrimSpace(in.ResponsibleName),
		CPF:             strings.TrimSpace(in.CPF),
		Phone:           strings.TrimSpace(in.Phone),
		Quantity:        in.Quantity,
		Type:            strings.TrimSpace(in.Type),
	}
	if err := s.DB.CreateDonation(ctx, dn); err != nil {
		return nil, fmt.Errorf("create donation: %w", err)
	}
	return dn, nil
}

// RecordDistribution validates and durably records a basket disbursement.
// The stock check and the insert are one atomic store operation; when the
// requested quantity exceeds the balance the record is refused with
// InsufficientStockError and nothing is written. There is no partial
// fulfillment.
func (s *Service) RecordDistribution(ctx context.Context, in DistributionInput) (*db.Distribution, error) {
	switch {
	case strings.TrimSpace(in.FamilyID) == "":
		return nil, &ValidationError{Field: "familyId"}
	case strings.TrimSpace(in.FamilyName) == "":
		return nil, &ValidationError{Field: "familyName"}
	case strings.TrimSpace(in.PickupPersonName) == "":
		return nil, &ValidationError{Field: "pickupPersonName"}
	case in.Quantity <= 0:
		return nil, &ValidationError{Field: "quantity"}
	}
	dist := &db.Distribution{
		FamilyID:         strings.TrimSpace(in.FamilyID),
		FamilyName:       strings.TrimSpace(in.FamilyName),
		PickupPersonName: strings.TrimSpace(in.PickupPersonName),
		Quantity:         in.Quantity,
		Date:             in.Date,
	}
	ok, available, err := s.DB.CreateDistribution(ctx, dist)
	if err != nil {
		return nil, fmt.Errorf("create distribution: %w", err)
	}
	if !ok {
		return nil, &InsufficientStockError{Available: available}
	}
	return dist, nil
}

// StockBalance returns the current derived balance. Pure read.
func (s *Service) StockBalance(ctx context.Context) (int64, error) {
	return s.DB.StockBalance(ctx)
}

// TotalDonations returns the sum of all donated baskets.
func (s *Service) TotalDonations(ctx context.Context) (int64, error) {
	return s.DB.TotalDonations(ctx)
}

// TotalDistributions returns the sum of all distributed baskets.
func (s *Service) TotalDistributions(ctx context.Context) (int64, error) {
	return s.DB.TotalDistributions(ctx)
}

// ListDonations returns donations, most recent first.
func (s *Service) ListDonations(ctx context.Context) ([]db.Donation, error) {
	return s.DB.ListDonations(ctx)
}

// ListDistributions returns distributions, most recent first.
func (s *Service) ListDistributions(ctx context.Context) ([]db.Distribution, error) {
	return s.DB.ListDistributions(ctx, 0)
}

// SummaryStats returns the dashboard aggregate: totals, available
// balance, family count, and the most recent distributions.
func (s *Service) SummaryStats(ctx context.Context) (*Stats, error) {
	families, err := s.DB.CountFamilies(ctx)
	if err != nil {
		return nil, fmt.Errorf("count families: %w", err)
	}
	donated, err := s.DB.TotalDonations(ctx)
	if err != nil {
		return nil, fmt.Errorf("total donations: %w", err)
	}
	distributed, err := s.DB.TotalDistributions(ctx)
	if err != nil {
		return nil, fmt.Errorf("total distributions: %w", err)
	}
	recent, err := s.DB.ListDistributions(ctx, recentDistributionCount)
	if err != nil {
		return nil, fmt.Errorf("recent distributions: %w", err)
	}
	return &Stats{
		TotalFamilies:       families,
		TotalDonations:      donated,
		TotalDistributions:  distributed,
		AvailableBaskets:    donated - distributed,
		RecentDistributions: recent,
	}, nil
}

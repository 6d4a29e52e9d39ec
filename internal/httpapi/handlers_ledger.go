package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rf-baldi/BACKEND-SISTEMA-LAR-MARIA-DE-NAZAR/internal/db"
	"github.com/rf-baldi/BACKEND-SISTEMA-LAR-MARIA-DE-NAZAR/internal/ledger"
)

type donationPayload struct {
	ID              string `json:"id"`
	ResponsibleName string `json:"responsibleName"`
	CPF             string `json:"cpf"`
	Phone           string `json:"phone"`
	Quantity        int64  `json:"quantity"`
	Type            string `json:"type"`
	CreatedAt       string `json:"createdAt"`
}

type distributionPayload struct {
	ID               string `json:"id"`
	FamilyID         string `json:"familyId"`
	FamilyName       string `json:"familyName"`
	PickupPersonName string `json:"pickupPersonName"`
	Quantity         int64  `json:"quantity"`
	Date             string `json:"date"`
	CreatedAt        string `json:"createdAt"`
}

func toDonationPayload(d db.Donation) donationPayload {
	return donationPayload{
		ID:              d.ID,
		ResponsibleName: d.ResponsibleName,
		CPF:             d.CPF,
		Phone:           d.Phone,
		Quantity:        d.Quantity,
		Type:            d.Type,
		CreatedAt:       rfc3339(d.CreatedAt),
	}
}

func toDistributionPayload(d db.Distribution) distributionPayload {
	return distributionPayload{
		ID:               d.ID,
		FamilyID:         d.FamilyID,
		FamilyName:       d.FamilyName,
		PickupPersonName: d.PickupPersonName,
		Quantity:         d.Quantity,
		Date:             rfc3339(d.Date),
		CreatedAt:        rfc3339(d.CreatedAt),
	}
}

func (s *Server) handleDonations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		list, err := s.Ledger.ListDonations(r.Context())
		if err != nil {
			s.writeLedgerError(w, r, err)
			return
		}
		out := make([]donationPayload, 0, len(list))
		for _, d := range list {
			out = append(out, toDonationPayload(d))
		}
		writeJSON(w, http.StatusOK, out)
	case http.MethodPost:
		var req struct {
			ResponsibleName string `json:"responsibleName"`
			CPF             string `json:"cpf"`
			Phone           string `json:"phone"`
			Quantity        int64  `json:"quantity"`
			Type            string `json:"type"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
			return
		}
		dn, err := s.Ledger.RecordDonation(r.Context(), ledger.DonationInput{
			ResponsibleName: req.ResponsibleName,
			CPF:             req.CPF,
			Phone:           req.Phone,
			Quantity:        req.Quantity,
			Type:            req.Type,
		})
		if err != nil {
			s.writeLedgerError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toDonationPayload(*dn))
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (s *Server) handleDonationsTotal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	total, err := s.Ledger.TotalDonations(r.Context())
	if err != nil {
		s.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"total": total})
}

func (s *Server) handleDistributions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		list, err := s.Ledger.ListDistributions(r.Context())
		if err != nil {
			s.writeLedgerError(w, r, err)
			return
		}
		out := make([]distributionPayload, 0, len(list))
		for _, d := range list {
			out = append(out, toDistributionPayload(d))
		}
		writeJSON(w, http.StatusOK, out)
	case http.MethodPost:
		var req struct {
			FamilyID         string `json:"familyId"`
			FamilyName       string `json:"familyName"`
			PickupPersonName string `json:"pickupPersonName"`
			Quantity         int64  `json:"quantity"`
			Date             string `json:"date"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
			return
		}
		var date int64
		if req.Date != "" {
			t, err := time.Parse(time.RFC3339, req.Date)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid field: date", "field": "date"})
				return
			}
			date = t.Unix()
		}
		dist, err := s.Ledger.RecordDistribution(r.Context(), ledger.DistributionInput{
			FamilyID:         req.FamilyID,
			FamilyName:       req.FamilyName,
			PickupPersonName: req.PickupPersonName,
			Quantity:         req.Quantity,
			Date:             date,
		})
		if err != nil {
			s.writeLedgerError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toDistributionPayload(*dist))
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (s *Server) handleDistributionsTotal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	total, err := s.Ledger.TotalDistributions(r.Context())
	if err != nil {
		s.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"total": total})
}

func (s *Server) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	stats, err := s.Ledger.SummaryStats(r.Context())
	if err != nil {
		s.writeLedgerError(w, r, err)
		return
	}
	recent := make([]distributionPayload, 0, len(stats.RecentDistributions))
	for _, d := range stats.RecentDistributions {
		recent = append(recent, toDistributionPayload(d))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"totalFamilies":       stats.TotalFamilies,
		"totalDonations":      stats.TotalDonations,
		"totalDistributions":  stats.TotalDistributions,
		"availableBaskets":    stats.AvailableBaskets,
		"recentDistributions": recent,
	})
}

package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rf-baldi/BACKEND-SISTEMA-LAR-MARIA-DE-NAZAR/internal/db"
)

type childPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Age  int64  `json:"age"`
}

type familyPayload struct {
	ID                    string         `json:"id"`
	Name                  string         `json:"name"`
	FatherName            string         `json:"fatherName"`
	MotherName            string         `json:"motherName"`
	NumberOfChildren      int64          `json:"numberOfChildren"`
	IsEmployed            bool           `json:"isEmployed"`
	ReceivesGovernmentAid bool           `json:"receivesGovernmentAid"`
	GovernmentAidType     string         `json:"governmentAidType"`
	HasCriticalFactor     bool           `json:"hasCriticalFactor"`
	CriticalFactorNotes   string         `json:"criticalFactorNotes"`
	Children              []childPayload `json:"children"`
	CreatedAt             string         `json:"createdAt"`
	UpdatedAt             string         `json:"updatedAt"`
}

type familyRequest struct {
	Name                  string `json:"name"`
	FatherName            string `json:"fatherName"`
	MotherName            string `json:"motherName"`
	NumberOfChildren      int64  `json:"numberOfChildren"`
	IsEmployed            bool   `json:"isEmployed"`
	ReceivesGovernmentAid bool   `json:"receivesGovernmentAid"`
	GovernmentAidType     string `json:"governmentAidType"`
	HasCriticalFactor     bool   `json:"hasCriticalFactor"`
	CriticalFactorNotes   string `json:"criticalFactorNotes"`
	Children              []struct {
		Name string `json:"name"`
		Age  int64  `json:"age"`
	} `json:"children"`
}

func (fr familyRequest) toModel() db.Family {
	f := db.Family{
		Name:                  strings.TrimSpace(fr.Name),
		FatherName:            strings.TrimSpace(fr.FatherName),
		MotherName:            strings.TrimSpace(fr.MotherName),
		NumberOfChildren:      fr.NumberOfChildren,
		IsEmployed:            fr.IsEmployed,
		ReceivesGovernmentAid: fr.ReceivesGovernmentAid,
		GovernmentAidType:     strings.TrimSpace(fr.GovernmentAidType),
		HasCriticalFactor:     fr.HasCriticalFactor,
		CriticalFactorNotes:   strings.TrimSpace(fr.CriticalFactorNotes),
	}
	for _, c := range fr.Children {
		f.Children = append(f.Children, db.Child{Name: strings.TrimSpace(c.Name), Age: c.Age})
	}
	return f
}

func toFamilyPayload(f db.Family) familyPayload {
	p := familyPayload{
		ID:                    f.ID,
		Name:                  f.Name,
		FatherName:            f.FatherName,
		MotherName:            f.MotherName,
		NumberOfChildren:      f.NumberOfChildren,
		IsEmployed:            f.IsEmployed,
		ReceivesGovernmentAid: f.ReceivesGovernmentAid,
		GovernmentAidType:     f.GovernmentAidType,
		HasCriticalFactor:     f.HasCriticalFactor,
		CriticalFactorNotes:   f.CriticalFactorNotes,
		Children:              make([]childPayload, 0, len(f.Children)),
		CreatedAt:             rfc3339(f.CreatedAt),
		UpdatedAt:             rfc3339(f.UpdatedAt),
	}
	for _, c := range f.Children {
		p.Children = append(p.Children, childPayload{ID: c.ID, Name: c.Name, Age: c.Age})
	}
	return p
}

func (s *Server) handleFamilies(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		list, err := s.DB.ListFamilies(r.Context())
		if err != nil {
			s.writeLedgerError(w, r, err)
			return
		}
		out := make([]familyPayload, 0, len(list))
		for _, f := range list {
			out = append(out, toFamilyPayload(f))
		}
		writeJSON(w, http.StatusOK, out)
	case http.MethodPost:
		var req familyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
			return
		}
		f := req.toModel()
		if f.Name == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid field: name", "field": "name"})
			return
		}
		if err := s.DB.CreateFamily(r.Context(), &f); err != nil {
			s.writeLedgerError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toFamilyPayload(f))
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (s *Server) handleFamilyByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/families/")
	if id == "" || strings.Contains(id, "/") {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}

	switch r.Method {
	case http.MethodGet:
		f, ok, err := s.DB.GetFamily(r.Context(), id)
		if err != nil {
			s.writeLedgerError(w, r, err)
			return
		}
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}
		writeJSON(w, http.StatusOK, toFamilyPayload(*f))
	case http.MethodPut:
		var req familyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
			return
		}
		f := req.toModel()
		if f.Name == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid field: name", "field": "name"})
			return
		}
		f.ID = id
		ok, err := s.DB.UpdateFamily(r.Context(), &f)
		if err != nil {
			s.writeLedgerError(w, r, err)
			return
		}
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}
		updated, found, err := s.DB.GetFamily(r.Context(), id)
		if err != nil {
			s.writeLedgerError(w, r, err)
			return
		}
		if !found {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}
		writeJSON(w, http.StatusOK, toFamilyPayload(*updated))
	case http.MethodDelete:
		ok, err := s.DB.DeleteFamily(r.Context(), id)
		if err != nil {
			s.writeLedgerError(w, r, err)
			return
		}
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

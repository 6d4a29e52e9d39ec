// Package db defines persistence models for the basket inventory backend.
package db

// User is a credential holder allowed to operate the system.
type User struct {
	ID        string
	Username  string
	PassHash  string
	CreatedAt int64
}

// Family is a registered household eligible to receive baskets.
type Family struct {
	ID                    string
	Name                  string
	FatherName            string
	MotherName            string
	NumberOfChildren      int64
	IsEmployed            bool
	ReceivesGovernmentAid bool
	GovernmentAidType     string
	HasCriticalFactor     bool
	CriticalFactorNotes   string
	CreatedAt             int64
	UpdatedAt             int64
	Children              []Child
}

// Child belongs to a family.
type Child struct {
	ID       string
	FamilyID string
	Name     string
	Age      int64
}

// Donation is an intake of baskets. Rows are append-only.
type Donation struct {
	ID              string
	ResponsibleName string
	CPF             string
	Phone           string
	Quantity        int64
	Type            string
	CreatedAt       int64
}

// Distribution is a disbursement of baskets to a family. Rows are
// append-only; family name and pickup person are captured at creation
// time and never re-derived.
type Distribution struct {
	ID               string
	FamilyID         string
	FamilyName       string
	PickupPersonName string
	Quantity         int64
	Date             int64
	CreatedAt        int64
}

package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Medicine represents one stocked product of a pharmacy.
type Medicine struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Brand     string `json:"brand" yaml:"brand"`
	Strength  string `json:"strength" yaml:"strength"`
	Price     Price  `json:"price" yaml:"price"`
	Stock     int    `json:"stock" yaml:"stock"`
	Available bool   `json:"available" yaml:"-"`
	Category  string `json:"category" yaml:"category"`
}

// Pharmacy represents a vendor listing.
type Pharmacy struct {
	ID         string     `json:"id" yaml:"id"`
	Name       string     `json:"pharmacyName" yaml:"name"`
	Address    string     `json:"address" yaml:"address"`
	Contact    string     `json:"contact" yaml:"contact"`
	DistanceKm float64    `json:"distance" yaml:"distance_km"`
	Rating     float64    `json:"rating" yaml:"rating"`
	Medicines  []Medicine `json:"medicines" yaml:"medicines"`
}

// AveragePrice returns the mean medicine price, zero for an empty listing.
func (p Pharmacy) AveragePrice() decimal.Decimal {
	if len(p.Medicines) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, m := range p.Medicines {
		sum = sum.Add(m.Price.Decimal)
	}
	return sum.Div(decimal.NewFromInt(int64(len(p.Medicines)))).Round(2)
}

// Clone returns a deep copy of the pharmacy.
func (p Pharmacy) Clone() Pharmacy {
	clone := p
	clone.Medicines = make([]Medicine, len(p.Medicines))
	copy(clone.Medicines, p.Medicines)
	return clone
}

// PharmacyProfile is the owner-editable part of a listing.
type PharmacyProfile struct {
	Name    string `json:"pharmacyName"`
	Address string `json:"address"`
	Contact string `json:"contact"`
}

// Profile returns the owner-editable fields of the listing.
func (p Pharmacy) Profile() PharmacyProfile {
	return PharmacyProfile{Name: p.Name, Address: p.Address, Contact: p.Contact}
}

// Validate trims the profile and reports every empty field.
func (p PharmacyProfile) Validate() (PharmacyProfile, error) {
	trimmed := PharmacyProfile{
		Name:    strings.TrimSpace(p.Name),
		Address: strings.TrimSpace(p.Address),
		Contact: strings.TrimSpace(p.Contact),
	}

	verr := NewValidationError()
	if trimmed.Name == "" {
		verr.Add("pharmacyName", "Pharmacy name is required")
	}
	if trimmed.Address == "" {
		verr.Add("address", "Address is required")
	}
	if trimmed.Contact == "" {
		verr.Add("contact", "Contact information is required")
	}
	if verr.HasErrors() {
		return PharmacyProfile{}, verr
	}
	return trimmed, nil
}

// PharmacyResult is a search hit with its computed average price.
type PharmacyResult struct {
	Pharmacy
	AvgPrice       decimal.Decimal `json:"avgPrice"`
	TotalMedicines int             `json:"totalMedicines"`
}

// MedicinePatch represents a partial medicine update from the admin portal.
type MedicinePatch struct {
	Price *Price `json:"price,omitempty"`
	Stock *int   `json:"stock,omitempty"`
}

// BulkUpdateRequest represents a bulk price or stock change.
type BulkUpdateRequest struct {
	MedicineIDs []string `json:"medicineIds"`
	Field       string   `json:"field"`
	Value       Price    `json:"value"`
}

// StockAlertRequest asks to be notified when an out-of-stock medicine returns.
type StockAlertRequest struct {
	PharmacyID string `json:"pharmacyId"`
	MedicineID string `json:"medicineId"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

// StockAlert is a stored stock-alert request.
type StockAlert struct {
	ID         string    `json:"id"`
	PharmacyID string    `json:"pharmacyId"`
	MedicineID string    `json:"medicineId"`
	UserID     string    `json:"userId,omitempty"`
	Email      string    `json:"email,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

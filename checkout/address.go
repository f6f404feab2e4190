package checkout

import "strings"

// Address is a shipping or billing address. Any address attached to a
// checkout must carry the fields the platform needs to rate and route a
// shipment; optional contact fields stay empty.
type Address struct {
	FirstName    string `json:"first_name" validate:"required"`
	LastName     string `json:"last_name" validate:"required"`
	Company      string `json:"company,omitempty"`
	Address1     string `json:"address1" validate:"required"`
	Address2     string `json:"address2,omitempty"`
	City         string `json:"city" validate:"required"`
	Province     string `json:"province,omitempty"`
	ProvinceCode string `json:"province_code,omitempty"`
	Country      string `json:"country" validate:"required"`
	CountryCode  string `json:"country_code,omitempty"`
	Zip          string `json:"zip,omitempty"`
	Phone        string `json:"phone,omitempty"`
}

// FullName joins the first and last name for display.
func (a *Address) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

package model

// Site identity is owned by the company/site management service; this core
// only ever reads it.
type Site struct {
	ID        int      `db:"id" json:"id"`
	Name      string   `db:"name" json:"name"`
	CompanyID int      `db:"company_id" json:"company_id"`
	Latitude  *float64 `db:"latitude" json:"latitude,omitempty"`
	Longitude *float64 `db:"longitude" json:"longitude,omitempty"`
}

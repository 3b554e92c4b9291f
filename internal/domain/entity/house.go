package entity

import "time"

// House represents a managed property. The owner is a plain foreign key;
// the inverse view (houses of an owner) is a repository query, never an
// in-memory back-pointer.
type House struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Address      string    `json:"address"`
	City         string    `json:"city"`
	PostalCode   string    `json:"postal_code"`
	Country      string    `json:"country"`
	Description  string    `json:"description,omitempty"`
	Bedrooms     int       `json:"bedrooms"`
	Bathrooms    int       `json:"bathrooms"`
	SquareMeters int       `json:"square_meters"`
	OwnerID      int64     `json:"owner_id"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

package customers

import "time"

// Customer is a client of the business. Identity is immutable; contact
// fields are mutable.
type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	Notes     *string   `json:"notes"`
	CreatedAt time.Time `json:"createdAt"`
}

package customers

type CreateCustomerRequest struct {
	Name    string  `json:"name" validate:"required,max=200"`
	Email   string  `json:"email" validate:"required,email"`
	Phone   string  `json:"phone" validate:"required,max=50"`
	Address string  `json:"address" validate:"required"`
	Notes   *string `json:"notes,omitempty"`
}

type UpdateCustomerRequest struct {
	Name    string  `json:"name" validate:"required,max=200"`
	Email   string  `json:"email" validate:"required,email"`
	Phone   string  `json:"phone" validate:"required,max=50"`
	Address string  `json:"address" validate:"required"`
	Notes   *string `json:"notes,omitempty"`
}

type ListCustomersResponse struct {
	Customers []Customer `json:"customers"`
}

package estimates

import "github.com/fieldbill/fieldbill/internal/billing"

type CreateEstimateRequest struct {
	CustomerID  int64                   `json:"customerId" validate:"required,gt=0"`
	Title       string                  `json:"title" validate:"required,max=200"`
	Description *string                 `json:"description,omitempty"`
	TaxRate     *float64                `json:"taxRate,omitempty" validate:"omitempty,gte=0"`
	ValidUntil  *string                 `json:"validUntil,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Notes       *string                 `json:"notes,omitempty"`
	LineItems   []billing.LineItemInput `json:"lineItems" validate:"min=1,dive"`
}

// UpdateEstimateRequest applies only the supplied fields. An omitted or
// empty lineItems array leaves the existing line items and totals alone.
type UpdateEstimateRequest struct {
	Title       *string                 `json:"title,omitempty" validate:"omitempty,max=200"`
	Description *string                 `json:"description,omitempty"`
	TaxRate     *float64                `json:"taxRate,omitempty" validate:"omitempty,gte=0"`
	ValidUntil  *string                 `json:"validUntil,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Notes       *string                 `json:"notes,omitempty"`
	LineItems   []billing.LineItemInput `json:"lineItems,omitempty" validate:"omitempty,dive"`
}

type ListEstimatesRequest struct {
	CustomerID *int64
	Status     *EstimateStatus
}

type ListEstimatesResponse struct {
	Estimates []Estimate `json:"estimates"`
}

type ApproveEstimateResponse struct {
	Estimate  *Estimate `json:"estimate"`
	InvoiceID int64     `json:"invoiceId"`
}

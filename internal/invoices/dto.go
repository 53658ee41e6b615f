package invoices

import "github.com/fieldbill/fieldbill/internal/billing"

type CreateInvoiceRequest struct {
	CustomerID  int64                   `json:"customerId" validate:"required,gt=0"`
	EstimateID  *int64                  `json:"estimateId,omitempty" validate:"omitempty,gt=0"`
	Title       string                  `json:"title" validate:"required,max=200"`
	Description *string                 `json:"description,omitempty"`
	TaxRate     *float64                `json:"taxRate,omitempty" validate:"omitempty,gte=0"`
	IssueDate   *string                 `json:"issueDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DueDate     *string                 `json:"dueDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Notes       *string                 `json:"notes,omitempty"`
	LineItems   []billing.LineItemInput `json:"lineItems" validate:"min=1,dive"`
}

// UpdateInvoiceRequest applies only the supplied fields. An omitted or
// empty lineItems array leaves the existing line items and totals alone.
type UpdateInvoiceRequest struct {
	Title       *string                 `json:"title,omitempty" validate:"omitempty,max=200"`
	Description *string                 `json:"description,omitempty"`
	TaxRate     *float64                `json:"taxRate,omitempty" validate:"omitempty,gte=0"`
	DueDate     *string                 `json:"dueDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Notes       *string                 `json:"notes,omitempty"`
	LineItems   []billing.LineItemInput `json:"lineItems,omitempty" validate:"omitempty,dive"`
}

type RecordPaymentRequest struct {
	Amount             float64 `json:"amount" validate:"required"`
	PaymentMethod      string  `json:"paymentMethod" validate:"required,max=50"`
	ExternalPaymentRef *string `json:"externalPaymentRef,omitempty"`
}

type RecordPaymentResponse struct {
	Invoice *Invoice `json:"invoice"`
}

type ListInvoicesRequest struct {
	CustomerID *int64
	Status     *InvoiceStatus
}

type ListInvoicesResponse struct {
	Invoices []Invoice `json:"invoices"`
}

package invoices

import (
	"time"

	"github.com/fieldbill/fieldbill/internal/billing"
)

// InvoiceStatus enumerates invoice lifecycle states. Paid is terminal
// and freezes the document; overdue is assigned by the scheduled sweep.
type InvoiceStatus string

const (
	StatusDraft     InvoiceStatus = "draft"
	StatusSent      InvoiceStatus = "sent"
	StatusPaid      InvoiceStatus = "paid"
	StatusOverdue   InvoiceStatus = "overdue"
	StatusCancelled InvoiceStatus = "cancelled"
)

// Invoice is a billing document: header totals, payment state and
// ordered line items. AmountDue == Total - AmountPaid at all times.
type Invoice struct {
	ID                 int64              `json:"id"`
	CustomerID         int64              `json:"customerId"`
	EstimateID         *int64             `json:"estimateId"`
	InvoiceNumber      string             `json:"invoiceNumber"`
	Status             InvoiceStatus      `json:"status"`
	Title              string             `json:"title"`
	Description        *string            `json:"description"`
	Subtotal           float64            `json:"subtotal"`
	TaxRate            float64            `json:"taxRate"`
	TaxAmount          float64            `json:"taxAmount"`
	Total              float64            `json:"total"`
	AmountPaid         float64            `json:"amountPaid"`
	AmountDue          float64            `json:"amountDue"`
	IssueDate          string             `json:"issueDate"`
	DueDate            string             `json:"dueDate"`
	PaidDate           *time.Time         `json:"paidDate"`
	ExternalPaymentRef *string            `json:"externalPaymentRef"`
	PaymentMethod      *string            `json:"paymentMethod"`
	Notes              *string            `json:"notes"`
	CreatedAt          time.Time          `json:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`
	SentAt             *time.Time         `json:"sentAt"`
	LineItems          []billing.LineItem `json:"lineItems"`
}

// PaymentApplication is the computed outcome of recording one payment.
type PaymentApplication struct {
	AmountPaid         float64
	AmountDue          float64
	Status             InvoiceStatus
	PaidDate           *time.Time
	PaymentMethod      string
	ExternalPaymentRef *string
}

package estimates

import (
	"time"

	"github.com/fieldbill/fieldbill/internal/billing"
)

// EstimateStatus enumerates estimate lifecycle states. Approved is
// terminal and freezes the document.
type EstimateStatus string

const (
	StatusDraft    EstimateStatus = "draft"
	StatusSent     EstimateStatus = "sent"
	StatusApproved EstimateStatus = "approved"
	StatusRejected EstimateStatus = "rejected"
)

// Estimate is a quote document: header totals plus ordered line items.
type Estimate struct {
	ID             int64              `json:"id"`
	CustomerID     int64              `json:"customerId"`
	EstimateNumber string             `json:"estimateNumber"`
	Status         EstimateStatus     `json:"status"`
	Title          string             `json:"title"`
	Description    *string            `json:"description"`
	Subtotal       float64            `json:"subtotal"`
	TaxRate        float64            `json:"taxRate"`
	TaxAmount      float64            `json:"taxAmount"`
	Total          float64            `json:"total"`
	ValidUntil     *string            `json:"validUntil"`
	Notes          *string            `json:"notes"`
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
	SentAt         *time.Time         `json:"sentAt"`
	ApprovedAt     *time.Time         `json:"approvedAt"`
	LineItems      []billing.LineItem `json:"lineItems"`
}

// ConvertedInvoice is the invoice header materialized from an approved
// estimate. The invoices package owns the row afterwards; this struct
// only exists so conversion can run inside the estimate transaction.
type ConvertedInvoice struct {
	CustomerID    int64
	EstimateID    int64
	InvoiceNumber string
	Title         string
	Description   *string
	Subtotal      float64
	TaxRate       float64
	TaxAmount     float64
	Total         float64
	IssueDate     string
	DueDate       string
	Notes         *string
}

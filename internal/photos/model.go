package photos

import "time"

// Photo is a stored image row. The blob lives in the object store under
// StorageKey; the row exclusively owns that key.
type Photo struct {
	ID         int64     `json:"id"`
	URL        string    `json:"url"`
	StorageKey string    `json:"storageKey"`
	Filename   string    `json:"filename"`
	MimeType   string    `json:"mimeType"`
	FileSize   int64     `json:"fileSize"`
	Caption    *string   `json:"caption"`
	CustomerID *int64    `json:"customerId"`
	EstimateID *int64    `json:"estimateId"`
	InvoiceID  *int64    `json:"invoiceId"`
	SortOrder  int       `json:"sortOrder"`
	CreatedAt  time.Time `json:"createdAt"`
}

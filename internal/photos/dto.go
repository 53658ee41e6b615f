package photos

type UploadPhotoRequest struct {
	Filename   string  `json:"filename" validate:"required,max=255"`
	MimeType   string  `json:"mimeType" validate:"required"`
	Data       string  `json:"data" validate:"required"`
	Caption    *string `json:"caption,omitempty"`
	CustomerID *int64  `json:"customerId,omitempty" validate:"omitempty,gt=0"`
	EstimateID *int64  `json:"estimateId,omitempty" validate:"omitempty,gt=0"`
	InvoiceID  *int64  `json:"invoiceId,omitempty" validate:"omitempty,gt=0"`
}

type ListPhotosRequest struct {
	CustomerID *int64
	EstimateID *int64
	InvoiceID  *int64
}

type ListPhotosResponse struct {
	Photos []Photo `json:"photos"`
}

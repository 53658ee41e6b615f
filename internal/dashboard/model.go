package dashboard

// StatusCount pairs a document status with how many rows carry it.
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// AgingBucket summarises outstanding invoice value inside a days-past-due band.
type AgingBucket struct {
	Bucket string  `json:"bucket"`
	Amount float64 `json:"amount"`
}

// Summary is the dashboard rollup served to the UI.
type Summary struct {
	CustomerCount    int64         `json:"customerCount"`
	EstimateCounts   []StatusCount `json:"estimateCounts"`
	InvoiceCounts    []StatusCount `json:"invoiceCounts"`
	OutstandingTotal float64       `json:"outstandingTotal"`
	OverdueTotal     float64       `json:"overdueTotal"`
	Aging            []AgingBucket `json:"aging"`
}

// Package invoice turns fused OCR text into structured purchase records and
// orchestrates the whole extraction pipeline for one uploaded image.
package invoice

// LineItem is one parsed product/price entry from a receipt body line.
type LineItem struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// maxItems caps how many line items a single record may carry.
const maxItems = 10

// Record is the final structured artifact of one processed invoice.
//
// Fields hold their zero values when no recognizable pattern matched; that is
// an expected outcome, not an error. Invariants: len(Items) <= 10,
// TotalAmount >= 0, Confidence in [0,1].
type Record struct {
	StoreName   string     `json:"store_name"`
	TotalAmount float64    `json:"total_amount"`
	Date        string     `json:"date"`
	Items       []LineItem `json:"items"`
	Confidence  float64    `json:"confidence"`
	RawText     string     `json:"raw_text"`
}

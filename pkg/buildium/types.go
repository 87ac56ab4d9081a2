package buildium

// BillPaymentRequest is the payload for creating a bill payment.
type BillPaymentRequest struct {
	BankAccountID   int64   `json:"BankAccountId"`
	Amount          float64 `json:"Amount"`
	Date            string  `json:"Date"` // YYYY-MM-DD
	ReferenceNumber string  `json:"ReferenceNumber,omitempty"`
	Memo            string  `json:"Memo,omitempty"`
}

// BillPaymentResponse is the created payment returned by the API.
type BillPaymentResponse struct {
	ID              int64   `json:"Id"`
	BillID          int64   `json:"BillId"`
	BankAccountID   int64   `json:"BankAccountId"`
	Amount          float64 `json:"Amount"`
	Date            string  `json:"Date"`
	ReferenceNumber string  `json:"ReferenceNumber"`
	Memo            string  `json:"Memo"`
}

// ErrorResponse is the error envelope returned by the API.
type ErrorResponse struct {
	UserMessage string `json:"UserMessage"`
	Error       string `json:"error"`
}

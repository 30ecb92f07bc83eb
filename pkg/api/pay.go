package api

// GetSplitRequest opens a payment link.
type GetSplitRequest struct {
	Code string `json:"code"`
}

// GetSplitResponse is everything the pay page shows before selection.
type GetSplitResponse struct {
	SplitID          string             `json:"split_id"`
	Title            string             `json:"title"`
	Description      string             `json:"description"`
	CreatorName      string             `json:"creator_name"`
	TotalAmountCents int64              `json:"total_amount_cents"`
	TotalFormatted   string             `json:"total_formatted"`
	Items            []ItemAvailability `json:"items"`
	Settled          bool               `json:"settled"`
	PlatformFeeCents int64              `json:"platform_fee_cents"`
	Currency         string             `json:"currency"`
}

// QuoteRequest prices a selection without committing to it.
type QuoteRequest struct {
	Code       string          `json:"code"`
	Selections []ItemSelection `json:"selections"`
}

// QuoteResponse is the priced selection. Amounts are rounded to cents.
type QuoteResponse struct {
	Lines            []QuoteLine `json:"lines"`
	Violations       []Violation `json:"violations,omitempty"`
	Valid            bool        `json:"valid"`
	ItemsTotalCents  int64       `json:"items_total_cents"`
	TaxShareCents    int64       `json:"tax_share_cents"`
	TipShareCents    int64       `json:"tip_share_cents"`
	TotalCents       int64       `json:"total_cents"`
	PlatformFeeCents int64       `json:"platform_fee_cents"`
	ChargeCents      int64       `json:"charge_cents"`
	Currency         string      `json:"currency"`
	TotalFormatted   string      `json:"total_formatted"`
	ChargeFormatted  string      `json:"charge_formatted"`
}

// CreatePaymentRequest starts paying for a selection.
type CreatePaymentRequest struct {
	Code       string          `json:"code"`
	PayerName  string          `json:"payer_name"`
	PayerEmail string          `json:"payer_email"`
	Selections []ItemSelection `json:"selections"`
}

// CreatePaymentResponse carries the secret the browser confirms the charge with.
type CreatePaymentResponse struct {
	PaymentID        string `json:"payment_id"`
	ClientSecret     string `json:"client_secret"`
	AmountCents      int64  `json:"amount_cents"`
	PlatformFeeCents int64  `json:"platform_fee_cents"`
	ChargeCents      int64  `json:"charge_cents"`
	Currency         string `json:"currency"`
}

// ConfirmPaymentRequest checks a payment after the browser confirmed it.
type ConfirmPaymentRequest struct {
	PaymentID string `json:"payment_id"`
}

// ConfirmPaymentResponse reports the payment's status.
type ConfirmPaymentResponse struct {
	PaymentID string `json:"payment_id"`
	Status    string `json:"status"`
}

package response_models

type OneTimePaymentResponse struct {
	TransactionID     string `json:"transaction_id"`
	Status            string `json:"status"`
	Amount            string `json:"amount,omitempty"`
	Currency          string `json:"currency,omitempty"`
	GatewayOrderID    string `json:"gmo_order_id,omitempty"`
	Error             string `json:"error,omitempty"`
	RollbackAttempted bool   `json:"rollback_attempted,omitempty"`
	RollbackSucceeded *bool  `json:"rollback_succeeded,omitempty"`
	Replayed          bool   `json:"replayed,omitempty"`
}

type RecurringSetupResponse struct {
	SubscriptionID    string `json:"subscription_id"`
	Status            string `json:"status"`
	MemberID          string `json:"member_id,omitempty"`
	CardID            string `json:"card_id,omitempty"`
	Amount            string `json:"amount,omitempty"`
	Currency          string `json:"currency,omitempty"`
	BillingCycle      string `json:"billing_cycle,omitempty"`
	NextBillingDate   string `json:"next_billing_date,omitempty"`
	Error             string `json:"error,omitempty"`
	RollbackSucceeded *bool  `json:"rollback_succeeded,omitempty"`
}

type RecurringChargeResponse struct {
	SubscriptionID  string `json:"subscription_id"`
	Status          string `json:"status"`
	Amount          string `json:"amount"`
	Currency        string `json:"currency"`
	OrderID         string `json:"order_id"`
	NextBillingDate string `json:"next_billing_date,omitempty"`
}

// TransactionResponse never exposes the gateway access credentials.
type TransactionResponse struct {
	TransactionID  string `json:"transaction_id"`
	Amount         string `json:"amount"`
	Currency       string `json:"currency"`
	Status         string `json:"status"`
	GatewayOrderID string `json:"gmo_order_id,omitempty"`
	ErrorCode      string `json:"error_code,omitempty"`
	ErrorMessage   string `json:"error_message,omitempty"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

type SubscriptionResponse struct {
	SubscriptionID  string `json:"subscription_id"`
	Amount          string `json:"amount"`
	Currency        string `json:"currency"`
	Status          string `json:"status"`
	BillingCycle    string `json:"billing_cycle"`
	NextBillingDate string `json:"next_billing_date,omitempty"`
	LastBillingDate string `json:"last_billing_date,omitempty"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

type PageResponse[T any] struct {
	Items    []T   `json:"items"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
}

package contract

import "context"

// IntentResolver turns a raw utterance plus session context into a Resolution.
// Two interchangeable strategies exist: a deterministic keyword resolver and a
// model-delegated one; both feed the same downstream state machine and applier.
type IntentResolver interface {
	Resolve(ctx context.Context, req ResolveRequest) (Resolution, error)
}

// ToolGateway executes named external capabilities on behalf of the
// model-delegated resolver. Unknown tools produce an error-carrying ToolResult,
// never a Go error.
type ToolGateway interface {
	Execute(ctx context.Context, req ToolRequest) ToolResult
}

// PaymentProvider settles an order. The shipped implementation is a mock.
type PaymentProvider interface {
	Charge(ctx context.Context, store string, items []PaymentItem) (PaymentResult, error)
}

// PaymentResult is the normalized payment payload attached to ORDER actions.
type PaymentResult struct {
	Status        string        `json:"status"`
	Provider      string        `json:"provider"`
	Amount        int           `json:"amount"`
	Currency      string        `json:"currency,omitempty"`
	Items         []PaymentItem `json:"items"`
	Message       string        `json:"message,omitempty"`
	PaymentID     string        `json:"payment_id,omitempty"`
	TransactionID string        `json:"transaction_id,omitempty"`
	OrderNumber   string        `json:"order_number,omitempty"`
	ReceiptNumber string        `json:"receipt_number,omitempty"`
}

// OrderRecorder receives completed orders (store, item, quantity) so a profile
// history can be kept outside the session.
type OrderRecorder interface {
	RecordOrder(store, item string, quantity int) error
}

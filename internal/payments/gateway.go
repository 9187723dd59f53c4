package payments

import "context"

// Gateway is the external payment provider.
type Gateway interface {
	InitializeTransaction(ctx context.Context, req InitializeRequest) (InitResult, error)
	VerifyTransaction(ctx context.Context, reference string) (VerifyResult, error)
}

// ReceiptSender is notified once a payment is verified as successful.
type ReceiptSender interface {
	SendReceipt(ctx context.Context, r Receipt) error
}

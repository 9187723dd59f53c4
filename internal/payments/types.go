package payments

import (
	"encoding/json"
	"time"
)

// CartItem is an opaque line item: any JSON value, forwarded to the gateway
// byte for byte.
type CartItem = json.RawMessage

type CheckoutRequest struct {
	CustomerName string     `json:"customerName" validate:"required"`
	Address      string     `json:"address" validate:"required"`
	Phone        string     `json:"phone" validate:"required"`
	BusStop      string     `json:"busStop,omitempty"`
	DeliveryMode string     `json:"deliveryMode,omitempty"`
	Email        string     `json:"email" validate:"required,email"`
	CartItems    []CartItem `json:"cartItems" validate:"required,min=1"`
	Amount       float64    `json:"amount" validate:"required,gt=0"`
}

// Metadata travels with the transaction so the provider dashboard and receipts
// show the full checkout.
type Metadata struct {
	CustomerName string     `json:"customerName"`
	Address      string     `json:"address"`
	Phone        string     `json:"phone"`
	BusStop      string     `json:"busStop,omitempty"`
	DeliveryMode string     `json:"deliveryMode,omitempty"`
	Email        string     `json:"email"`
	CartItems    []CartItem `json:"cartItems"`
}

type InitializeRequest struct {
	Email     string   `json:"email"`
	Amount    int64    `json:"amount"` // minor unit
	Currency  string   `json:"currency"`
	Reference string   `json:"reference"`
	Metadata  Metadata `json:"metadata"`
}

type InitResult struct {
	Reference        string
	PublicKey        string
	AccessCode       string
	AuthorizationURL string
}

type VerifyStatus string

const (
	VerifySuccess VerifyStatus = "success"
	VerifyFailed  VerifyStatus = "failed"
	VerifyError   VerifyStatus = "error"
)

// VerifyResult is what the provider reported for a reference.
type VerifyResult struct {
	Status        VerifyStatus
	GatewayStatus string
	Message       string
	Reference     string
	Amount        int64
	Currency      string
	CustomerEmail string
	PaidAt        time.Time
}

// VerifyOutcome is the caller facing result of Service.Verify.
type VerifyOutcome struct {
	Status  VerifyStatus `json:"status"`
	Message string       `json:"message"`
}

// Receipt describes a confirmed payment for notification purposes.
type Receipt struct {
	Reference string
	Email     string
	Amount    int64
	Currency  string
	PaidAt    time.Time
}

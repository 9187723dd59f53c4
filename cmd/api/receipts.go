package main

import (
	"context"
	"fmt"

	"storefront/internal/mailer"
	"storefront/internal/payments"
)

type receiptEmailData struct {
	Reference string
	Amount    string
	Currency  string
	PaidAt    string
}

// mailReceipts delivers payment receipts through a mailer.Client.
type mailReceipts struct {
	mailer mailer.Client
}

func (m *mailReceipts) SendReceipt(ctx context.Context, receipt payments.Receipt) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data := receiptEmailData{
		Reference: receipt.Reference,
		Amount:    formatMinorUnit(receipt.Amount),
		Currency:  receipt.Currency,
	}
	if !receipt.PaidAt.IsZero() {
		data.PaidAt = receipt.PaidAt.Format("02 Jan 2006 15:04 MST")
	}

	_, err := m.mailer.Send(mailer.PaymentReceiptTemplate, "", receipt.Email, data)
	return err
}

func formatMinorUnit(amount int64) string {
	sign := ""
	if amount < 0 {
		sign, amount = "-", -amount
	}
	return fmt.Sprintf("%s%d.%02d", sign, amount/100, amount%100)
}

package main

import (
	"net/http"

	"storefront/internal/payments"
)

type initiatePaymentResponse struct {
	Reference string `json:"reference"`
	PublicKey string `json:"publicKey"`
}

type verifyPaymentPayload struct {
	Reference string `json:"reference"`
}

// initiatePaymentHandler godoc
//
//	@Summary		Initiate a payment
//	@Description	Validates the checkout, generates a unique reference and registers the transaction with the payment provider.
//	@Tags			Payments
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		payments.CheckoutRequest	true	"Checkout details"
//	@Success		200		{object}	initiatePaymentResponse
//	@Failure		400		{object}	error	"Missing or invalid fields"
//	@Failure		500		{object}	error	"Payment initiation failed"
//	@Router			/api/payment/initiate [post]
func (app *application) initiatePaymentHandler(w http.ResponseWriter, r *http.Request) {
	var payload payments.CheckoutRequest
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	res, err := app.payments.Initiate(r.Context(), payload)
	if err != nil {
		app.paymentErrorResponse(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, initiatePaymentResponse{
		Reference: res.Reference,
		PublicKey: res.PublicKey,
	}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// verifyPaymentHandler godoc
//
//	@Summary		Verify a payment
//	@Description	Asks the payment provider for the final state of a transaction. A declined or abandoned payment is reported with status "failed".
//	@Tags			Payments
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		verifyPaymentPayload	true	"Payment reference"
//	@Success		200		{object}	payments.VerifyOutcome
//	@Failure		400		{object}	error	"Reference is required"
//	@Failure		502		{object}	error	"Payment provider unavailable"
//	@Router			/api/payment/verify [post]
func (app *application) verifyPaymentHandler(w http.ResponseWriter, r *http.Request) {
	var payload verifyPaymentPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	outcome, err := app.payments.Verify(r.Context(), payload.Reference)
	if err != nil {
		app.paymentErrorResponse(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, outcome); err != nil {
		app.internalServerError(w, r, err)
	}
}

package payments

import (
	"context"
	"errors"
	"net/http"
)

var (
	ErrInvalidRequest          = errors.New("invalid payment request")
	ErrGatewayRejected         = errors.New("payment gateway rejected the request")
	ErrGatewayUnavailable      = errors.New("payment gateway unavailable")
	ErrPaymentInitiationFailed = errors.New("payment initiation failed")
)

// Kind returns a short machine readable label for err, used in logs.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, ErrGatewayUnavailable):
		return "gateway_unavailable"
	case errors.Is(err, ErrGatewayRejected):
		return "gateway_rejected"
	case errors.Is(err, ErrPaymentInitiationFailed):
		return "initiation_failed"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "internal"
	}
}

// HTTPStatus maps a payment error to the status code the API answers with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrPaymentInitiationFailed) && errors.Is(err, ErrGatewayRejected):
		return http.StatusBadRequest
	case errors.Is(err, ErrPaymentInitiationFailed):
		return http.StatusInternalServerError
	case errors.Is(err, ErrGatewayUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

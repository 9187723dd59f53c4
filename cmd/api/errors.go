package main

import (
	"errors"
	"net/http"

	"storefront/internal/payments"
)

func (app *application) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Errorw("internal error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusInternalServerError, "the server encountered a problem")
}

func (app *application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("bad request", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusBadRequest, err.Error())
}

func (app *application) notFoundResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("not found error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusNotFound, "not found")
}

func (app *application) unauthorizedBasicErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("unauthorized basic error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	w.Header().Set("WWW-Authenticate", `Basic realm="restricted", charset="UTF-8"`)

	writeJSONError(w, http.StatusUnauthorized, "unauthorized")
}

func (app *application) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request, retryAfter string) {
	app.logger.Warnw("rate limit exceeded", "method", r.Method, "path", r.URL.Path)

	w.Header().Set("Retry-After", retryAfter)

	writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded, retry after: "+retryAfter)
}

// paymentErrorResponse hides gateway details from the caller. Only
// validation problems are echoed back.
func (app *application) paymentErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	status := payments.HTTPStatus(err)

	switch {
	case errors.Is(err, payments.ErrInvalidRequest):
		app.badRequestResponse(w, r, err)
	case errors.Is(err, payments.ErrPaymentInitiationFailed):
		app.logger.Errorw("payment error", "method", r.Method, "path", r.URL.Path, "kind", payments.Kind(err), "error", err.Error())
		writeJSONError(w, status, "payment initiation failed")
	case errors.Is(err, payments.ErrGatewayUnavailable):
		app.logger.Errorw("payment error", "method", r.Method, "path", r.URL.Path, "kind", payments.Kind(err), "error", err.Error())
		writeJSONError(w, status, "payment provider unavailable")
	default:
		app.internalServerError(w, r, err)
	}
}

package main

import (
	"net/http"
	"strings"

	"storefront/internal/params"
	"storefront/internal/store"
)

const (
	defaultFeedbackLimit = 20
	maxFeedbackLimit     = 100
)

type CreateFeedbackPayload struct {
	Name    string `json:"name" validate:"required,max=100"`
	Message string `json:"message" validate:"required,max=2000"`
}

// createFeedbackHandler godoc
//
//	@Summary		Submit feedback
//	@Tags			Feedbacks
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateFeedbackPayload	true	"Feedback"
//	@Success		200		{object}	map[string]bool
//	@Failure		400		{object}	error
//	@Failure		500		{object}	error
//	@Router			/api/feedbacks [post]
func (app *application) createFeedbackHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateFeedbackPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	payload.Name = strings.TrimSpace(payload.Name)
	payload.Message = strings.TrimSpace(payload.Message)
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	feedback := &store.Feedback{
		Name:    payload.Name,
		Message: payload.Message,
	}
	if err := app.store.Feedbacks.Create(r.Context(), feedback); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, map[string]bool{"success": true}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listFeedbacksHandler godoc
//
//	@Summary		List feedback
//	@Description	Most recent first.
//	@Tags			Feedbacks
//	@Produce		json
//	@Param			limit	query		int	false	"Maximum number of entries (default 20, max 100)"
//	@Success		200		{array}		store.Feedback
//	@Failure		500		{object}	error
//	@Router			/api/feedbacks [get]
func (app *application) listFeedbacksHandler(w http.ResponseWriter, r *http.Request) {
	limit := params.ParseLimit(r.URL.Query(), defaultFeedbackLimit, maxFeedbackLimit)

	feedbacks, err := app.store.Feedbacks.List(r.Context(), limit)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	if feedbacks == nil {
		feedbacks = []store.Feedback{}
	}

	if err := writeJSON(w, http.StatusOK, feedbacks); err != nil {
		app.internalServerError(w, r, err)
	}
}

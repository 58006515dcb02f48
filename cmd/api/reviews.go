package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"bodyshop/internal/audit"
	"bodyshop/internal/domain/bookings"
	"bodyshop/internal/domain/reviews"

	"github.com/go-chi/chi/v5"
)

type CreateReviewPayload struct {
	BookingID int64  `json:"booking_id" validate:"required"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Comment   string `json:"comment" validate:"max=2000"`
}

// createReviewHandler godoc
//
//	@Summary		Review a completed repair
//	@Description	One review per booking, and only after the work is done. New reviews await moderation.
//	@Tags			reviews
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateReviewPayload	true	"Review"
//	@Success		201		{object}	reviews.Review
//	@Failure		409		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/client/reviews [post]
func (app *application) createReviewHandler(w http.ResponseWriter, r *http.Request) {
	identity := getIdentityFromContext(r)
	if identity == nil {
		app.authenticationRequiredResponse(w, r)
		return
	}

	var payload CreateReviewPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	review := &reviews.Review{
		UserID:    identity.UserID,
		BookingID: payload.BookingID,
		Rating:    payload.Rating,
		Comment:   payload.Comment,
	}

	if err := app.store.Reviews.Create(r.Context(), review); err != nil {
		switch {
		case errors.Is(err, bookings.ErrNotFound):
			app.notFoundResponse(w, r, err)
		case errors.Is(err, reviews.ErrNotReviewable):
			app.conflictResponse(w, r, err)
		case errors.Is(err, reviews.ErrAlreadyReviewed):
			app.conflictResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.recordAudit(r, audit.Entry{
		Action:   audit.ActionCreate,
		Resource: "reviews",
		RecordID: review.ID,
		NewValues: map[string]any{
			"booking_id": review.BookingID,
			"rating":     review.Rating,
			"status":     review.Status,
		},
	})

	if err := app.jsonResponse(w, http.StatusCreated, review); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listApprovedReviewsHandler godoc
//
//	@Summary	Approved reviews for the public site
//	@Tags		reviews
//	@Produce	json
//	@Param		limit	query	int	false	"Max rows, default 20"
//	@Success	200		{array}	reviews.PublicReview
//	@Router		/reviews [get]
func (app *application) listApprovedReviewsHandler(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			app.badRequestResponse(w, r, fmt.Errorf("limit must be between 1 and 100"))
			return
		}
		limit = parsed
	}

	list, err := app.store.Reviews.ListApproved(r.Context(), limit)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, list); err != nil {
		app.internalServerError(w, r, err)
	}
}

// adminListReviewsHandler godoc
//
//	@Summary	List reviews for moderation
//	@Tags		reviews
//	@Produce	json
//	@Param		status	query		string	false	"Filter by moderation status"
//	@Param		page	query		int		false	"Page"
//	@Param		limit	query		int		false	"Page size"
//	@Success	200		{object}	map[string]any
//	@Security	ApiKeyAuth
//	@Router		/admin/reviews [get]
func (app *application) adminListReviewsHandler(w http.ResponseWriter, r *http.Request) {
	page, limit := paginationParams(r)

	filter := reviews.ListFilter{Page: page, Limit: limit}
	if status := r.URL.Query().Get("status"); status != "" {
		if !reviews.KnownStatus(status) {
			app.badRequestResponse(w, r, fmt.Errorf("unknown status %q", status))
			return
		}
		filter.Status = &status
	}

	rows, total, err := app.store.Reviews.ListAdmin(r.Context(), filter)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	response := map[string]any{
		"reviews": rows,
		"total":   total,
		"page":    page,
		"limit":   limit,
	}
	if err := app.jsonResponse(w, http.StatusOK, response); err != nil {
		app.internalServerError(w, r, err)
	}
}

type UpdateReviewStatusPayload struct {
	Status string `json:"status" validate:"required"`
}

// updateReviewStatusHandler godoc
//
//	@Summary		Moderate a review
//	@Description	Sets the moderation status. Re-asserting the current status succeeds without effect.
//	@Tags			reviews
//	@Accept			json
//	@Produce		json
//	@Param			reviewID	path		int							true	"Review ID"
//	@Param			payload		body		UpdateReviewStatusPayload	true	"Target status"
//	@Success		200			{object}	map[string]string
//	@Failure		404			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/admin/reviews/{reviewID}/status [put]
func (app *application) updateReviewStatusHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "reviewID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid review id"))
		return
	}

	var payload UpdateReviewStatusPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if !reviews.KnownStatus(payload.Status) {
		app.badRequestResponse(w, r, fmt.Errorf("unknown status %q", payload.Status))
		return
	}

	previous, err := app.store.Reviews.UpdateStatus(r.Context(), id, payload.Status)
	if err != nil {
		switch {
		case errors.Is(err, reviews.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.recordAudit(r, audit.Entry{
		Action:    audit.ActionUpdate,
		Resource:  "reviews",
		RecordID:  id,
		OldValues: map[string]any{"status": previous},
		NewValues: map[string]any{"status": payload.Status},
	})

	response := map[string]string{
		"previous_status": previous,
		"status":          payload.Status,
	}
	if err := app.jsonResponse(w, http.StatusOK, response); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deleteReviewHandler godoc
//
//	@Summary	Delete a review
//	@Tags		reviews
//	@Produce	json
//	@Param		reviewID	path		int		true	"Review ID"
//	@Success	204			{string}	string
//	@Failure	404			{object}	error
//	@Security	ApiKeyAuth
//	@Router		/admin/reviews/{reviewID} [delete]
func (app *application) deleteReviewHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "reviewID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid review id"))
		return
	}

	deleted, err := app.store.Reviews.Delete(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, reviews.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.recordAudit(r, audit.Entry{
		Action:   audit.ActionDelete,
		Resource: "reviews",
		RecordID: id,
		OldValues: map[string]any{
			"booking_id": deleted.BookingID,
			"rating":     deleted.Rating,
			"status":     deleted.Status,
		},
	})

	if err := app.jsonResponse(w, http.StatusNoContent, ""); err != nil {
		app.internalServerError(w, r, err)
	}
}

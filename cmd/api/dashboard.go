package main

import "net/http"

// dashboardHandler godoc
//
//	@Summary	Admin dashboard counters
//	@Tags		ops
//	@Produce	json
//	@Success	200	{object}	map[string]any
//	@Security	ApiKeyAuth
//	@Router		/admin/dashboard [get]
func (app *application) dashboardHandler(w http.ResponseWriter, r *http.Request) {
	byStatus, err := app.store.Bookings.CountByStatus(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	pendingReviews, err := app.store.Reviews.CountPending(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	response := map[string]any{
		"bookings_by_status": byStatus,
		"pending_reviews":    pendingReviews,
	}
	if err := app.jsonResponse(w, http.StatusOK, response); err != nil {
		app.internalServerError(w, r, err)
	}
}

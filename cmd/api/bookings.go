package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"bodyshop/internal/audit"
	"bodyshop/internal/authz"
	"bodyshop/internal/domain/bookings"
	"bodyshop/internal/domain/services"
	"bodyshop/internal/mailer"

	"github.com/go-chi/chi/v5"
)

type CreateBookingPayload struct {
	ServiceID    int64  `json:"service_id" validate:"required"`
	VehicleMake  string `json:"vehicle_make" validate:"required,max=50"`
	VehicleModel string `json:"vehicle_model" validate:"required,max=50"`
	VehicleYear  int    `json:"vehicle_year" validate:"required,min=1950,max=2030"`
	VehiclePlate string `json:"vehicle_plate" validate:"required,max=16"`
	DamageNote   string `json:"damage_note" validate:"max=2000"`
	DropOffAt    string `json:"drop_off_at" validate:"required"` // RFC 3339
}

// createBookingHandler godoc
//
//	@Summary		Book a repair appointment
//	@Description	Reserves an hourly drop-off slot. Slots outside business hours or at capacity are rejected.
//	@Tags			bookings
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateBookingPayload	true	"Booking details"
//	@Success		201		{object}	bookings.Booking
//	@Failure		400		{object}	error
//	@Failure		409		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/client/bookings [post]
func (app *application) createBookingHandler(w http.ResponseWriter, r *http.Request) {
	identity := getIdentityFromContext(r)
	if identity == nil {
		app.authenticationRequiredResponse(w, r)
		return
	}

	var payload CreateBookingPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	dropOff, err := time.Parse(time.RFC3339, payload.DropOffAt)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("drop_off_at must be RFC 3339: %w", err))
		return
	}
	dropOff = dropOff.Truncate(time.Hour)

	if dropOff.Before(time.Now()) {
		app.badRequestResponse(w, r, fmt.Errorf("drop_off_at is in the past"))
		return
	}

	ctx := r.Context()

	service, err := app.store.Services.GetByID(ctx, payload.ServiceID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			app.badRequestResponse(w, r, fmt.Errorf("unknown service"))
		default:
			app.internalServerError(w, r, err)
		}
		return
	}
	if !service.Active {
		app.badRequestResponse(w, r, fmt.Errorf("service is not currently offered"))
		return
	}

	shop, err := app.store.Settings.Get(ctx)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if hour := dropOff.Hour(); hour < shop.OpenHour || hour >= shop.CloseHour {
		app.badRequestResponse(w, r, fmt.Errorf("drop-off must be between %02d:00 and %02d:00", shop.OpenHour, shop.CloseHour))
		return
	}

	booking := &bookings.Booking{
		UserID:       identity.UserID,
		ServiceID:    service.ID,
		VehicleMake:  payload.VehicleMake,
		VehicleModel: payload.VehicleModel,
		VehicleYear:  payload.VehicleYear,
		VehiclePlate: payload.VehiclePlate,
		DamageNote:   payload.DamageNote,
		DropOffAt:    dropOff,
	}

	err = app.store.Bookings.Create(ctx, booking, shop.SlotCapacity, app.refcodes.BookingRef)
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrSlotFull):
			app.conflictResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.recordAudit(r, audit.Entry{
		Action:   audit.ActionCreate,
		Resource: "bookings",
		RecordID: booking.ID,
		NewValues: map[string]any{
			"reference":   booking.Reference,
			"service_id":  booking.ServiceID,
			"drop_off_at": booking.DropOffAt,
			"status":      booking.Status,
		},
	})

	if err := app.jsonResponse(w, http.StatusCreated, booking); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listMyBookingsHandler godoc
//
//	@Summary	List the caller's bookings
//	@Tags		bookings
//	@Produce	json
//	@Success	200	{array}	bookings.UserBooking
//	@Security	ApiKeyAuth
//	@Router		/client/bookings [get]
func (app *application) listMyBookingsHandler(w http.ResponseWriter, r *http.Request) {
	identity := getIdentityFromContext(r)
	if identity == nil {
		app.authenticationRequiredResponse(w, r)
		return
	}

	rows, err := app.store.Bookings.GetByUser(r.Context(), identity.UserID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, rows); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getBookingHandler godoc
//
//	@Summary	Get one booking
//	@Tags		bookings
//	@Produce	json
//	@Param		bookingID	path		int	true	"Booking ID"
//	@Success	200			{object}	bookings.Booking
//	@Failure	403			{object}	error
//	@Failure	404			{object}	error
//	@Security	ApiKeyAuth
//	@Router		/client/bookings/{bookingID} [get]
func (app *application) getBookingHandler(w http.ResponseWriter, r *http.Request) {
	booking, ok := app.fetchOwnedBooking(w, r)
	if !ok {
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, booking); err != nil {
		app.internalServerError(w, r, err)
	}
}

// cancelBookingHandler godoc
//
//	@Summary		Cancel a booking
//	@Description	Only pending and confirmed bookings can be cancelled.
//	@Tags			bookings
//	@Produce		json
//	@Param			bookingID	path		int	true	"Booking ID"
//	@Success		200			{object}	map[string]string
//	@Failure		403			{object}	error
//	@Failure		409			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/client/bookings/{bookingID}/cancel [post]
func (app *application) cancelBookingHandler(w http.ResponseWriter, r *http.Request) {
	booking, ok := app.fetchOwnedBooking(w, r)
	if !ok {
		return
	}

	previous, err := app.store.Bookings.Cancel(r.Context(), booking.ID)
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrNotFound):
			app.notFoundResponse(w, r, err)
		case errors.Is(err, bookings.ErrNotCancellable):
			app.conflictResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.recordAudit(r, audit.Entry{
		Action:    audit.ActionUpdate,
		Resource:  "bookings",
		RecordID:  booking.ID,
		OldValues: map[string]any{"status": previous},
		NewValues: map[string]any{"status": bookings.StatusCancelled},
	})

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"status": bookings.StatusCancelled}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// fetchOwnedBooking loads the booking from the URL and enforces that the
// caller owns it, with staff and admins allowed through as a fallback.
func (app *application) fetchOwnedBooking(w http.ResponseWriter, r *http.Request) (*bookings.Booking, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "bookingID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid booking id"))
		return nil, false
	}

	booking, err := app.store.Bookings.GetByID(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return nil, false
	}

	identity := getIdentityFromContext(r)
	fallback := authz.Roles(authz.RoleStaff, authz.RoleAdmin)
	switch err := authz.AuthorizeOwner(identity, booking.UserID, fallback); {
	case err == nil:
	case errors.Is(err, authz.ErrUnauthorized):
		app.authenticationRequiredResponse(w, r)
		return nil, false
	default:
		app.forbiddenResponse(w, r)
		return nil, false
	}

	return booking, true
}

// Slot is one hour of the availability grid.
type Slot struct {
	Time      time.Time `json:"time"`
	Remaining int       `json:"remaining"`
}

// availabilityHandler godoc
//
//	@Summary		Drop-off availability for a day
//	@Description	Returns every hourly slot inside business hours and how many drop-offs each can still take.
//	@Tags			bookings
//	@Produce		json
//	@Param			date	query	string	true	"Day, formatted 2006-01-02"
//	@Success		200		{array}	Slot
//	@Failure		400		{object}	error
//	@Router			/bookings/availability [get]
func (app *application) availabilityHandler(w http.ResponseWriter, r *http.Request) {
	date, err := time.Parse("2006-01-02", r.URL.Query().Get("date"))
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("date must be formatted 2006-01-02"))
		return
	}

	shop, err := app.store.Settings.Get(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	taken, err := app.store.Bookings.GetDropOffsForDate(r.Context(), date)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	held := make(map[int]int, len(taken))
	for _, t := range taken {
		held[t.Hour()]++
	}

	slots := make([]Slot, 0, shop.CloseHour-shop.OpenHour)
	for hour := shop.OpenHour; hour < shop.CloseHour; hour++ {
		remaining := shop.SlotCapacity - held[hour]
		if remaining < 0 {
			remaining = 0
		}
		slots = append(slots, Slot{
			Time:      time.Date(date.Year(), date.Month(), date.Day(), hour, 0, 0, 0, date.Location()),
			Remaining: remaining,
		})
	}

	if err := app.jsonResponse(w, http.StatusOK, slots); err != nil {
		app.internalServerError(w, r, err)
	}
}

// adminListBookingsHandler godoc
//
//	@Summary	List bookings for staff
//	@Tags		bookings
//	@Produce	json
//	@Param		status	query		string	false	"Filter by status"
//	@Param		date	query		string	false	"Filter by drop-off day, formatted 2006-01-02"
//	@Param		page	query		int		false	"Page"
//	@Param		limit	query		int		false	"Page size"
//	@Success	200		{object}	map[string]any
//	@Security	ApiKeyAuth
//	@Router		/admin/bookings [get]
func (app *application) adminListBookingsHandler(w http.ResponseWriter, r *http.Request) {
	page, limit := paginationParams(r)

	filter := bookings.ListFilter{Page: page, Limit: limit}

	if status := r.URL.Query().Get("status"); status != "" {
		if !bookings.KnownStatus(status) {
			app.badRequestResponse(w, r, fmt.Errorf("unknown status %q", status))
			return
		}
		filter.Status = &status
	}

	if rawDate := r.URL.Query().Get("date"); rawDate != "" {
		date, err := time.Parse("2006-01-02", rawDate)
		if err != nil {
			app.badRequestResponse(w, r, fmt.Errorf("date must be formatted 2006-01-02"))
			return
		}
		filter.Date = &date
	}

	rows, total, err := app.store.Bookings.ListAdmin(r.Context(), filter)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	response := map[string]any{
		"bookings": rows,
		"total":    total,
		"page":     page,
		"limit":    limit,
	}

	if err := app.jsonResponse(w, http.StatusOK, response); err != nil {
		app.internalServerError(w, r, err)
	}
}

type UpdateBookingStatusPayload struct {
	Status string `json:"status" validate:"required"`
}

// updateBookingStatusHandler godoc
//
//	@Summary		Move a booking through its lifecycle
//	@Description	pending -> confirmed -> in_progress -> completed; cancelled from pending or confirmed. Re-asserting the current status succeeds without effect.
//	@Tags			bookings
//	@Accept			json
//	@Produce		json
//	@Param			bookingID	path		int							true	"Booking ID"
//	@Param			payload		body		UpdateBookingStatusPayload	true	"Target status"
//	@Success		200			{object}	map[string]string
//	@Failure		404			{object}	error
//	@Failure		409			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/admin/bookings/{bookingID}/status [put]
func (app *application) updateBookingStatusHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "bookingID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid booking id"))
		return
	}

	var payload UpdateBookingStatusPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if !bookings.KnownStatus(payload.Status) {
		app.badRequestResponse(w, r, fmt.Errorf("unknown status %q", payload.Status))
		return
	}

	previous, err := app.store.Bookings.UpdateStatus(r.Context(), id, payload.Status)
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrNotFound):
			app.notFoundResponse(w, r, err)
		case errors.Is(err, bookings.ErrInvalidTransition):
			app.conflictResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.recordAudit(r, audit.Entry{
		Action:    audit.ActionUpdate,
		Resource:  "bookings",
		RecordID:  id,
		OldValues: map[string]any{"status": previous},
		NewValues: map[string]any{"status": payload.Status},
	})

	if previous != payload.Status {
		app.notifyBookingStatus(r, id, payload.Status)
	}

	response := map[string]string{
		"previous_status": previous,
		"status":          payload.Status,
	}
	if err := app.jsonResponse(w, http.StatusOK, response); err != nil {
		app.internalServerError(w, r, err)
	}
}

// notifyBookingStatus emails the customer on the transitions they care
// about. Delivery failures are logged and never fail the status update.
func (app *application) notifyBookingStatus(r *http.Request, bookingID int64, status string) {
	var template string
	switch status {
	case bookings.StatusConfirmed:
		template = mailer.BookingConfirmedTemplate
	case bookings.StatusCompleted:
		template = mailer.BookingCompletedTemplate
	default:
		return
	}

	ctx := r.Context()

	booking, err := app.store.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		app.logger.Errorw("error loading booking for notification", "booking_id", bookingID, "error", err)
		return
	}
	customer, err := app.store.Users.GetByID(ctx, booking.UserID)
	if err != nil {
		app.logger.Errorw("error loading customer for notification", "booking_id", bookingID, "error", err)
		return
	}
	service, err := app.store.Services.GetByID(ctx, booking.ServiceID)
	if err != nil {
		app.logger.Errorw("error loading service for notification", "booking_id", bookingID, "error", err)
		return
	}

	vehicle := fmt.Sprintf("%d %s %s", booking.VehicleYear, booking.VehicleMake, booking.VehicleModel)
	vars := struct {
		Username    string
		Reference   string
		ServiceName string
		DropOff     string
		Vehicle     string
	}{
		Username:    customer.FirstName,
		Reference:   booking.Reference,
		ServiceName: service.Name,
		DropOff:     booking.DropOffAt.Format("Mon, Jan 2 at 3 PM"),
		Vehicle:     vehicle,
	}

	if _, err := app.mailer.Send(template, customer.FirstName, customer.Email, vars); err != nil {
		app.logger.Errorw("error sending booking email", "booking_id", bookingID, "template", template, "error", err)
	}
}

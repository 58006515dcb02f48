package main

import (
	"fmt"
	"net/http"

	"bodyshop/internal/audit"
	"bodyshop/internal/domain/settings"
)

// getSettingsHandler godoc
//
//	@Summary	Shop contact details and hours
//	@Tags		settings
//	@Produce	json
//	@Success	200	{object}	settings.Settings
//	@Router		/settings [get]
func (app *application) getSettingsHandler(w http.ResponseWriter, r *http.Request) {
	shop, err := app.store.Settings.Get(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, shop); err != nil {
		app.internalServerError(w, r, err)
	}
}

type UpdateSettingsPayload struct {
	Phone         string            `json:"phone" validate:"required,usphone"`
	Email         string            `json:"email" validate:"required,email"`
	Address       string            `json:"address" validate:"required,max=300"`
	BusinessHours map[string]string `json:"business_hours" validate:"required"`
	OpenHour      int               `json:"open_hour" validate:"min=0,max=23"`
	CloseHour     int               `json:"close_hour" validate:"min=1,max=24"`
	SlotCapacity  int               `json:"slot_capacity" validate:"required,min=1,max=20"`
}

// updateSettingsHandler godoc
//
//	@Summary		Replace the shop settings
//	@Description	Full replacement of the single settings record.
//	@Tags			settings
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		UpdateSettingsPayload	true	"New settings"
//	@Success		200		{object}	settings.Settings
//	@Failure		400		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/admin/settings [put]
func (app *application) updateSettingsHandler(w http.ResponseWriter, r *http.Request) {
	var payload UpdateSettingsPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if payload.CloseHour <= payload.OpenHour {
		app.badRequestResponse(w, r, fmt.Errorf("close_hour must be after open_hour"))
		return
	}

	next := settings.Settings{
		Phone:         payload.Phone,
		Email:         payload.Email,
		Address:       payload.Address,
		BusinessHours: payload.BusinessHours,
		OpenHour:      payload.OpenHour,
		CloseHour:     payload.CloseHour,
		SlotCapacity:  payload.SlotCapacity,
	}

	old, err := app.store.Settings.Update(r.Context(), next)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.recordAudit(r, audit.Entry{
		Action:   audit.ActionUpdate,
		Resource: "settings",
		RecordID: 1,
		OldValues: map[string]any{
			"phone":         old.Phone,
			"email":         old.Email,
			"address":       old.Address,
			"open_hour":     old.OpenHour,
			"close_hour":    old.CloseHour,
			"slot_capacity": old.SlotCapacity,
		},
		NewValues: map[string]any{
			"phone":         next.Phone,
			"email":         next.Email,
			"address":       next.Address,
			"open_hour":     next.OpenHour,
			"close_hour":    next.CloseHour,
			"slot_capacity": next.SlotCapacity,
		},
	})

	if err := app.jsonResponse(w, http.StatusOK, next); err != nil {
		app.internalServerError(w, r, err)
	}
}

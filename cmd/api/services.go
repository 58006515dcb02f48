package main

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"bodyshop/internal/audit"
	"bodyshop/internal/domain/services"

	"github.com/go-chi/chi/v5"
)

type CreateServicePayload struct {
	Name          string `json:"name" validate:"required,max=100"`
	Slug          string `json:"slug" validate:"omitempty,max=100"`
	Description   string `json:"description" validate:"max=2000"`
	Category      string `json:"category" validate:"required,max=50"`
	PriceMinCents int    `json:"price_min_cents" validate:"min=0"`
	PriceMaxCents int    `json:"price_max_cents" validate:"min=0"`
	EstimatedDays int    `json:"estimated_days" validate:"min=0,max=90"`
	Active        *bool  `json:"active"`
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(name string) string {
	slug := slugPattern.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}

// listServicesHandler godoc
//
//	@Summary	List the repair catalog
//	@Tags		services
//	@Produce	json
//	@Success	200	{array}	services.Service
//	@Router		/services [get]
func (app *application) listServicesHandler(w http.ResponseWriter, r *http.Request) {
	// Staff and admins see retired services too.
	activeOnly := true
	if identity := getIdentityFromContext(r); identity != nil && identity.Role != "client" {
		activeOnly = false
	}

	list, err := app.store.Services.List(r.Context(), activeOnly)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, list); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getServiceHandler godoc
//
//	@Summary	Get one catalog entry by slug
//	@Tags		services
//	@Produce	json
//	@Param		slug	path		string	true	"Service slug"
//	@Success	200		{object}	services.Service
//	@Failure	404		{object}	error
//	@Router		/services/{slug} [get]
func (app *application) getServiceHandler(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	service, err := app.store.Services.GetBySlug(r.Context(), slug)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, service); err != nil {
		app.internalServerError(w, r, err)
	}
}

// createServiceHandler godoc
//
//	@Summary	Add a catalog entry
//	@Tags		services
//	@Accept		json
//	@Produce	json
//	@Param		payload	body		CreateServicePayload	true	"Service details"
//	@Success	201		{object}	services.Service
//	@Failure	409		{object}	error
//	@Security	ApiKeyAuth
//	@Router		/admin/services [post]
func (app *application) createServiceHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateServicePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if payload.PriceMaxCents < payload.PriceMinCents {
		app.badRequestResponse(w, r, fmt.Errorf("price_max_cents is below price_min_cents"))
		return
	}

	slug := payload.Slug
	if slug == "" {
		slug = slugify(payload.Name)
	}

	active := true
	if payload.Active != nil {
		active = *payload.Active
	}

	service := &services.Service{
		Name:          payload.Name,
		Slug:          slug,
		Description:   payload.Description,
		Category:      payload.Category,
		PriceMinCents: payload.PriceMinCents,
		PriceMaxCents: payload.PriceMaxCents,
		EstimatedDays: payload.EstimatedDays,
		Active:        active,
	}

	if err := app.store.Services.Create(r.Context(), service); err != nil {
		switch {
		case errors.Is(err, services.ErrDuplicateSlug):
			app.conflictResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.recordAudit(r, audit.Entry{
		Action:   audit.ActionCreate,
		Resource: "services",
		RecordID: service.ID,
		NewValues: map[string]any{
			"name":     service.Name,
			"slug":     service.Slug,
			"category": service.Category,
			"active":   service.Active,
		},
	})

	if err := app.jsonResponse(w, http.StatusCreated, service); err != nil {
		app.internalServerError(w, r, err)
	}
}

type UpdateServicePayload struct {
	Name          *string `json:"name" validate:"omitempty,max=100"`
	Description   *string `json:"description" validate:"omitempty,max=2000"`
	Category      *string `json:"category" validate:"omitempty,max=50"`
	PriceMinCents *int    `json:"price_min_cents" validate:"omitempty,min=0"`
	PriceMaxCents *int    `json:"price_max_cents" validate:"omitempty,min=0"`
	EstimatedDays *int    `json:"estimated_days" validate:"omitempty,min=0,max=90"`
	Active        *bool   `json:"active"`
}

// updateServiceHandler godoc
//
//	@Summary		Update a catalog entry
//	@Description	Partial update; only the fields present in the payload change.
//	@Tags			services
//	@Accept			json
//	@Produce		json
//	@Param			serviceID	path		int						true	"Service ID"
//	@Param			payload		body		UpdateServicePayload	true	"Changed fields"
//	@Success		200			{object}	map[string]any
//	@Failure		404			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/admin/services/{serviceID} [patch]
func (app *application) updateServiceHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "serviceID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid service id"))
		return
	}

	var payload UpdateServicePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	changes := services.Changes{}
	if payload.Name != nil {
		changes["name"] = *payload.Name
	}
	if payload.Description != nil {
		changes["description"] = *payload.Description
	}
	if payload.Category != nil {
		changes["category"] = *payload.Category
	}
	if payload.PriceMinCents != nil {
		changes["price_min_cents"] = *payload.PriceMinCents
	}
	if payload.PriceMaxCents != nil {
		changes["price_max_cents"] = *payload.PriceMaxCents
	}
	if payload.EstimatedDays != nil {
		changes["estimated_days"] = *payload.EstimatedDays
	}
	if payload.Active != nil {
		changes["active"] = *payload.Active
	}
	if len(changes) == 0 {
		app.badRequestResponse(w, r, fmt.Errorf("no fields to update"))
		return
	}

	old, err := app.store.Services.Update(r.Context(), id, changes)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.recordAudit(r, audit.Entry{
		Action:    audit.ActionUpdate,
		Resource:  "services",
		RecordID:  id,
		OldValues: old,
		NewValues: changes,
	})

	if err := app.jsonResponse(w, http.StatusOK, map[string]any{"updated": changes}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deleteServiceHandler godoc
//
//	@Summary	Remove a catalog entry
//	@Tags		services
//	@Produce	json
//	@Param		serviceID	path		int		true	"Service ID"
//	@Success	204			{string}	string
//	@Failure	404			{object}	error
//	@Security	ApiKeyAuth
//	@Router		/admin/services/{serviceID} [delete]
func (app *application) deleteServiceHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "serviceID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid service id"))
		return
	}

	deleted, err := app.store.Services.Delete(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.recordAudit(r, audit.Entry{
		Action:   audit.ActionDelete,
		Resource: "services",
		RecordID: id,
		OldValues: map[string]any{
			"name": deleted.Name,
			"slug": deleted.Slug,
		},
	})

	if err := app.jsonResponse(w, http.StatusNoContent, ""); err != nil {
		app.internalServerError(w, r, err)
	}
}

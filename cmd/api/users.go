package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"bodyshop/internal/audit"
	"bodyshop/internal/authz"
	"bodyshop/internal/domain/users"

	"github.com/go-chi/chi/v5"
)

type UpdateProfilePayload struct {
	FirstName *string `json:"first_name" validate:"omitempty,max=50"`
	LastName  *string `json:"last_name" validate:"omitempty,max=50"`
	Phone     *string `json:"phone" validate:"omitempty,usphone"`
}

// updateProfileHandler godoc
//
//	@Summary	Update the caller's profile
//	@Tags		users
//	@Accept		json
//	@Produce	json
//	@Param		payload	body		UpdateProfilePayload	true	"Changed fields"
//	@Success	200		{object}	map[string]string
//	@Failure	400		{object}	error
//	@Security	ApiKeyAuth
//	@Router		/users [put]
func (app *application) updateProfileHandler(w http.ResponseWriter, r *http.Request) {
	identity := getIdentityFromContext(r)
	if identity == nil {
		app.authenticationRequiredResponse(w, r)
		return
	}

	var payload UpdateProfilePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	updates := map[string]any{}
	if payload.FirstName != nil {
		updates["first_name"] = *payload.FirstName
	}
	if payload.LastName != nil {
		updates["last_name"] = *payload.LastName
	}
	if payload.Phone != nil {
		updates["phone"] = *payload.Phone
	}
	if len(updates) == 0 {
		app.badRequestResponse(w, r, fmt.Errorf("no fields to update"))
		return
	}

	err := app.store.Users.UpdateProfile(r.Context(), identity.UserID, updates)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrDuplicatePhoneNumber):
			app.badRequestResponse(w, r, err)
		case errors.Is(err, users.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"message": "profile updated"}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// adminListUsersHandler godoc
//
//	@Summary	List accounts for the admin panel
//	@Tags		users
//	@Produce	json
//	@Param		role	query		string	false	"Filter by role"
//	@Param		search	query		string	false	"Match against name or email"
//	@Param		page	query		int		false	"Page"
//	@Param		limit	query		int		false	"Page size"
//	@Success	200		{object}	map[string]any
//	@Security	ApiKeyAuth
//	@Router		/admin/users [get]
func (app *application) adminListUsersHandler(w http.ResponseWriter, r *http.Request) {
	page, limit := paginationParams(r)

	filter := users.AdminListFilter{
		Search: r.URL.Query().Get("search"),
		Page:   page,
		Limit:  limit,
	}
	if role := r.URL.Query().Get("role"); role != "" {
		if !authz.KnownRole(role) {
			app.badRequestResponse(w, r, fmt.Errorf("unknown role %q", role))
			return
		}
		filter.Role = &role
	}

	rows, total, err := app.store.Users.ListAdmin(r.Context(), filter)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	response := map[string]any{
		"users": rows,
		"total": total,
		"page":  page,
		"limit": limit,
	}
	if err := app.jsonResponse(w, http.StatusOK, response); err != nil {
		app.internalServerError(w, r, err)
	}
}

type UpdateUserRolePayload struct {
	Role string `json:"role" validate:"required"`
}

// updateUserRoleHandler godoc
//
//	@Summary		Change an account's role
//	@Description	The new role takes effect when the user next logs in or refreshes; outstanding access tokens keep their old role claim until they expire.
//	@Tags			users
//	@Accept			json
//	@Produce		json
//	@Param			userID	path		int						true	"User ID"
//	@Param			payload	body		UpdateUserRolePayload	true	"New role"
//	@Success		200		{object}	map[string]string
//	@Failure		404		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/admin/users/{userID}/role [patch]
func (app *application) updateUserRoleHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid user id"))
		return
	}

	var payload UpdateUserRolePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if !authz.KnownRole(payload.Role) {
		app.badRequestResponse(w, r, fmt.Errorf("unknown role %q", payload.Role))
		return
	}

	previous, err := app.store.Users.UpdateRole(r.Context(), id, payload.Role)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.recordAudit(r, audit.Entry{
		Action:    audit.ActionUpdate,
		Resource:  "users",
		RecordID:  id,
		OldValues: map[string]any{"role": previous},
		NewValues: map[string]any{"role": payload.Role},
	})

	response := map[string]string{
		"previous_role": previous,
		"role":          payload.Role,
	}
	if err := app.jsonResponse(w, http.StatusOK, response); err != nil {
		app.internalServerError(w, r, err)
	}
}

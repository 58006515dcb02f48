package main

import (
	"errors"
	"net/http"
	"strings"

	"bodyshop/internal/domain/users"
)

// setAuthCookies installs the token pair as HttpOnly cookies. The access
// token is scoped site-wide so SessionMiddleware can read it; the refresh
// token only ever travels to the refresh endpoint.
func (app *application) setAuthCookies(w http.ResponseWriter, accessToken, refreshToken string) {
	secure := app.config.env == "production"

	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    accessToken,
		Path:     "/",
		MaxAge:   int(app.config.auth.token.accessTokenExp.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     "refresh_token",
		Value:    refreshToken,
		Path:     "/v1/authentication/web/refresh",
		MaxAge:   int(app.config.auth.token.refreshTokenExp.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (app *application) clearAuthCookies(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     "refresh_token",
		Value:    "",
		Path:     "/v1/authentication/web/refresh",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// createTokenCookieHandler godoc
//
//	@Summary		Login for browser sessions
//	@Description	Same verification as the bearer login, but the pair is set as HttpOnly cookies instead of returned in the body.
//	@Tags			authentication
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateUserTokenPayload	true	"User credentials"
//	@Success		200		{object}	map[string]string
//	@Failure		401		{object}	error
//	@Router			/authentication/web/token [post]
func (app *application) createTokenCookieHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateUserTokenPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user, err := app.store.Users.GetByEmail(r.Context(), strings.ToLower(payload.Email))
	if err != nil {
		switch {
		case errors.Is(err, users.ErrNotFound):
			app.unauthorizedErrorResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := user.Password.Compare(payload.Password); err != nil {
		app.unauthorizedErrorResponse(w, r, err)
		return
	}

	role := app.resolveRole(user)

	accessToken, refreshToken, err := app.authenticator.GenerateTokens(user.ID, role, user.Email)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.store.Users.SaveRefreshToken(r.Context(), user.ID, refreshToken); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.setAuthCookies(w, accessToken, refreshToken)

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"role": role}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// refreshTokenCookieHandler godoc
//
//	@Summary	Rotate a browser session
//	@Tags		authentication
//	@Produce	json
//	@Success	200	{object}	map[string]string
//	@Failure	401	{object}	error
//	@Router		/authentication/web/refresh [post]
func (app *application) refreshTokenCookieHandler(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie("refresh_token")
	if err != nil || cookie.Value == "" {
		app.authenticationRequiredResponse(w, r)
		return
	}

	response, err := app.rotateTokens(r, cookie.Value)
	if err != nil {
		app.clearAuthCookies(w)
		app.unauthorizedErrorResponse(w, r, err)
		return
	}

	app.setAuthCookies(w, response.AccessToken, response.RefreshToken)

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"role": response.Role}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// logoutCookieHandler godoc
//
//	@Summary	Logout a browser session
//	@Tags		authentication
//	@Produce	json
//	@Success	204	{string}	string
//	@Router		/authentication/web/logout [post]
func (app *application) logoutCookieHandler(w http.ResponseWriter, r *http.Request) {
	// Best effort: revoke the stored refresh token when the session is still
	// identifiable, clear the cookies either way.
	if identity := getIdentityFromContext(r); identity != nil {
		if err := app.store.Users.DeleteRefreshToken(r.Context(), identity.UserID); err != nil {
			app.logger.Errorw("error revoking refresh token on logout", "error", err)
		}
	}

	app.clearAuthCookies(w)

	if err := app.jsonResponse(w, http.StatusNoContent, ""); err != nil {
		app.internalServerError(w, r, err)
	}
}

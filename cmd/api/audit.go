package main

import (
	"fmt"
	"net/http"
	"strconv"

	"bodyshop/internal/audit"
)

// recordAudit stamps the entry with the acting identity and client address
// before handing it to the best-effort writer.
func (app *application) recordAudit(r *http.Request, entry audit.Entry) {
	if identity := getIdentityFromContext(r); identity != nil {
		entry.ActorID = identity.UserID
	}
	entry.IPAddress = r.RemoteAddr

	app.auditor.Record(r.Context(), entry)
}

// paginationParams reads page/limit query parameters with sane bounds.
func paginationParams(r *http.Request) (page, limit int) {
	page, limit = 1, 20

	if raw := r.URL.Query().Get("page"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			page = parsed
		}
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}
	return page, limit
}

// listAuditLogsHandler godoc
//
//	@Summary	Browse the audit trail
//	@Tags		ops
//	@Produce	json
//	@Param		resource	query		string	false	"Filter by resource"
//	@Param		actor_id	query		int		false	"Filter by acting user"
//	@Param		page		query		int		false	"Page"
//	@Param		limit		query		int		false	"Page size"
//	@Success	200			{object}	map[string]any
//	@Security	ApiKeyAuth
//	@Router		/admin/audit-logs [get]
func (app *application) listAuditLogsHandler(w http.ResponseWriter, r *http.Request) {
	page, limit := paginationParams(r)

	filter := audit.Filter{
		Resource: r.URL.Query().Get("resource"),
		Page:     page,
		Limit:    limit,
	}

	if raw := r.URL.Query().Get("actor_id"); raw != "" {
		actorID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			app.badRequestResponse(w, r, fmt.Errorf("invalid actor_id"))
			return
		}
		filter.ActorID = &actorID
	}

	entries, total, err := app.store.AuditLogs.List(r.Context(), filter)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	response := map[string]any{
		"entries": entries,
		"total":   total,
		"page":    page,
		"limit":   limit,
	}
	if err := app.jsonResponse(w, http.StatusOK, response); err != nil {
		app.internalServerError(w, r, err)
	}
}

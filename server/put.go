package server

import (
	"net/http"

	"github.com/calyptra/calyptra/server/storage"
)

func (h *Handler) handlePut(w http.ResponseWriter, r *http.Request, ctx *requestContext) {
	cal := firstCalendar(ctx.chain)
	if cal == nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	name := itemNameFromPath(ctx.path, cal)
	if name == "" {
		h.Logger.Warn("put target is not an item", "path", ctx.path)
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	// PUT is allowed in three cases: no item and no precondition (create),
	// item with a verified precondition (modify), item without a
	// precondition (forced modify). Everything else is rejected before any
	// storage call.
	existing := cal.Item(name)
	ifMatch := r.Header.Get("If-Match")
	if existing == nil && ifMatch != "" {
		h.Logger.Warn("precondition on nonexistent item", "path", ctx.path, "etag", ifMatch)
		http.Error(w, "Precondition Failed", http.StatusPreconditionFailed)
		return
	}
	if existing != nil && ifMatch != "" && ifMatch != existing.ETag() {
		h.Logger.Warn("etag mismatch", "path", ctx.path,
			"client_etag", ifMatch, "server_etag", existing.ETag())
		http.Error(w, "Precondition Failed", http.StatusPreconditionFailed)
		return
	}

	components, tz, _, err := storage.ParseCalendarObjects(ctx.body)
	if err != nil || len(components) == 0 {
		h.Logger.Warn("invalid calendar body", "path", ctx.path, "error", err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	item := &storage.Item{Name: name, CalendarPath: cal.Path, Component: components[0]}
	etag, err := h.Storage.PutItem(cal.Path, item)
	if err != nil {
		h.Logger.Error("failed to store item", "path", ctx.path, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if tz != nil && cal.Timezone == nil {
		if err := h.Storage.SetTimezone(cal.Path, tz); err != nil {
			h.Logger.Error("failed to store timezone", "path", ctx.path, "error", err)
		}
	}

	h.Logger.Info("item stored", "path", ctx.path, "etag", etag)
	w.Header().Set("ETag", etag)
	w.WriteHeader(http.StatusCreated)
}

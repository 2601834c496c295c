package server

import (
	"net/http"

	"github.com/calyptra/calyptra/server/storage"
)

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request, ctx *requestContext) {
	cal := firstCalendar(ctx.chain)
	if cal == nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	ifMatch := r.Header.Get("If-Match")

	if name := itemNameFromPath(ctx.path, cal); name != "" {
		item := cal.Item(name)
		if item == nil || !etagMatches(ifMatch, item.ETag()) {
			http.Error(w, "Precondition Failed", http.StatusPreconditionFailed)
			return
		}
		if err := h.Storage.RemoveItem(cal.Path, name); err != nil {
			h.Logger.Error("failed to remove item", "path", ctx.path, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		h.Logger.Info("item removed", "path", ctx.path)
		w.WriteHeader(http.StatusNoContent)
		return
	}

	// Whole-collection delete requires Depth infinity and checks the
	// collection's own tag.
	if ctx.depth != storage.DepthInfinity || !cal.Present {
		http.Error(w, "Precondition Failed", http.StatusPreconditionFailed)
		return
	}
	if !etagMatches(ifMatch, cal.ETag()) {
		http.Error(w, "Precondition Failed", http.StatusPreconditionFailed)
		return
	}
	if err := h.Storage.DeleteCalendar(cal.Path); err != nil {
		h.Logger.Error("failed to delete calendar", "path", ctx.path, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	h.Logger.Info("calendar deleted", "path", ctx.path)
	w.WriteHeader(http.StatusNoContent)
}

// etagMatches treats an absent If-Match header and the wildcard as always
// matching.
func etagMatches(header, etag string) bool {
	return header == "" || header == "*" || header == etag
}

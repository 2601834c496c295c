package server

import (
	"errors"
	"net/http"

	"github.com/calyptra/calyptra/internal/charset"
	"github.com/calyptra/calyptra/server/storage"
)

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request, ctx *requestContext) {
	h.serveGet(w, ctx, true)
}

// HEAD is GET minus the body.
func (h *Handler) handleHead(w http.ResponseWriter, r *http.Request, ctx *requestContext) {
	h.serveGet(w, ctx, false)
}

func (h *Handler) serveGet(w http.ResponseWriter, ctx *requestContext, withBody bool) {
	cal := firstCalendar(ctx.chain)
	if cal == nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	var (
		text string
		etag string
		err  error
	)
	if name := itemNameFromPath(ctx.path, cal); name != "" {
		item, getErr := h.Storage.GetItem(cal.Path, name)
		if errors.Is(getErr, storage.ErrGone) || errors.Is(getErr, storage.ErrNotFound) {
			http.Error(w, "Gone", http.StatusGone)
			return
		} else if getErr != nil {
			h.Logger.Error("failed to load item", "path", ctx.path, "error", getErr)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		text, err = storage.SerializeCalendar(cal.Headers, cal.Timezone, item)
		etag = item.ETag()
	} else {
		if !cal.Present {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
		text, err = storage.SerializeCalendar(cal.Headers, cal.Timezone, cal.Items...)
		etag = cal.ETag()
	}
	if err != nil {
		h.Logger.Error("failed to serialize calendar", "path", ctx.path, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	body, err := charset.Encode(text, h.charset())
	if err != nil {
		h.Logger.Error("failed to encode response", "path", ctx.path, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset="+h.charset())
	w.Header().Set("ETag", etag)
	w.WriteHeader(http.StatusOK)
	if withBody {
		w.Write(body)
	}
}

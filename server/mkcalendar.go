package server

import (
	"net/http"

	"github.com/emersion/go-ical"

	"github.com/calyptra/calyptra/internal/xml"
	"github.com/calyptra/calyptra/server/storage"
)

func (h *Handler) handleMkcalendar(w http.ResponseWriter, r *http.Request, ctx *requestContext) {
	w.Header().Set("Cache-Control", "no-cache")

	if h.Storage.Exists(ctx.path) {
		h.Logger.Warn("mkcalendar target exists", "path", ctx.path)
		body, err := xml.Render(xml.NewError("D", "resource-must-be-null"), h.charset())
		if err != nil {
			h.Logger.Error("failed to render error body", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/xml; charset="+h.charset())
		w.WriteHeader(http.StatusConflict)
		w.Write(body)
		return
	}

	// The body is parsed in full before the collection is created, so a
	// malformed request leaves no partial state behind.
	var (
		tz   *ical.Component
		rest []xml.Prop
	)
	if ctx.body != "" {
		doc, err := xml.Parse(ctx.body)
		if err != nil {
			h.Logger.Warn("unparsable mkcalendar body", "path", ctx.path, "error", err)
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
		for _, p := range xml.PropsFromAction(doc.Root(), "set") {
			if p.Tag == timezoneProp {
				parsed, err := storage.ParseTimezone(p.Value)
				if err != nil {
					h.Logger.Warn("unparsable timezone value", "path", ctx.path, "error", err)
					continue
				}
				tz = parsed
				continue
			}
			rest = append(rest, p)
		}
	}

	if _, err := h.Storage.CreateCalendar(ctx.path); err != nil {
		h.Logger.Error("failed to create calendar", "path", ctx.path, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if tz != nil {
		if err := h.Storage.SetTimezone(ctx.path, tz); err != nil {
			h.Logger.Error("failed to store timezone", "path", ctx.path, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
	}
	if len(rest) > 0 {
		err := h.Storage.UpdateProps(ctx.path, func(props map[string]string) error {
			for _, p := range rest {
				props[p.Tag] = p.Value
			}
			return nil
		})
		if err != nil {
			h.Logger.Error("failed to store properties", "path", ctx.path, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
	}

	h.Logger.Info("calendar created", "path", ctx.path)
	w.WriteHeader(http.StatusCreated)
}

// MKCOL is answered with 501; plain WebDAV collections are not served.
func (h *Handler) handleMkcol(w http.ResponseWriter, r *http.Request, ctx *requestContext) {
	http.Error(w, "Not Implemented", http.StatusNotImplemented)
}

package server

import (
	"net/http"

	"github.com/calyptra/calyptra/internal/xml"
	"github.com/calyptra/calyptra/server/storage"
)

const timezoneProp = "C:calendar-timezone"

func (h *Handler) handleProppatch(w http.ResponseWriter, r *http.Request, ctx *requestContext) {
	cal := firstCalendar(ctx.chain)
	if cal == nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	doc, err := xml.Parse(ctx.body)
	if err != nil {
		h.Logger.Warn("unparsable proppatch body", "path", ctx.path, "error", err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	setProps := xml.PropsFromAction(doc.Root(), "set")
	removeProps := xml.PropsFromAction(doc.Root(), "remove")

	// Timezone sets replace the embedded component and persist immediately,
	// outside the property store transaction. A value that does not parse
	// fails that property alone.
	timezoneCode := http.StatusOK
	for _, p := range setProps {
		if p.Tag != timezoneProp {
			continue
		}
		tz, err := storage.ParseTimezone(p.Value)
		if err != nil {
			h.Logger.Warn("unparsable timezone value", "path", ctx.path, "error", err)
			timezoneCode = http.StatusConflict
			continue
		}
		if err := h.Storage.SetTimezone(cal.Path, tz); err != nil {
			h.Logger.Error("failed to store timezone", "path", ctx.path, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
	}

	// Sets before removes. Removing an absent property reports 412 for that
	// property only; the rest of the transaction still commits.
	type propStatus struct {
		tag  string
		code int
	}
	var statuses []propStatus
	err = h.Storage.UpdateProps(cal.Path, func(props map[string]string) error {
		for _, p := range setProps {
			code := http.StatusOK
			if p.Tag == timezoneProp {
				code = timezoneCode
			} else {
				props[p.Tag] = p.Value
			}
			statuses = append(statuses, propStatus{p.Tag, code})
		}
		for _, p := range removeProps {
			if _, ok := props[p.Tag]; ok {
				delete(props, p.Tag)
				statuses = append(statuses, propStatus{p.Tag, http.StatusOK})
			} else {
				statuses = append(statuses, propStatus{p.Tag, http.StatusPreconditionFailed})
			}
		}
		return nil
	})
	if err != nil {
		h.Logger.Error("failed to update properties", "path", ctx.path, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	msDoc := xml.NewMultistatus()
	resp := xml.AddResponse(msDoc.Root(), ctx.path)
	for _, s := range statuses {
		xml.AddPropstat(resp, s.tag, s.code)
	}
	h.writeMultistatus(w, msDoc)
}

package server

import (
	"net/http"

	"github.com/calyptra/calyptra/server/storage"
)

// gate filters the resolved resource chain through the authorization
// backend. It returns false after writing a 401 when nothing survives.
// Gating is skipped entirely for an empty chain or a nil backend.
//
// Each calendar gets exactly one backend call per request; items inherit
// the decision of their own parent calendar, not of whichever calendar
// happened to precede them in the chain.
func (h *Handler) gate(w http.ResponseWriter, r *http.Request, ctx *requestContext) bool {
	if len(ctx.chain) == 0 || h.Auth == nil {
		return true
	}

	user, password, _ := r.BasicAuth()
	ctx.user = user

	decisions := make(map[string]bool)
	authorize := func(path, owner string) bool {
		if decision, seen := decisions[path]; seen {
			return decision
		}
		decision := h.Auth.Authorize(owner, user, password)
		decisions[path] = decision
		if decision {
			h.Logger.Info("access granted", "calendar", path, "user", orAnonymous(user))
		} else {
			h.Logger.Info("access refused", "calendar", path, "user", orAnonymous(user))
		}
		return decision
	}

	var filtered []storage.Resource
	for _, res := range ctx.chain {
		switch res := res.(type) {
		case *storage.Calendar:
			if authorize(res.Path, res.Owner) {
				filtered = append(filtered, res)
			}
		case *storage.Item:
			decision, seen := decisions[res.CalendarPath]
			if !seen {
				// The resolver emitted an item before its calendar; look the
				// parent up so the decision still derives from its owner.
				cal, err := h.Storage.GetCalendar(res.CalendarPath)
				if err != nil {
					continue
				}
				decision = authorize(cal.Path, cal.Owner)
			}
			if decision {
				filtered = append(filtered, res)
			}
		}
	}

	if len(filtered) == 0 {
		// Static challenge, independent of whether the resource exists.
		w.Header().Set("WWW-Authenticate", `Basic realm="`+h.Config.Realm+`"`)
		w.WriteHeader(http.StatusUnauthorized)
		return false
	}
	ctx.chain = filtered
	return true
}

func orAnonymous(user string) string {
	if user == "" {
		return "anonymous"
	}
	return user
}

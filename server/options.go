package server

import "net/http"

const allowedMethods = "DELETE, GET, HEAD, MKCALENDAR, MKCOL, OPTIONS, PROPFIND, PROPPATCH, PUT, REPORT"

func (h *Handler) handleOptions(w http.ResponseWriter, r *http.Request, ctx *requestContext) {
	w.Header().Set("Allow", allowedMethods)
	w.Header().Set("DAV", davCapabilities)
	w.WriteHeader(http.StatusOK)
}

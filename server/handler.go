// Package server implements the CalDAV protocol engine: method dispatch,
// authorization gating, the XML property protocol, conditional writes and
// recurrence-aware reports. Persistence and credential policy are delegated
// to the storage and auth collaborators.
package server

import (
	"log/slog"
	"net/http"

	"github.com/beevik/etree"

	"github.com/calyptra/calyptra/internal/xml"
	"github.com/calyptra/calyptra/server/auth"
	"github.com/calyptra/calyptra/server/storage"
)

const davCapabilities = "1, 3, calendar-access, extended-mkcol"

// Config carries the explicit per-handler settings. Nothing is read from
// ambient process state.
type Config struct {
	// Realm is the Basic auth realm announced on 401 responses.
	Realm string
	// DefaultCharset is tried after the content-type charset when decoding
	// request bodies, and used to encode response bodies. Empty means utf-8.
	DefaultCharset string
}

// command enumerates the supported protocol methods.
type command int

const (
	cmdGet command = iota
	cmdHead
	cmdDelete
	cmdMkcalendar
	cmdMkcol
	cmdOptions
	cmdPropfind
	cmdProppatch
	cmdPut
	cmdReport
)

var commands = map[string]command{
	"GET":        cmdGet,
	"HEAD":       cmdHead,
	"DELETE":     cmdDelete,
	"MKCALENDAR": cmdMkcalendar,
	"MKCOL":      cmdMkcol,
	"OPTIONS":    cmdOptions,
	"PROPFIND":   cmdPropfind,
	"PROPPATCH":  cmdProppatch,
	"PUT":        cmdPut,
	"REPORT":     cmdReport,
}

type handlerFunc func(h *Handler, w http.ResponseWriter, r *http.Request, ctx *requestContext)

var dispatch = map[command]handlerFunc{
	cmdGet:        (*Handler).handleGet,
	cmdHead:       (*Handler).handleHead,
	cmdDelete:     (*Handler).handleDelete,
	cmdMkcalendar: (*Handler).handleMkcalendar,
	cmdMkcol:      (*Handler).handleMkcol,
	cmdOptions:    (*Handler).handleOptions,
	cmdPropfind:   (*Handler).handlePropfind,
	cmdProppatch:  (*Handler).handleProppatch,
	cmdPut:        (*Handler).handlePut,
	cmdReport:     (*Handler).handleReport,
}

// Handler serves CalDAV requests against a storage backend. A nil Auth
// backend disables authorization gating entirely.
type Handler struct {
	Storage storage.Storage
	Auth    auth.Backend
	Config  Config
	Logger  *slog.Logger
}

// NewHandler wires a handler with its collaborators. logger may be nil.
func NewHandler(store storage.Storage, backend auth.Backend, cfg Config, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Realm == "" {
		cfg.Realm = "Calyptra - Password Required"
	}
	return &Handler{Storage: store, Auth: backend, Config: cfg, Logger: logger}
}

// requestContext is the parsed request state handed to method handlers.
type requestContext struct {
	path  string
	body  string
	user  string
	depth storage.Depth
	chain []storage.Resource
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cmd, ok := commands[r.Method]
	if !ok {
		h.Logger.Warn("unsupported method", "method", r.Method)
		http.Error(w, "Not Implemented", http.StatusNotImplemented)
		return
	}

	path := SanitizePath(r.URL.Path)
	h.Logger.Info("request received", "method", r.Method, "path", path)

	body, err := h.readBody(r)
	if err != nil {
		h.Logger.Warn("undecodable request body", "path", path, "error", err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	depth := storage.ParseDepth(r.Header.Get("Depth"), defaultDepth(cmd))
	ctx := &requestContext{
		path:  path,
		body:  body,
		depth: depth,
		chain: h.Storage.Resolve(path, depth),
	}

	if !h.gate(w, r, ctx) {
		return
	}
	dispatch[cmd](h, w, r, ctx)
}

// defaultDepth returns the depth assumed when the client sends none.
// DELETE historically defaults to infinity so a bare collection DELETE
// removes the whole calendar.
func defaultDepth(cmd command) storage.Depth {
	if cmd == cmdDelete {
		return storage.DepthInfinity
	}
	return storage.DepthZero
}

// firstCalendar returns the first collection of a filtered chain.
func firstCalendar(chain []storage.Resource) *storage.Calendar {
	for _, res := range chain {
		if cal, ok := res.(*storage.Calendar); ok {
			return cal
		}
	}
	return nil
}

// charset returns the configured response charset.
func (h *Handler) charset() string {
	if h.Config.DefaultCharset == "" {
		return "utf-8"
	}
	return h.Config.DefaultCharset
}

func (h *Handler) writeMultistatus(w http.ResponseWriter, doc *etree.Document) {
	body, err := xml.Render(doc, h.charset())
	if err != nil {
		h.Logger.Error("failed to render multistatus", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("DAV", davCapabilities)
	w.Header().Set("Content-Type", "text/xml; charset="+h.charset())
	w.WriteHeader(http.StatusMultiStatus)
	w.Write(body)
}

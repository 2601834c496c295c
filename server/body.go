package server

import (
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/calyptra/calyptra/internal/charset"
)

func (h *Handler) readBody(r *http.Request) (string, error) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return "", fmt.Errorf("read request body: %w", err)
	}
	if len(data) == 0 {
		return "", nil
	}
	return decodeBody(data, r.Header.Get("Content-Type"), h.Config.DefaultCharset)
}

// decodeBody interprets raw body bytes as text, trying charsets in order:
// the content-type charset parameter, the configured default, utf-8, then
// iso-8859-1. The first charset that decodes without error wins; a non-empty
// body no charset can decode is fatal for the request.
func decodeBody(data []byte, contentType, defaultCharset string) (string, error) {
	var names []string
	if _, params, err := mime.ParseMediaType(contentType); err == nil {
		if cs := params["charset"]; cs != "" {
			names = append(names, cs)
		}
	}
	if defaultCharset != "" {
		names = append(names, defaultCharset)
	}
	names = append(names, "utf-8", "iso-8859-1")

	for _, name := range names {
		if s, err := charset.Decode(data, name); err == nil {
			return s, nil
		}
	}
	return "", fmt.Errorf("no charset decodes the request body")
}

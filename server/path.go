package server

import (
	"net/url"
	"path"
	"strings"

	"github.com/calyptra/calyptra/server/storage"
)

// SanitizePath percent-decodes a request path and normalizes away "." and
// ".." segments. Decoding runs to a fixed point so the function is
// idempotent and the result carries no remaining escape sequences. The
// result is rooted at "/" and never escapes the served namespace.
func SanitizePath(p string) string {
	for {
		unescaped, err := url.PathUnescape(p)
		if err != nil || unescaped == p {
			break
		}
		p = unescaped
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// itemNameFromPath returns the final segment of p when it addresses an item
// inside the calendar, empty when it addresses the collection itself or
// something outside it.
func itemNameFromPath(p string, cal *storage.Calendar) string {
	p = strings.Trim(SanitizePath(p), "/")
	base := strings.Trim(cal.Path, "/")
	if p == base {
		return ""
	}
	if rest, ok := strings.CutPrefix(p, base+"/"); ok {
		if rest != "" && !strings.Contains(rest, "/") {
			return rest
		}
	}
	return ""
}

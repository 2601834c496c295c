package xml

import (
	"strings"

	"github.com/beevik/etree"
)

// Namespace URIs used by the protocol.
const (
	DAV            = "DAV:"
	CalDAV         = "urn:ietf:params:xml:ns:caldav"
	CalendarServer = "http://calendarserver.org/ns/"
	AppleICal      = "http://apple.com/ns/ical/"
	Me             = "http://me.com/_namespace/"
)

// Namespaces maps the fixed prefixes to their URIs. The table is built once
// and must not be mutated.
var Namespaces = map[string]string{
	"D":    DAV,
	"C":    CalDAV,
	"CS":   CalendarServer,
	"ICAL": AppleICal,
	"ME":   Me,
}

var prefixes = func() map[string]string {
	rev := make(map[string]string, len(Namespaces))
	for prefix, uri := range Namespaces {
		rev[uri] = prefix
	}
	return rev
}()

// Tag builds a prefixed tag name from one of the fixed prefixes and a local
// name, e.g. Tag("D", "getetag") == "D:getetag".
func Tag(prefix, local string) string {
	return prefix + ":" + local
}

// NewElement creates a detached element with the given fixed prefix.
func NewElement(prefix, local string) *etree.Element {
	elem := etree.NewElement(local)
	elem.Space = prefix
	return elem
}

// Humanize returns the canonical prefix:local form of a parsed element for
// known namespaces, resolving whatever prefix the client declared. Elements
// in unknown namespaces are returned with their original tag unchanged.
func Humanize(elem *etree.Element) string {
	if prefix, ok := prefixes[elem.NamespaceURI()]; ok {
		return prefix + ":" + elem.Tag
	}
	return elem.FullTag()
}

// HumanizeName converts a raw tag name to the canonical prefix:local form.
// It accepts Clark notation ("{DAV:}getetag") and prefixed names using the
// fixed prefixes; anything else is returned as is.
func HumanizeName(name string) string {
	if strings.HasPrefix(name, "{") {
		end := strings.Index(name, "}")
		if end < 0 {
			return name
		}
		if prefix, ok := prefixes[name[1:end]]; ok {
			return prefix + ":" + name[end+1:]
		}
		return name
	}
	return name
}

// SplitTag splits a prefixed tag into its prefix and local name. A tag
// without a prefix maps to the WebDAV namespace.
func SplitTag(tag string) (prefix, local string) {
	if idx := strings.Index(tag, ":"); idx >= 0 {
		return tag[:idx], tag[idx+1:]
	}
	return "D", tag
}

// LocalName strips any namespace prefix from a tag.
func LocalName(tag string) string {
	if idx := strings.LastIndex(tag, ":"); idx >= 0 {
		return tag[idx+1:]
	}
	return tag
}

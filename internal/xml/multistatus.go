package xml

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/beevik/etree"

	"github.com/calyptra/calyptra/internal/charset"
)

// StatusLine renders an HTTP status code as the status text used inside
// multistatus documents, e.g. "HTTP/1.1 404 Not Found".
func StatusLine(code int) string {
	return fmt.Sprintf("HTTP/1.1 %d %s", code, http.StatusText(code))
}

// NewMultistatus creates a document with a D:multistatus root declaring the
// fixed namespace table.
func NewMultistatus() *etree.Document {
	doc := etree.NewDocument()
	root := doc.CreateElement("D:multistatus")
	declareNamespaces(root)
	return doc
}

// NewError creates a document with a D:error root wrapping a single
// precondition element, used for structured failure bodies.
func NewError(prefix, condition string) *etree.Document {
	doc := etree.NewDocument()
	root := doc.CreateElement("D:error")
	declareNamespaces(root)
	root.AddChild(NewElement(prefix, condition))
	return doc
}

func declareNamespaces(root *etree.Element) {
	for _, prefix := range []string{"D", "C", "CS", "ICAL", "ME"} {
		root.CreateAttr("xmlns:"+prefix, Namespaces[prefix])
	}
}

// AddResponse appends a D:response with a D:href to the multistatus root and
// returns it. Duplicate slashes in the href are collapsed.
func AddResponse(root *etree.Element, href string) *etree.Element {
	resp := root.CreateElement("D:response")
	h := resp.CreateElement("D:href")
	h.SetText(collapseSlashes(href))
	return resp
}

func collapseSlashes(href string) string {
	for strings.Contains(href, "//") {
		href = strings.ReplaceAll(href, "//", "/")
	}
	return href
}

// AddPropstat appends a propstat group to a response element, holding a
// single empty property element for tag and a status line for code.
func AddPropstat(resp *etree.Element, tag string, code int) {
	propstat := resp.CreateElement("D:propstat")
	prop := propstat.CreateElement("D:prop")
	prefix, local := SplitTag(tag)
	prop.AddChild(NewElement(prefix, local))
	status := propstat.CreateElement("D:status")
	status.SetText(StatusLine(code))
}

// Render serializes the document with an XML declaration, two-space
// indentation and LF line endings, encoded in the given output charset.
// The indentation is cosmetic; consumers must not depend on exact bytes.
func Render(doc *etree.Document, outputCharset string) ([]byte, error) {
	doc.Indent(2)
	body, err := doc.WriteToString()
	if err != nil {
		return nil, fmt.Errorf("serialize xml: %w", err)
	}
	text := `<?xml version="1.0"?>` + "\n" + body
	out, err := charset.Encode(text, outputCharset)
	if err != nil {
		return nil, err
	}
	return out, nil
}

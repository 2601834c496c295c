package xml

import (
	"fmt"

	"github.com/beevik/etree"
)

// Parse reads a request body into a document. An unparsable body is fatal
// for the request.
func Parse(body string) (*etree.Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(body); err != nil {
		return nil, fmt.Errorf("parse xml body: %w", err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("parse xml body: no root element")
	}
	return doc, nil
}

// PropNames returns the humanized tags listed under the root's prop element,
// in document order.
func PropNames(root *etree.Element) []string {
	prop := root.FindElement("prop")
	if prop == nil {
		return nil
	}
	var tags []string
	for _, child := range prop.ChildElements() {
		tags = append(tags, Humanize(child))
	}
	return tags
}

// Prop is one property entry from a set/remove request body, keyed by the
// humanized tag.
type Prop struct {
	Tag   string
	Value string
}

// PropsFromAction collects the properties listed under the given action
// element ("set" or "remove") of root, preserving document order. When the
// action element is absent, the root itself is searched for a prop element,
// matching how MKCALENDAR bodies carry a bare set.
func PropsFromAction(root *etree.Element, action string) []Prop {
	scope := root.FindElement(action)
	if scope == nil {
		scope = root
	}
	prop := scope.FindElement("prop")
	if prop == nil {
		return nil
	}
	var result []Prop
	for _, child := range prop.ChildElements() {
		result = append(result, Prop{Tag: Humanize(child), Value: child.Text()})
	}
	return result
}

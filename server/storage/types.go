package storage

import (
	"crypto/sha1"
	"encoding/hex"
	"sort"
	"strings"
	"time"

	"github.com/emersion/go-ical"
)

// TimeLayout is the compact UTC timestamp format used on the wire for
// time-range filters and rewritten occurrence timestamps.
const TimeLayout = "20060102T150405Z"

// Calendar is a snapshot of one collection: its identity, embedded timezone,
// items and property store contents at resolution time.
type Calendar struct {
	// Path is the canonical collection URL, e.g. "/alice/work".
	Path string
	// Owner is the principal the collection belongs to.
	Owner string
	// Present reports whether the collection is persisted. Resolve hands out
	// non-present calendars so creation methods pass through authorization.
	Present bool
	// Headers are the VCALENDAR-level properties used for re-serialization.
	Headers ical.Props
	// Timezone is the optional embedded VTIMEZONE component.
	Timezone *ical.Component
	// Items holds the collection's items in document order.
	Items []*Item
	// Props is a snapshot of the collection's property store.
	Props map[string]string
}

func (c *Calendar) Href() string { return c.Path }

// ETag is the collection-level tag; it changes whenever any item, the
// timezone or the property store changes.
func (c *Calendar) ETag() string {
	h := sha1.New()
	for _, item := range c.Items {
		h.Write([]byte(item.ETag()))
	}
	if c.Timezone != nil {
		h.Write([]byte(componentDigest(c.Timezone)))
	}
	keys := make([]string, 0, len(c.Props))
	for k := range c.Props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{0})
		h.Write([]byte(c.Props[k]))
		h.Write([]byte{0})
	}
	return `"` + hex.EncodeToString(h.Sum(nil)) + `"`
}

// Item looks up an item by name, nil when absent.
func (c *Calendar) Item(name string) *Item {
	for _, item := range c.Items {
		if item.Name == name {
			return item
		}
	}
	return nil
}

// Components returns every item in the collection.
func (c *Calendar) Components() []*Item { return c.Items }

// Item is one calendar object (event, todo or journal) within a collection.
type Item struct {
	// Name is the item's stable identifier, unique within its collection.
	Name string
	// CalendarPath links the item to its owning collection.
	CalendarPath string
	// Component holds the parsed VEVENT/VTODO/VJOURNAL.
	Component *ical.Component
}

func (i *Item) Href() string {
	return strings.TrimSuffix(i.CalendarPath, "/") + "/" + i.Name
}

// ComponentType returns the item's component name (VEVENT, VTODO, VJOURNAL).
func (i *Item) ComponentType() string { return i.Component.Name }

// ETag is derived from the item's content: two items carry equal tags iff
// their content is equal.
func (i *Item) ETag() string {
	sum := sha1.Sum([]byte(componentDigest(i.Component)))
	return `"` + hex.EncodeToString(sum[:]) + `"`
}

// Start returns the item's DTSTART, zero when absent.
func (i *Item) Start() time.Time {
	t, err := i.Component.Props.DateTime(ical.PropDateTimeStart, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t
}

// End returns the item's DTEND, falling back to DTSTART plus DURATION and
// finally to DTSTART itself.
func (i *Item) End() time.Time {
	if t, err := i.Component.Props.DateTime(ical.PropDateTimeEnd, time.UTC); err == nil {
		return t
	}
	start := i.Start()
	if prop := i.Component.Props.Get(ical.PropDuration); prop != nil {
		if d, err := prop.Duration(); err == nil {
			return start.Add(d)
		}
	}
	return start
}

// Rule returns the item's recurrence rule value, empty when the item does
// not recur.
func (i *Item) Rule() string {
	if prop := i.Component.Props.Get(ical.PropRecurrenceRule); prop != nil {
		return prop.Value
	}
	return ""
}

// Summary returns the item's SUMMARY text.
func (i *Item) Summary() string {
	if prop := i.Component.Props.Get(ical.PropSummary); prop != nil {
		return prop.Value
	}
	return ""
}

// UID returns the item's UID.
func (i *Item) UID() string {
	if prop := i.Component.Props.Get(ical.PropUID); prop != nil {
		return prop.Value
	}
	return ""
}

// Clone deep-copies the item so occurrence synthesis can mutate it freely.
func (i *Item) Clone() *Item {
	return &Item{
		Name:         i.Name,
		CalendarPath: i.CalendarPath,
		Component:    cloneComponent(i.Component),
	}
}

func cloneComponent(comp *ical.Component) *ical.Component {
	out := &ical.Component{
		Name:  comp.Name,
		Props: make(ical.Props, len(comp.Props)),
	}
	for name, props := range comp.Props {
		copied := make([]ical.Prop, len(props))
		for idx, p := range props {
			copied[idx] = ical.Prop{Name: p.Name, Value: p.Value}
			if p.Params != nil {
				params := make(ical.Params, len(p.Params))
				for k, v := range p.Params {
					params[k] = append([]string(nil), v...)
				}
				copied[idx].Params = params
			}
		}
		out.Props[name] = copied
	}
	for _, child := range comp.Children {
		out.Children = append(out.Children, cloneComponent(child))
	}
	return out
}

// componentDigest renders a component deterministically for hashing:
// properties sorted by name, values and parameters in declaration order,
// children recursively. It never fails, unlike a full iCalendar encode.
func componentDigest(comp *ical.Component) string {
	var b strings.Builder
	b.WriteString(comp.Name)
	b.WriteByte('\n')
	names := make([]string, 0, len(comp.Props))
	for name := range comp.Props {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, p := range comp.Props[name] {
			b.WriteString(name)
			b.WriteByte(':')
			paramNames := make([]string, 0, len(p.Params))
			for pn := range p.Params {
				paramNames = append(paramNames, pn)
			}
			sort.Strings(paramNames)
			for _, pn := range paramNames {
				b.WriteString(pn)
				b.WriteByte('=')
				b.WriteString(strings.Join(p.Params[pn], ","))
				b.WriteByte(';')
			}
			b.WriteString(p.Value)
			b.WriteByte('\n')
		}
	}
	for _, child := range comp.Children {
		b.WriteString(componentDigest(child))
	}
	return b.String()
}

package storage

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-ical"
)

const productID = "-//Calyptra//CalDAV Server//EN"

// DefaultHeaders returns the VCALENDAR-level properties used for collections
// that were created empty.
func DefaultHeaders() ical.Props {
	props := make(ical.Props)
	props.SetText(ical.PropVersion, "2.0")
	props.SetText(ical.PropProductID, productID)
	return props
}

// SerializeCalendar renders a full VCALENDAR document from collection
// headers, an optional timezone and any number of items.
func SerializeCalendar(headers ical.Props, tz *ical.Component, items ...*Item) (string, error) {
	cal := ical.NewCalendar()
	for name, props := range headers {
		cal.Props[name] = append([]ical.Prop(nil), props...)
	}
	if cal.Props.Get(ical.PropVersion) == nil {
		cal.Props.SetText(ical.PropVersion, "2.0")
	}
	if cal.Props.Get(ical.PropProductID) == nil {
		cal.Props.SetText(ical.PropProductID, productID)
	}
	if tz != nil {
		cal.Children = append(cal.Children, tz)
	}
	for _, item := range items {
		comp := item.Component
		if comp.Props.Get(ical.PropDateTimeStamp) == nil {
			comp = cloneComponent(comp)
			comp.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
		}
		cal.Children = append(cal.Children, comp)
	}
	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return "", fmt.Errorf("encode calendar: %w", err)
	}
	return buf.String(), nil
}

// ParseCalendarObjects decodes a VCALENDAR body into its item components,
// embedded timezone and top-level headers.
func ParseCalendarObjects(body string) (items []*ical.Component, tz *ical.Component, headers ical.Props, err error) {
	cal, err := ical.NewDecoder(strings.NewReader(body)).Decode()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("decode calendar: %w", err)
	}
	for _, child := range cal.Children {
		switch child.Name {
		case ical.CompTimezone:
			tz = child
		case ical.CompEvent, ical.CompToDo, ical.CompJournal:
			items = append(items, child)
		}
	}
	return items, tz, cal.Props, nil
}

// ParseTimezone extracts the VTIMEZONE component from a serialized VCALENDAR
// body, as carried by the calendar-timezone property.
func ParseTimezone(body string) (*ical.Component, error) {
	_, tz, _, err := ParseCalendarObjects(body)
	if err != nil {
		return nil, err
	}
	if tz == nil {
		return nil, fmt.Errorf("no timezone component in body")
	}
	return tz, nil
}

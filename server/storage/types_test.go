package storage

import (
	"testing"
	"time"

	"github.com/emersion/go-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEvent(summary string) *Item {
	comp := ical.NewComponent(ical.CompEvent)
	comp.Props.SetText(ical.PropUID, "uid-1")
	comp.Props.SetText(ical.PropSummary, summary)
	comp.Props.SetText(ical.PropDateTimeStart, "20200101T100000Z")
	comp.Props.SetText(ical.PropDateTimeEnd, "20200101T103000Z")
	return &Item{Name: "event.ics", CalendarPath: "/alice/work", Component: comp}
}

func TestItemETagContentDerived(t *testing.T) {
	a := testEvent("Standup")
	b := testEvent("Standup")
	c := testEvent("Retro")

	// Equal content means equal tags, regardless of identity.
	assert.Equal(t, a.ETag(), b.ETag())
	assert.NotEqual(t, a.ETag(), c.ETag())

	// Any content mutation changes the tag.
	before := a.ETag()
	a.Component.Props.SetText(ical.PropSummary, "Changed")
	assert.NotEqual(t, before, a.ETag())
}

func TestItemETagIgnoresPropOrder(t *testing.T) {
	a := testEvent("Standup")
	clone := a.Clone()
	assert.Equal(t, a.ETag(), clone.ETag())
}

func TestItemTimes(t *testing.T) {
	item := testEvent("Standup")
	assert.Equal(t, time.Date(2020, 1, 1, 10, 0, 0, 0, time.UTC), item.Start())
	assert.Equal(t, time.Date(2020, 1, 1, 10, 30, 0, 0, time.UTC), item.End())
}

func TestItemEndFallsBackToDuration(t *testing.T) {
	item := testEvent("Standup")
	item.Component.Props.Del(ical.PropDateTimeEnd)
	item.Component.Props.SetText(ical.PropDuration, "PT1H")
	assert.Equal(t, time.Date(2020, 1, 1, 11, 0, 0, 0, time.UTC), item.End())

	item.Component.Props.Del(ical.PropDuration)
	assert.Equal(t, item.Start(), item.End())
}

func TestItemHrefJoinsParent(t *testing.T) {
	item := testEvent("Standup")
	assert.Equal(t, "/alice/work/event.ics", item.Href())
}

func TestCloneIsDeep(t *testing.T) {
	item := testEvent("Standup")
	clone := item.Clone()
	clone.Component.Props.SetText(ical.PropSummary, "Mutated")
	assert.Equal(t, "Standup", item.Summary())
	assert.Equal(t, "Mutated", clone.Summary())
}

func TestCalendarETagTracksContents(t *testing.T) {
	cal := &Calendar{Path: "/alice/work", Present: true, Props: map[string]string{}}
	empty := cal.ETag()

	cal.Items = append(cal.Items, testEvent("Standup"))
	withItem := cal.ETag()
	assert.NotEqual(t, empty, withItem)

	cal.Props["D:displayname"] = "Work"
	assert.NotEqual(t, withItem, cal.ETag())
}

func TestSerializeParseRoundTrip(t *testing.T) {
	item := testEvent("Standup")
	text, err := SerializeCalendar(DefaultHeaders(), nil, item)
	require.NoError(t, err)
	assert.Contains(t, text, "BEGIN:VCALENDAR")
	assert.Contains(t, text, "SUMMARY:Standup")

	comps, tz, headers, err := ParseCalendarObjects(text)
	require.NoError(t, err)
	assert.Nil(t, tz)
	require.Len(t, comps, 1)
	assert.Equal(t, ical.CompEvent, comps[0].Name)
	assert.Equal(t, "2.0", headers.Get(ical.PropVersion).Value)

	parsed := &Item{Name: item.Name, CalendarPath: item.CalendarPath, Component: comps[0]}
	assert.Equal(t, "Standup", parsed.Summary())
	assert.Equal(t, item.Start(), parsed.Start())
}

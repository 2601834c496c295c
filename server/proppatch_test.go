package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const timezoneBody = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//Test//Test//EN\r\n" +
	"BEGIN:VTIMEZONE\r\n" +
	"TZID:Europe/Paris\r\n" +
	"BEGIN:STANDARD\r\n" +
	"DTSTART:19701025T030000\r\n" +
	"TZOFFSETFROM:+0200\r\n" +
	"TZOFFSETTO:+0100\r\n" +
	"END:STANDARD\r\n" +
	"END:VTIMEZONE\r\n" +
	"END:VCALENDAR\r\n"

func TestProppatchSetAndRemove(t *testing.T) {
	h, store := newTestHandler(nil)
	putEvent(t, h, "/alice/work/event-1.ics", simpleEvent)
	require.NoError(t, store.UpdateProps("/alice/work", func(props map[string]string) error {
		props["D:displayname"] = "Old"
		return nil
	}))

	w := do(t, h, testRequest{
		method: "PROPPATCH",
		path:   "/alice/work",
		body: `<?xml version="1.0"?>
<D:propertyupdate xmlns:D="DAV:" xmlns:ICAL="http://apple.com/ns/ical/">
  <D:set>
    <D:prop><ICAL:calendar-color>#00ff00</ICAL:calendar-color></D:prop>
  </D:set>
  <D:remove>
    <D:prop><D:displayname/></D:prop>
  </D:remove>
</D:propertyupdate>`,
	})
	require.Equal(t, http.StatusMultiStatus, w.Code)

	doc := parseXML(t, w.Body.String())
	propstats := doc.FindElements("//response/propstat")
	require.Len(t, propstats, 2)
	for _, ps := range propstats {
		assert.Equal(t, "HTTP/1.1 200 OK", ps.FindElement("status").Text())
	}

	cal, err := store.GetCalendar("/alice/work")
	require.NoError(t, err)
	assert.Equal(t, "#00ff00", cal.Props["ICAL:calendar-color"])
	assert.NotContains(t, cal.Props, "D:displayname")
}

func TestProppatchRemoveMissingReports412(t *testing.T) {
	h, store := newTestHandler(nil)
	putEvent(t, h, "/alice/work/event-1.ics", simpleEvent)

	w := do(t, h, testRequest{
		method: "PROPPATCH",
		path:   "/alice/work",
		body: `<?xml version="1.0"?>
<D:propertyupdate xmlns:D="DAV:" xmlns:ICAL="http://apple.com/ns/ical/">
  <D:set>
    <D:prop><ICAL:calendar-color>#123456</ICAL:calendar-color></D:prop>
  </D:set>
  <D:remove>
    <D:prop><D:displayname/></D:prop>
  </D:remove>
</D:propertyupdate>`,
	})
	require.Equal(t, http.StatusMultiStatus, w.Code)

	doc := parseXML(t, w.Body.String())
	propstats := doc.FindElements("//response/propstat")
	require.Len(t, propstats, 2)
	assert.Equal(t, "HTTP/1.1 200 OK", propstats[0].FindElement("status").Text())
	assert.NotNil(t, propstats[0].FindElement("prop/calendar-color"))
	assert.Equal(t, "HTTP/1.1 412 Precondition Failed", propstats[1].FindElement("status").Text())
	assert.NotNil(t, propstats[1].FindElement("prop/displayname"))

	// The 412 did not abort the transaction.
	cal, err := store.GetCalendar("/alice/work")
	require.NoError(t, err)
	assert.Equal(t, "#123456", cal.Props["ICAL:calendar-color"])
}

func TestProppatchInvalidTimezoneFailsThatProperty(t *testing.T) {
	h, store := newTestHandler(nil)
	putEvent(t, h, "/alice/work/event-1.ics", simpleEvent)

	w := do(t, h, testRequest{
		method: "PROPPATCH",
		path:   "/alice/work",
		body: `<?xml version="1.0"?>
<D:propertyupdate xmlns:D="DAV:" xmlns:C="urn:ietf:params:xml:ns:caldav">
  <D:set>
    <D:prop>
      <D:displayname>Work</D:displayname>
      <C:calendar-timezone>not a calendar</C:calendar-timezone>
    </D:prop>
  </D:set>
</D:propertyupdate>`,
	})
	require.Equal(t, http.StatusMultiStatus, w.Code)

	doc := parseXML(t, w.Body.String())
	propstats := doc.FindElements("//response/propstat")
	require.Len(t, propstats, 2)
	assert.NotNil(t, propstats[0].FindElement("prop/displayname"))
	assert.Equal(t, "HTTP/1.1 200 OK", propstats[0].FindElement("status").Text())
	assert.NotNil(t, propstats[1].FindElement("prop/calendar-timezone"))
	assert.Equal(t, "HTTP/1.1 409 Conflict", propstats[1].FindElement("status").Text())

	// The good property committed, the bad one left no trace.
	cal, err := store.GetCalendar("/alice/work")
	require.NoError(t, err)
	assert.Equal(t, "Work", cal.Props["D:displayname"])
	assert.Nil(t, cal.Timezone)
	assert.NotContains(t, cal.Props, "C:calendar-timezone")
}

func TestProppatchTimezoneReplacesComponent(t *testing.T) {
	h, store := newTestHandler(nil)
	putEvent(t, h, "/alice/work/event-1.ics", simpleEvent)

	w := do(t, h, testRequest{
		method: "PROPPATCH",
		path:   "/alice/work",
		body: `<?xml version="1.0"?>
<D:propertyupdate xmlns:D="DAV:" xmlns:C="urn:ietf:params:xml:ns:caldav">
  <D:set>
    <D:prop><C:calendar-timezone>` + timezoneBody + `</C:calendar-timezone></D:prop>
  </D:set>
</D:propertyupdate>`,
	})
	require.Equal(t, http.StatusMultiStatus, w.Code)

	cal, err := store.GetCalendar("/alice/work")
	require.NoError(t, err)
	require.NotNil(t, cal.Timezone)
	assert.Equal(t, "Europe/Paris", cal.Timezone.Props.Get("TZID").Value)
	// The timezone went to the embedded component, not the property store.
	assert.NotContains(t, cal.Props, "C:calendar-timezone")
}

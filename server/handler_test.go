package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/calyptra/calyptra/server/auth"
	"github.com/calyptra/calyptra/server/storage"
	"github.com/calyptra/calyptra/server/storage/memory"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestHandler(backend auth.Backend) (*Handler, *memory.Store) {
	store := memory.New()
	h := NewHandler(store, backend, Config{Realm: "Test Realm"}, testLogger())
	return h, store
}

type testRequest struct {
	method  string
	path    string
	body    string
	headers map[string]string
}

func do(t *testing.T, h *Handler, req testRequest) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if req.body != "" {
		body = strings.NewReader(req.body)
	}
	r := httptest.NewRequest(req.method, req.path, body)
	for k, v := range req.headers {
		r.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func parseXML(t *testing.T, body string) *etree.Document {
	t.Helper()
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(body))
	return doc
}

const simpleEvent = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//Test//Test//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:event-1\r\n" +
	"SUMMARY:Standup\r\n" +
	"DTSTART:20200101T100000Z\r\n" +
	"DTEND:20200101T103000Z\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func putEvent(t *testing.T, h *Handler, path, body string) string {
	t.Helper()
	w := do(t, h, testRequest{method: "PUT", path: path, body: body})
	require.Equal(t, http.StatusCreated, w.Code)
	return w.Header().Get("ETag")
}

func TestUnknownMethodNotImplemented(t *testing.T) {
	h, _ := newTestHandler(nil)
	w := do(t, h, testRequest{method: "PATCH", path: "/alice/work"})
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestMkcolNotImplemented(t *testing.T) {
	h, _ := newTestHandler(nil)
	w := do(t, h, testRequest{method: "MKCOL", path: "/alice/work"})
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestOptionsAdvertisesMethods(t *testing.T) {
	h, _ := newTestHandler(nil)
	w := do(t, h, testRequest{method: "OPTIONS", path: "/alice/work"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Allow"), "PROPFIND")
	assert.Contains(t, w.Header().Get("Allow"), "MKCALENDAR")
	assert.Contains(t, w.Header().Get("DAV"), "calendar-access")
}

func TestMalformedXMLBodyRejected(t *testing.T) {
	h, _ := newTestHandler(nil)
	w := do(t, h, testRequest{
		method: "PROPFIND",
		path:   "/alice/work",
		body:   "<unclosed",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPutGetRoundTrip(t *testing.T) {
	h, store := newTestHandler(nil)
	etag := putEvent(t, h, "/alice/work/event-1.ics", simpleEvent)
	require.NotEmpty(t, etag)

	w := do(t, h, testRequest{method: "GET", path: "/alice/work/event-1.ics"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, etag, w.Header().Get("ETag"))
	assert.Contains(t, w.Header().Get("Content-Type"), "text/calendar")

	body := w.Body.String()
	assert.Contains(t, body, "SUMMARY:Standup")
	assert.Contains(t, body, "DTSTART:20200101T100000Z")

	item, err := store.GetItem("/alice/work", "event-1.ics")
	require.NoError(t, err)
	assert.Equal(t, etag, item.ETag())
}

func TestHeadOmitsBody(t *testing.T) {
	h, _ := newTestHandler(nil)
	putEvent(t, h, "/alice/work/event-1.ics", simpleEvent)

	w := do(t, h, testRequest{method: "HEAD", path: "/alice/work/event-1.ics"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("ETag"))
	assert.Empty(t, w.Body.String())
}

func TestGetVanishedItemGone(t *testing.T) {
	h, _ := newTestHandler(nil)
	putEvent(t, h, "/alice/work/event-1.ics", simpleEvent)

	w := do(t, h, testRequest{method: "GET", path: "/alice/work/other.ics"})
	assert.Equal(t, http.StatusGone, w.Code)
}

func TestGetCollectionSerializesAllItems(t *testing.T) {
	h, _ := newTestHandler(nil)
	putEvent(t, h, "/alice/work/event-1.ics", simpleEvent)
	second := strings.ReplaceAll(simpleEvent, "event-1", "event-2")
	putEvent(t, h, "/alice/work/event-2.ics", second)

	w := do(t, h, testRequest{method: "GET", path: "/alice/work"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "UID:event-1")
	assert.Contains(t, w.Body.String(), "UID:event-2")
}

func TestInternalErrorOnFailedPropsUpdate(t *testing.T) {
	store := &storage.MockStorage{}
	cal := &storage.Calendar{Path: "/alice/work", Owner: "alice", Present: true,
		Props: map[string]string{}}
	store.On("Resolve", "/alice/work", storage.DepthZero).
		Return([]storage.Resource{cal})
	store.On("UpdateProps", "/alice/work", mock.Anything).
		Return(assert.AnError)

	h := NewHandler(store, nil, Config{}, testLogger())
	w := do(t, h, testRequest{
		method: "PROPPATCH",
		path:   "/alice/work",
		body: `<?xml version="1.0"?>
<D:propertyupdate xmlns:D="DAV:" xmlns:C="urn:ietf:params:xml:ns:caldav">
  <D:set><D:prop><D:displayname>Work</D:displayname></D:prop></D:set>
</D:propertyupdate>`,
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	store.AssertExpectations(t)
}

package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteItem(t *testing.T) {
	h, store := newTestHandler(nil)
	etag := putEvent(t, h, "/alice/work/event-1.ics", simpleEvent)

	w := do(t, h, testRequest{
		method:  "DELETE",
		path:    "/alice/work/event-1.ics",
		headers: map[string]string{"If-Match": etag},
	})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.False(t, store.Exists("/alice/work/event-1.ics"))
}

func TestDeleteItemStaleETagRejected(t *testing.T) {
	h, store := newTestHandler(nil)
	putEvent(t, h, "/alice/work/event-1.ics", simpleEvent)

	w := do(t, h, testRequest{
		method:  "DELETE",
		path:    "/alice/work/event-1.ics",
		headers: map[string]string{"If-Match": `"stale"`},
	})
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)
	assert.True(t, store.Exists("/alice/work/event-1.ics"))
}

func TestDeleteMissingItemRejected(t *testing.T) {
	h, _ := newTestHandler(nil)
	putEvent(t, h, "/alice/work/event-1.ics", simpleEvent)

	w := do(t, h, testRequest{method: "DELETE", path: "/alice/work/ghost.ics"})
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)
}

func TestDeleteCollection(t *testing.T) {
	h, store := newTestHandler(nil)
	putEvent(t, h, "/alice/work/event-1.ics", simpleEvent)

	// Depth defaults to infinity for DELETE.
	w := do(t, h, testRequest{method: "DELETE", path: "/alice/work"})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.False(t, store.Exists("/alice/work"))
}

func TestDeleteCollectionDepthZeroRejected(t *testing.T) {
	h, store := newTestHandler(nil)
	putEvent(t, h, "/alice/work/event-1.ics", simpleEvent)

	w := do(t, h, testRequest{
		method:  "DELETE",
		path:    "/alice/work",
		headers: map[string]string{"Depth": "0"},
	})
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)
	assert.True(t, store.Exists("/alice/work"))
}

func TestDeleteCollectionChecksCollectionETag(t *testing.T) {
	h, store := newTestHandler(nil)
	putEvent(t, h, "/alice/work/event-1.ics", simpleEvent)

	w := do(t, h, testRequest{
		method:  "DELETE",
		path:    "/alice/work",
		headers: map[string]string{"If-Match": `"stale"`},
	})
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)
	require.True(t, store.Exists("/alice/work"))

	cal, err := store.GetCalendar("/alice/work")
	require.NoError(t, err)
	w = do(t, h, testRequest{
		method:  "DELETE",
		path:    "/alice/work",
		headers: map[string]string{"If-Match": cal.ETag()},
	})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.False(t, store.Exists("/alice/work"))
}

// Package storage defines the resource model and the backend interface the
// protocol engine delegates persistence to.
package storage

import (
	"errors"
	"strings"

	"github.com/emersion/go-ical"
)

var (
	// ErrNotFound is returned when a requested resource doesn't exist.
	ErrNotFound = errors.New("resource not found")
	// ErrGone is returned when an item vanished between resolution and access.
	ErrGone = errors.New("resource gone")
	// ErrInvalidInput is returned when the input parameters are invalid.
	ErrInvalidInput = errors.New("invalid input parameters")
)

// Depth is the traversal depth requested by the client.
type Depth int

const (
	DepthZero Depth = iota
	DepthOne
	DepthInfinity
)

// ParseDepth maps a Depth header value to a Depth, falling back to def when
// the header is absent or unrecognized.
func ParseDepth(header string, def Depth) Depth {
	switch strings.ToLower(strings.TrimSpace(header)) {
	case "0":
		return DepthZero
	case "1":
		return DepthOne
	case "infinity":
		return DepthInfinity
	}
	return def
}

// Resource is one entry of a resolved resource chain: either a *Calendar or
// an *Item. Chains are ordered collection-before-its-children.
type Resource interface {
	Href() string
}

// Storage connects a persistence backend with the protocol engine. The
// engine treats the backend as authoritative after each call returns and
// trusts it to apply each single-resource write atomically.
type Storage interface {
	// Resolve returns the ordered resource chain addressed by path at the
	// given depth. A collection path yields the collection itself even when
	// it is not persisted yet (Present false), so creation methods can flow
	// through authorization.
	Resolve(path string, depth Depth) []Resource

	// Exists reports whether path names a persisted collection or item.
	Exists(path string) bool

	// GetCalendar returns the persisted collection at path, or ErrNotFound.
	GetCalendar(path string) (*Calendar, error)
	// CreateCalendar creates an empty collection at path.
	CreateCalendar(path string) (*Calendar, error)
	// DeleteCalendar removes the collection at path with everything in it.
	DeleteCalendar(path string) error
	// SetTimezone replaces the collection's embedded timezone component.
	SetTimezone(path string, tz *ical.Component) error

	// GetItem returns the named item of the collection, ErrGone when the
	// collection exists but the item vanished.
	GetItem(calendarPath, name string) (*Item, error)
	// PutItem stores the item under its name, overwriting any previous
	// content, and returns the stored content's ETag.
	PutItem(calendarPath string, item *Item) (etag string, err error)
	// RemoveItem deletes the named item.
	RemoveItem(calendarPath, name string) error

	// UpdateProps runs fn against the collection's property store under a
	// scoped acquisition. The mutation is written back only when fn returns
	// nil; on error the store is left untouched.
	UpdateProps(calendarPath string, fn func(props map[string]string) error) error
}

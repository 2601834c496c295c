// Package memory provides an in-memory storage backend, used by the server
// binary and the test suite.
package memory

import (
	"sort"
	"strings"
	"sync"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"

	"github.com/calyptra/calyptra/server/storage"
)

// Store implements storage.Storage with plain maps guarded by a RWMutex.
type Store struct {
	mu        sync.RWMutex
	calendars map[string]*entry
}

type entry struct {
	owner    string
	headers  ical.Props
	timezone *ical.Component
	names    []string // item order
	items    map[string]*storage.Item
	props    map[string]string
}

// New creates an empty store.
func New() *Store {
	return &Store{calendars: make(map[string]*entry)}
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func calendarPath(owner, name string) string {
	return "/" + owner + "/" + name
}

// ensure returns the collection entry at path, creating it when absent.
// Collections spring into existence on first write, matching how PUT may
// target a not-yet-created calendar.
func (s *Store) ensure(path string) *entry {
	if e, ok := s.calendars[path]; ok {
		return e
	}
	segments := splitPath(path)
	owner := ""
	if len(segments) > 0 {
		owner = segments[0]
	}
	e := &entry{
		owner:   owner,
		headers: storage.DefaultHeaders(),
		items:   make(map[string]*storage.Item),
		props:   make(map[string]string),
	}
	s.calendars[path] = e
	return e
}

func (s *Store) snapshot(path string, e *entry) *storage.Calendar {
	cal := &storage.Calendar{
		Path:    path,
		Owner:   e.owner,
		Present: true,
		Headers: e.headers,
		Props:   make(map[string]string, len(e.props)),
	}
	if e.timezone != nil {
		cal.Timezone = e.timezone
	}
	for k, v := range e.props {
		cal.Props[k] = v
	}
	for _, name := range e.names {
		cal.Items = append(cal.Items, e.items[name].Clone())
	}
	return cal
}

func placeholder(path string, owner string) *storage.Calendar {
	return &storage.Calendar{
		Path:    path,
		Owner:   owner,
		Present: false,
		Headers: storage.DefaultHeaders(),
		Props:   map[string]string{},
	}
}

// Resolve implements storage.Storage.
func (s *Store) Resolve(path string, depth storage.Depth) []storage.Resource {
	s.mu.RLock()
	defer s.mu.RUnlock()

	segments := splitPath(path)
	switch len(segments) {
	case 1:
		// Principal path: every collection the owner has, collections
		// before their children.
		owner := segments[0]
		var paths []string
		for p, e := range s.calendars {
			if e.owner == owner {
				paths = append(paths, p)
			}
		}
		sort.Strings(paths)
		var chain []storage.Resource
		for _, p := range paths {
			cal := s.snapshot(p, s.calendars[p])
			chain = append(chain, cal)
			if depth != storage.DepthZero {
				for _, item := range cal.Items {
					chain = append(chain, item)
				}
			}
		}
		return chain
	case 2:
		p := calendarPath(segments[0], segments[1])
		e, ok := s.calendars[p]
		if !ok {
			return []storage.Resource{placeholder(p, segments[0])}
		}
		cal := s.snapshot(p, e)
		chain := []storage.Resource{cal}
		if depth != storage.DepthZero {
			for _, item := range cal.Items {
				chain = append(chain, item)
			}
		}
		return chain
	case 3:
		p := calendarPath(segments[0], segments[1])
		e, ok := s.calendars[p]
		if !ok {
			return []storage.Resource{placeholder(p, segments[0])}
		}
		cal := s.snapshot(p, e)
		chain := []storage.Resource{cal}
		if item := cal.Item(segments[2]); item != nil {
			chain = append(chain, item)
		}
		return chain
	default:
		return nil
	}
}

// Exists implements storage.Storage.
func (s *Store) Exists(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	segments := splitPath(path)
	switch len(segments) {
	case 2:
		_, ok := s.calendars[calendarPath(segments[0], segments[1])]
		return ok
	case 3:
		e, ok := s.calendars[calendarPath(segments[0], segments[1])]
		if !ok {
			return false
		}
		_, ok = e.items[segments[2]]
		return ok
	default:
		return false
	}
}

// GetCalendar implements storage.Storage.
func (s *Store) GetCalendar(path string) (*storage.Calendar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.calendars[path]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return s.snapshot(path, e), nil
}

// CreateCalendar implements storage.Storage.
func (s *Store) CreateCalendar(path string) (*storage.Calendar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.calendars[path]; ok {
		return nil, storage.ErrInvalidInput
	}
	e := s.ensure(path)
	return s.snapshot(path, e), nil
}

// DeleteCalendar implements storage.Storage.
func (s *Store) DeleteCalendar(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.calendars[path]; !ok {
		return storage.ErrNotFound
	}
	delete(s.calendars, path)
	return nil
}

// SetTimezone implements storage.Storage.
func (s *Store) SetTimezone(path string, tz *ical.Component) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ensure(path).timezone = tz
	return nil
}

// GetItem implements storage.Storage.
func (s *Store) GetItem(calendarPath, name string) (*storage.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.calendars[calendarPath]
	if !ok {
		return nil, storage.ErrNotFound
	}
	item, ok := e.items[name]
	if !ok {
		return nil, storage.ErrGone
	}
	return item.Clone(), nil
}

// PutItem implements storage.Storage.
func (s *Store) PutItem(calendarPath string, item *storage.Item) (string, error) {
	if item == nil || item.Name == "" {
		return "", storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := item.Clone()
	stored.CalendarPath = calendarPath
	if stored.UID() == "" {
		stored.Component.Props.SetText(ical.PropUID, uuid.NewString())
	}

	e := s.ensure(calendarPath)
	if _, ok := e.items[stored.Name]; !ok {
		e.names = append(e.names, stored.Name)
	}
	e.items[stored.Name] = stored
	return stored.ETag(), nil
}

// RemoveItem implements storage.Storage.
func (s *Store) RemoveItem(calendarPath, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.calendars[calendarPath]
	if !ok {
		return storage.ErrNotFound
	}
	if _, ok := e.items[name]; !ok {
		return storage.ErrGone
	}
	delete(e.items, name)
	for idx, n := range e.names {
		if n == name {
			e.names = append(e.names[:idx], e.names[idx+1:]...)
			break
		}
	}
	return nil
}

// UpdateProps implements storage.Storage. The mutation runs against a copy
// of the property store and is written back only when fn succeeds.
func (s *Store) UpdateProps(calendarPath string, fn func(props map[string]string) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.ensure(calendarPath)
	scratch := make(map[string]string, len(e.props))
	for k, v := range e.props {
		scratch[k] = v
	}
	if err := fn(scratch); err != nil {
		return err
	}
	e.props = scratch
	return nil
}

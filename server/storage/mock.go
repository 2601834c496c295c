package storage

import (
	"github.com/emersion/go-ical"
	"github.com/stretchr/testify/mock"
)

// MockStorage is a testify mock of Storage for handler tests.
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Resolve(path string, depth Depth) []Resource {
	args := m.Called(path, depth)
	if chain := args.Get(0); chain != nil {
		return chain.([]Resource)
	}
	return nil
}

func (m *MockStorage) Exists(path string) bool {
	return m.Called(path).Bool(0)
}

func (m *MockStorage) GetCalendar(path string) (*Calendar, error) {
	args := m.Called(path)
	if cal := args.Get(0); cal != nil {
		return cal.(*Calendar), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStorage) CreateCalendar(path string) (*Calendar, error) {
	args := m.Called(path)
	if cal := args.Get(0); cal != nil {
		return cal.(*Calendar), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStorage) DeleteCalendar(path string) error {
	return m.Called(path).Error(0)
}

func (m *MockStorage) SetTimezone(path string, tz *ical.Component) error {
	return m.Called(path, tz).Error(0)
}

func (m *MockStorage) GetItem(calendarPath, name string) (*Item, error) {
	args := m.Called(calendarPath, name)
	if item := args.Get(0); item != nil {
		return item.(*Item), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStorage) PutItem(calendarPath string, item *Item) (string, error) {
	args := m.Called(calendarPath, item)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) RemoveItem(calendarPath, name string) error {
	return m.Called(calendarPath, name).Error(0)
}

func (m *MockStorage) UpdateProps(calendarPath string, fn func(props map[string]string) error) error {
	return m.Called(calendarPath, fn).Error(0)
}

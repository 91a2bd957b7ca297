// Package session holds per-user search state: the catalog cache, the last
// search results, and the current page index. A session has exactly one
// active user, so the state itself needs no locking; the manager guards only
// the session map.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voyago/farescout/pkg/models"
)

// DefaultPageSize is the number of flight records shown per page.
const DefaultPageSize = 10

// Session is the transient state of one user session. Results and the page
// index are reset on each new search; nothing survives the session.
type Session struct {
	ID        string
	CreatedAt time.Time

	pageSize int
	records  []models.FlightRecord
	page     int

	catalog      []string
	catalogBuilt bool
}

// NewSession creates a session with the given page size (0 = default).
func NewSession(pageSize int) *Session {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		pageSize:  pageSize,
	}
}

// SetResults replaces the stored records and resets to the first page.
func (s *Session) SetResults(records []models.FlightRecord) {
	s.records = records
	s.page = 0
}

// Results returns all stored records.
func (s *Session) Results() []models.FlightRecord {
	return s.records
}

// PageIndex returns the zero-based current page index.
func (s *Session) PageIndex() int {
	return s.page
}

// PageCount returns the number of pages for the stored records.
func (s *Session) PageCount() int {
	if len(s.records) == 0 {
		return 0
	}
	return (len(s.records) + s.pageSize - 1) / s.pageSize
}

// Page returns the records of the current page.
func (s *Session) Page() []models.FlightRecord {
	start := s.page * s.pageSize
	if start >= len(s.records) {
		return nil
	}
	end := start + s.pageSize
	if end > len(s.records) {
		end = len(s.records)
	}
	return s.records[start:end]
}

// Next advances to the next page, clamping at the last page. Returns true
// when the page changed.
func (s *Session) Next() bool {
	if s.page >= s.PageCount()-1 {
		return false
	}
	s.page++
	return true
}

// Prev steps back one page, clamping at the first page. Returns true when
// the page changed.
func (s *Session) Prev() bool {
	if s.page == 0 {
		return false
	}
	s.page--
	return true
}

// Catalog returns the cached catalog and whether it has been built. An empty
// build result still counts as built; rebuilding is quota-risky.
func (s *Session) Catalog() ([]string, bool) {
	return s.catalog, s.catalogBuilt
}

// SetCatalog stores the catalog for the session's lifetime.
func (s *Session) SetCatalog(names []string) {
	s.catalog = names
	s.catalogBuilt = true
}

// Manager owns the live sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	pageSize int
}

// NewManager creates a session manager issuing sessions with the given page
// size (0 = default).
func NewManager(pageSize int) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		pageSize: pageSize,
	}
}

// Create starts a new session.
func (m *Manager) Create() *Session {
	s := NewSession(m.pageSize)
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

// Get returns the session with the given ID, or nil.
func (m *Manager) Get(id string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id]
}

// GetOrCreate returns the session with the given ID, creating a fresh one
// when the ID is unknown or empty.
func (m *Manager) GetOrCreate(id string) *Session {
	if id != "" {
		if s := m.Get(id); s != nil {
			return s
		}
	}
	return m.Create()
}

// Delete removes a session.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

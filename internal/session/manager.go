package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/grachmannico95/rex-docs-be/internal/domain"
	"github.com/grachmannico95/rex-docs-be/internal/objectstore"
)

const tempPrefix = "rex-temp"

// Session carries one upload between the pipeline stages.
type Session struct {
	ID              string                  `json:"id"`
	UserID          string                  `json:"user_id"`
	ArchiveFileName string                  `json:"archive_file_name"`
	RecordsFileName string                  `json:"records_file_name,omitempty"`
	StoragePrefix   string                  `json:"-"`
	Documents       []domain.DocumentEntry  `json:"documents"`
	Records         []domain.ShipmentRecord `json:"-"`
	RowErrors       domain.RowErrors        `json:"-"`
	RecordsAttached bool                    `json:"records_attached"`
	CreatedAt       time.Time               `json:"created_at"`
	LastAccessed    time.Time               `json:"-"`

	claimed bool
}

type Manager struct {
	sessions map[string]*Session
	mu       sync.RWMutex
	now      func() time.Time
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Reserve allocates a session ID and its storage prefix without registering
// it, so the archive can be extracted before the session becomes visible.
func (m *Manager) Reserve(userID string) (id, prefix string) {
	id = uuid.New().String()
	return id, objectstore.JoinKey(tempPrefix, userID, id)
}

func (m *Manager) Register(id, userID, prefix, archiveName string, documents []domain.DocumentEntry) *Session {
	now := m.now()
	s := &Session{
		ID:              id,
		UserID:          userID,
		ArchiveFileName: archiveName,
		StoragePrefix:   prefix,
		Documents:       documents,
		CreatedAt:       now,
		LastAccessed:    now,
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	return s
}

// Get returns a snapshot of the session and marks it as used.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	s.LastAccessed = m.now()

	snapshot := *s
	return &snapshot, nil
}

// AttachRecords replaces any previously attached records.
func (m *Manager) AttachRecords(id, fileName string, records []domain.ShipmentRecord, rowErrors domain.RowErrors) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if s.claimed {
		return nil, domain.ErrSessionBusy
	}
	s.RecordsFileName = fileName
	s.Records = records
	s.RowErrors = rowErrors
	s.RecordsAttached = true
	s.LastAccessed = m.now()

	snapshot := *s
	return &snapshot, nil
}

// Claim marks the session in flight and returns a snapshot of it. Only one
// caller holds a claim at a time; the holder ends it with Unclaim or Finish.
func (m *Manager) Claim(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if s.claimed {
		return nil, domain.ErrSessionBusy
	}
	s.claimed = true
	s.LastAccessed = m.now()

	snapshot := *s
	return &snapshot, nil
}

func (m *Manager) Unclaim(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[id]; ok {
		s.claimed = false
		s.LastAccessed = m.now()
	}
}

// Finish removes a claimed session.
func (m *Manager) Finish(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	delete(m.sessions, id)
	return s, nil
}

// Delete removes a session that is not in flight.
func (m *Manager) Delete(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if s.claimed {
		return nil, domain.ErrSessionBusy
	}
	delete(m.sessions, id)
	return s, nil
}

// Expire removes sessions idle for longer than maxAge and returns them so
// the caller can release their stored files.
func (m *Manager) Expire(maxAge time.Duration) []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-maxAge)
	var expired []*Session
	for id, s := range m.sessions {
		if !s.claimed && s.LastAccessed.Before(cutoff) {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	return expired
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.sessions)
}

// Package session scopes ledgers and generated downloads to one caller.
package session

import (
	"sync"
	"time"

	"badgeforge/export"
	"badgeforge/ledger"
	"badgeforge/models"
	"badgeforge/render"

	"github.com/google/uuid"
)

const (
	DefaultTTL       = 24 * time.Hour
	DefaultMaxIssued = 20
)

// Issued is one successful generation, kept so its downloads can be fetched.
type Issued struct {
	ID          uuid.UUID
	Layout      render.Layout
	Record      models.AchievementRecord
	Fonts       map[string]render.Tier
	Downloads   []*export.Download
	Unsupported map[export.Format]string
}

func (i *Issued) Download(f export.Format) (*export.Download, bool) {
	for _, d := range i.Downloads {
		if d.Format == f {
			return d, true
		}
	}
	return nil, false
}

type Session struct {
	ID     string
	Ledger *ledger.Ledger

	mu        sync.Mutex
	issued    []*Issued
	maxIssued int
	lastSeen  time.Time
}

func New(id string, maxIssued int) *Session {
	if maxIssued <= 0 {
		maxIssued = DefaultMaxIssued
	}
	return &Session{ID: id, Ledger: ledger.New(), maxIssued: maxIssued}
}

// Keep stores i, evicting the oldest stored generation once the cap is hit.
// The ledger is unaffected by eviction.
func (s *Session) Keep(i *Issued) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued = append(s.issued, i)
	if over := len(s.issued) - s.maxIssued; over > 0 {
		clear(s.issued[:over])
		s.issued = s.issued[over:]
	}
}

func (s *Session) Issued(id uuid.UUID) (*Issued, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, i := range s.issued {
		if i.ID == id {
			return i, true
		}
	}
	return nil, false
}

type Options struct {
	TTL       time.Duration
	MaxIssued int
	Now       func() time.Time
}

// Manager maps session identities to sessions. Sessions idle for longer than
// the TTL are forgotten the next time the manager is used.
type Manager struct {
	mu        sync.Mutex
	sessions  map[string]*Session
	ttl       time.Duration
	maxIssued int
	now       func() time.Time
	lastSweep time.Time
}

func NewManager(opts Options) *Manager {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Manager{
		sessions:  make(map[string]*Session),
		ttl:       opts.TTL,
		maxIssued: opts.MaxIssued,
		now:       opts.Now,
	}
}

// Get returns the session for id, starting a fresh one with an empty ledger
// if id is unknown or expired.
func (m *Manager) Get(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweep(now)

	s, ok := m.sessions[id]
	if !ok || now.Sub(s.lastSeen) > m.ttl {
		s = New(id, m.maxIssued)
		m.sessions[id] = s
	}
	s.lastSeen = now
	return s
}

// Drop forgets id immediately.
func (m *Manager) Drop(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) sweep(now time.Time) {
	if now.Sub(m.lastSweep) < m.ttl/24 {
		return
	}
	m.lastSweep = now
	for id, s := range m.sessions {
		if now.Sub(s.lastSeen) > m.ttl {
			delete(m.sessions, id)
		}
	}
}

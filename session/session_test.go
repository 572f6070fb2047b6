package session

import (
	"testing"
	"time"

	"badgeforge/export"
	"badgeforge/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestManagerIsolatesSessions(t *testing.T) {
	m := NewManager(Options{})
	a := m.Get("a")
	b := m.Get("b")
	require.NotSame(t, a, b)

	a.Ledger.Append(models.LedgerEntry{Name: "Jane Doe"})
	assert.Equal(t, 1, a.Ledger.Len())
	assert.Equal(t, 0, b.Ledger.Len())
	assert.Same(t, a, m.Get("a"))
	assert.Equal(t, 2, m.Len())
}

func TestManagerExpiresIdleSessions(t *testing.T) {
	c := &clock{t: time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)}
	m := NewManager(Options{TTL: time.Hour, Now: c.now})

	old := m.Get("a")
	old.Ledger.Append(models.LedgerEntry{Name: "Jane Doe"})

	c.t = c.t.Add(30 * time.Minute)
	assert.Same(t, old, m.Get("a"))

	c.t = c.t.Add(2 * time.Hour)
	fresh := m.Get("a")
	assert.NotSame(t, old, fresh)
	assert.Equal(t, 0, fresh.Ledger.Len())
}

func TestManagerExpiresIdleSessionBetweenSweeps(t *testing.T) {
	c := &clock{t: time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)}
	m := NewManager(Options{TTL: 24 * time.Hour, Now: c.now})

	old := m.Get("a")
	old.Ledger.Append(models.LedgerEntry{Name: "Jane Doe"})

	// touching another session runs the sweep, so the next one is throttled
	c.t = c.t.Add(23*time.Hour + 50*time.Minute)
	m.Get("b")

	c.t = c.t.Add(30 * time.Minute)
	fresh := m.Get("a")
	assert.NotSame(t, old, fresh)
	assert.Equal(t, 0, fresh.Ledger.Len())
}

func TestManagerDrop(t *testing.T) {
	m := NewManager(Options{})
	a := m.Get("a")
	m.Drop("a")
	assert.Equal(t, 0, m.Len())
	assert.NotSame(t, a, m.Get("a"))
}

func TestSessionKeepEvictsOldest(t *testing.T) {
	s := New("a", 2)
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	for _, id := range ids {
		s.Keep(&Issued{ID: id})
	}

	_, ok := s.Issued(ids[0])
	assert.False(t, ok)
	for _, id := range ids[1:] {
		got, ok := s.Issued(id)
		require.True(t, ok)
		assert.Equal(t, id, got.ID)
	}
}

func TestIssuedDownload(t *testing.T) {
	i := &Issued{Downloads: []*export.Download{{Format: export.FormatPNG, Filename: "badge.png"}}}
	d, ok := i.Download(export.FormatPNG)
	require.True(t, ok)
	assert.Equal(t, "badge.png", d.Filename)

	_, ok = i.Download(export.FormatPDF)
	assert.False(t, ok)
}

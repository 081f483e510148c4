// Package session manages short-lived customer sessions.
//
// A session key embeds the customer id as a printable prefix so the stake
// endpoint can recover the customer from the key alone. The manager is an
// explicitly constructed, explicitly closed service object; it is never a
// package-level singleton.
package session

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okhandani/highstakes/internal/domain/model"
	"github.com/okhandani/highstakes/pkg/metrics"
)

// Defaults for validity and cleanup cadence.
const (
	DefaultTTL             = 10 * time.Minute
	DefaultCleanupInterval = time.Minute
)

// Session is an issued session token.
type Session struct {
	Key      string
	Customer model.CustomerID
	Created  time.Time
}

// Valid reports whether the session is still within ttl at now.
func (s Session) Valid(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.Created) <= ttl
}

// Manager issues and expires sessions. Safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	sessions map[model.CustomerID]Session

	// arrivals holds customer ids in issue order. Sessions expire in the
	// same fixed window, so cleanup only ever needs to look at the front.
	arrivals []model.CustomerID

	ttl             time.Duration
	cleanupInterval time.Duration
	now             func() time.Time

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewManager constructs a manager and starts its cleanup loop.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		sessions:        make(map[model.CustomerID]Session),
		ttl:             DefaultTTL,
		cleanupInterval: DefaultCleanupInterval,
		now:             time.Now,
		stopCh:          make(chan struct{}),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.wg.Add(1)
	go m.cleanupLoop()
	return m
}

// Get returns the customer's session. An existing valid session is reused;
// otherwise a new one is issued when create is true. The second return is
// false when no valid session exists and create is false.
func (m *Manager) Get(customer model.CustomerID, create bool) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if s, ok := m.sessions[customer]; ok && s.Valid(now, m.ttl) {
		return s, true
	}
	if !create {
		return Session{}, false
	}

	s := Session{
		Key:      newKey(customer),
		Customer: customer,
		Created:  now,
	}
	m.sessions[customer] = s
	m.arrivals = append(m.arrivals, customer)
	metrics.RecordSessionCreated()
	metrics.UpdateActiveSessions(len(m.sessions))
	return s, true
}

// Validate reports whether key belongs to a live session and returns the
// owning customer.
func (m *Manager) Validate(key string) (model.CustomerID, bool) {
	customer, err := ParseKey(key)
	if err != nil {
		return 0, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[customer]
	if !ok || s.Key != key || !s.Valid(m.now(), m.ttl) {
		return 0, false
	}
	return customer, true
}

// Len returns the number of tracked sessions, expired ones included until
// cleanup reaps them.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close stops the cleanup loop.
func (m *Manager) Close() error {
	select {
	case <-m.stopCh:
	default:
		close(m.stopCh)
	}
	m.wg.Wait()
	return nil
}

func (m *Manager) cleanupLoop() {
	defer m.wg.Done()
	ticker := time.NewTicker(m.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.cleanup()
		}
	}
}

// cleanup reaps expired sessions from the front of the arrival order and
// stops at the first customer whose current session is still valid.
func (m *Manager) cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for len(m.arrivals) > 0 {
		customer := m.arrivals[0]
		s, ok := m.sessions[customer]
		if ok && s.Valid(now, m.ttl) {
			break
		}
		if ok {
			delete(m.sessions, customer)
			metrics.RecordSessionExpired()
		}
		m.arrivals = m.arrivals[1:]
	}
	metrics.UpdateActiveSessions(len(m.sessions))
}

// newKey builds a "<customerID>-<suffix>" key. The suffix comes from a
// random UUID with its dashes stripped so the single separator stays
// unambiguous for ParseKey.
func newKey(customer model.CustomerID) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")
	return customer.String() + "-" + suffix
}

// ParseKey recovers the customer id from a session key.
func ParseKey(key string) (model.CustomerID, error) {
	prefix, _, ok := strings.Cut(key, "-")
	if !ok {
		return 0, ErrMalformedKey
	}
	id, err := strconv.ParseInt(prefix, 10, 64)
	if err != nil {
		return 0, ErrMalformedKey
	}
	return model.CustomerID(id), nil
}

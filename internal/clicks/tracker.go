package clicks

import (
	"errors"
	"sort"
	"sync"
	"time"
)

var ErrSessionNotFound = errors.New("click session not found or expired")

type ClickResult struct {
	Added   bool
	Count   int
	OwnerID string
}

type session struct {
	ownerID   string
	claimants map[string]struct{}
	createdAt time.Time
}

// Tracker records which users claimed each posted item. Sessions older than
// ttl are treated as gone, and at most maxSessions are kept; a zero value
// disables the respective limit.
type Tracker struct {
	mu          sync.Mutex
	sessions    map[string]*session
	ttl         time.Duration
	maxSessions int
	now         func() time.Time
}

func NewTracker(ttl time.Duration, maxSessions int) *Tracker {
	return &Tracker{
		sessions:    make(map[string]*session),
		ttl:         ttl,
		maxSessions: maxSessions,
		now:         time.Now,
	}
}

// Init opens a session. Re-initialising a live session keeps its owner and claimants.
func (t *Tracker) Init(sessionID, ownerID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	if sess, ok := t.sessions[sessionID]; ok && !t.expired(sess, now) {
		return
	}
	if t.maxSessions > 0 && len(t.sessions) >= t.maxSessions {
		t.evictLocked(now)
		for len(t.sessions) >= t.maxSessions {
			t.dropOldestLocked()
		}
	}
	t.sessions[sessionID] = &session{
		ownerID:   ownerID,
		claimants: make(map[string]struct{}),
		createdAt: now,
	}
}

// AddClick records userID as a claimant. A repeated click returns Added=false
// and the unchanged count.
func (t *Tracker) AddClick(sessionID, userID string) (ClickResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	sess, ok := t.sessions[sessionID]
	if !ok || t.expired(sess, t.now()) {
		return ClickResult{}, ErrSessionNotFound
	}
	_, seen := sess.claimants[userID]
	if !seen {
		sess.claimants[userID] = struct{}{}
	}
	return ClickResult{Added: !seen, Count: len(sess.claimants), OwnerID: sess.ownerID}, nil
}

// Claimants returns the user IDs that clicked, sorted.
func (t *Tracker) Claimants(sessionID string) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	sess, ok := t.sessions[sessionID]
	if !ok || t.expired(sess, t.now()) {
		return nil, ErrSessionNotFound
	}
	ids := make([]string, 0, len(sess.claimants))
	for id := range sess.claimants {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Evict removes expired sessions and returns how many were dropped.
func (t *Tracker) Evict(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.evictLocked(now)
}

func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}

func (t *Tracker) expired(sess *session, now time.Time) bool {
	return t.ttl > 0 && now.Sub(sess.createdAt) >= t.ttl
}

func (t *Tracker) evictLocked(now time.Time) int {
	n := 0
	for id, sess := range t.sessions {
		if t.expired(sess, now) {
			delete(t.sessions, id)
			n++
		}
	}
	return n
}

func (t *Tracker) dropOldestLocked() {
	var (
		oldestID string
		oldest   time.Time
	)
	for id, sess := range t.sessions {
		if oldestID == "" || sess.createdAt.Before(oldest) {
			oldestID, oldest = id, sess.createdAt
		}
	}
	delete(t.sessions, oldestID)
}

package services

import (
	"sync"

	"economoney/internal/core"
)

// SessionState is the per-user dialog state between two chat events.
type SessionState int

const (
	StateIdle SessionState = iota
	StateAwaitingCategory
	StateAwaitingAdjustment
)

func (s SessionState) String() string {
	switch s {
	case StateAwaitingCategory:
		return "awaiting_category"
	case StateAwaitingAdjustment:
		return "awaiting_adjustment"
	default:
		return "idle"
	}
}

type session struct {
	pending            core.Money
	hasPending         bool
	awaitingAdjustment bool
}

// SessionStore keeps in-flight dialog state per user. Nothing is persisted;
// a restart returns every user to idle.
//
// A pending expense and an awaited adjustment are independent: asking to
// adjust the budget keeps a pending amount for a later category pick.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[int64]*session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[int64]*session)}
}

// SetPending stores amount as the user's uncategorized expense, replacing
// any earlier one.
func (s *SessionStore) SetPending(userID int64, amount core.Money) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.get(userID)
	sess.pending, sess.hasPending = amount, true
}

// TakePending removes and returns the pending amount, or
// core.ErrNoPendingAmount when there is none.
func (s *SessionStore) TakePending(userID int64) (core.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok || !sess.hasPending {
		return core.Money{}, core.ErrNoPendingAmount
	}
	amount := sess.pending
	sess.pending, sess.hasPending = core.Money{}, false
	s.prune(userID, sess)
	return amount, nil
}

// BeginAdjustment marks the user's next number as a budget adjustment.
func (s *SessionStore) BeginAdjustment(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(userID).awaitingAdjustment = true
}

// TakeAdjustment reports whether an adjustment was awaited and clears the
// flag.
func (s *SessionStore) TakeAdjustment(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok || !sess.awaitingAdjustment {
		return false
	}
	sess.awaitingAdjustment = false
	s.prune(userID, sess)
	return true
}

// Reset returns the user to idle.
func (s *SessionStore) Reset(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

// State reports the state that decides how the next numeric input is read.
func (s *SessionStore) State(userID int64) SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	switch {
	case !ok:
		return StateIdle
	case sess.awaitingAdjustment:
		return StateAwaitingAdjustment
	case sess.hasPending:
		return StateAwaitingCategory
	}
	return StateIdle
}

func (s *SessionStore) get(userID int64) *session {
	sess, ok := s.sessions[userID]
	if !ok {
		sess = &session{}
		s.sessions[userID] = sess
	}
	return sess
}

func (s *SessionStore) prune(userID int64, sess *session) {
	if !sess.hasPending && !sess.awaitingAdjustment {
		delete(s.sessions, userID)
	}
}

package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"cashbook/internal/model"
)

// State is the lifecycle of a Store.
type State int

const (
	// StateLoading means the initial session check is still outstanding.
	StateLoading State = iota
	// StateAnonymous means there is no session.
	StateAnonymous
	// StateAuthenticated means a user is signed in and their sheets are loaded.
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Session is the signed-in user together with their sheets.
type Session struct {
	UserID   uuid.UUID
	Username string
	Sheets   []model.Sheet
}

// Store holds at most one Session. Transaction edits are applied to the
// in-memory copy and reach the server only through SaveSheet.
type Store struct {
	api *Client

	mu      sync.RWMutex
	state   State
	session *Session
	lastTx  int64

	ready     chan struct{}
	readyOnce sync.Once
}

// NewStore returns a Store in StateLoading. Call Init to resolve it.
func NewStore(api *Client) *Store {
	return &Store{
		api:   api,
		state: StateLoading,
		ready: make(chan struct{}),
	}
}

// Init restores a session from the cookie jar, if any. A rejected cookie
// leaves the store anonymous without an error.
func (s *Store) Init(ctx context.Context) error {
	defer s.markReady()

	identity, err := s.api.Me(ctx)
	if err != nil {
		s.setSession(nil)
		if errors.Is(err, ErrUnauthorized) {
			return nil
		}
		return fmt.Errorf("restore session: %w", err)
	}
	return s.open(ctx, identity.UserID, identity.Username)
}

// WaitReady blocks until Init has finished or ctx is done.
func (s *Store) WaitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State reports the current lifecycle state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Snapshot returns a deep copy of the session, or nil when signed out.
func (s *Store) Snapshot() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return nil
	}
	out := &Session{
		UserID:   s.session.UserID,
		Username: s.session.Username,
		Sheets:   make([]model.Sheet, len(s.session.Sheets)),
	}
	for i, sheet := range s.session.Sheets {
		out.Sheets[i] = copySheet(sheet)
	}
	return out
}

// Login replaces the session with the given user's.
func (s *Store) Login(ctx context.Context, username, password string) error {
	defer s.markReady()
	username = strings.TrimSpace(username)
	userID, err := s.api.Login(ctx, username, password)
	if err != nil {
		s.settle()
		return err
	}
	return s.open(ctx, userID, username)
}

// Signup creates a user and replaces the session with theirs.
func (s *Store) Signup(ctx context.Context, username, password string) error {
	defer s.markReady()
	username = strings.TrimSpace(username)
	userID, err := s.api.Signup(ctx, username, password)
	if err != nil {
		s.settle()
		return err
	}
	return s.open(ctx, userID, username)
}

// Logout clears the session. The server call is best effort; the cookie is
// dropped locally either way.
func (s *Store) Logout(ctx context.Context) {
	s.setSession(nil)
	s.markReady()
	_ = s.api.Logout(ctx)
	s.api.forgetSession()
}

// Refresh reloads the sheet list from the server, discarding unsaved edits.
func (s *Store) Refresh(ctx context.Context) error {
	userID, err := s.userID()
	if err != nil {
		return err
	}
	sheets, err := s.api.ListSheets(ctx, userID)
	if err != nil {
		return fmt.Errorf("list sheets: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != nil && s.session.UserID == userID {
		s.session.Sheets = sheets
	}
	return nil
}

// open loads the user's sheets and installs the session. A failed sheet load
// still leaves the user signed in with an empty list.
func (s *Store) open(ctx context.Context, userID uuid.UUID, username string) error {
	sheets, err := s.api.ListSheets(ctx, userID)
	if sheets == nil {
		sheets = []model.Sheet{}
	}
	s.setSession(&Session{UserID: userID, Username: username, Sheets: sheets})
	if err != nil {
		return fmt.Errorf("list sheets: %w", err)
	}
	return nil
}

func (s *Store) setSession(session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = session
	if session == nil {
		s.state = StateAnonymous
	} else {
		s.state = StateAuthenticated
	}
}

// settle resolves a still-loading store to anonymous.
func (s *Store) settle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateLoading {
		s.state = StateAnonymous
	}
}

func (s *Store) markReady() {
	s.readyOnce.Do(func() { close(s.ready) })
}

func (s *Store) userID() (uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return uuid.Nil, ErrNotAuthenticated
	}
	return s.session.UserID, nil
}

func copySheet(sheet model.Sheet) model.Sheet {
	out := sheet
	out.Transactions = append([]model.Transaction(nil), sheet.Transactions...)
	if out.Transactions == nil {
		out.Transactions = []model.Transaction{}
	}
	return out
}

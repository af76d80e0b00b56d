package authclient

import (
	"context"
	"sync"
)

// sessionAPI is the slice of Client the store needs.
type sessionAPI interface {
	Login(ctx context.Context, email, password string) (*User, error)
	Refresh(ctx context.Context) (string, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*User, error)
}

// State is a snapshot of the session store.
type State struct {
	User            *User
	IsAuthenticated bool
	IsLoading       bool
	IsInitialized   bool
	Error           string
}

// SessionStore is the single place that converts auth call outcomes into
// visible session state. All transitions hold the mutex; the network calls
// themselves run outside it.
type SessionStore struct {
	api sessionAPI

	mu       sync.Mutex
	state    State
	initOnce sync.Once
}

func NewSessionStore(api sessionAPI) *SessionStore {
	return &SessionStore{api: api}
}

// Snapshot returns a copy of the current state.
func (s *SessionStore) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Initialize runs exactly once per store. It attempts a silent refresh using
// the cookie and, on success, loads the current user. It always ends with
// IsInitialized set, whatever the outcome.
func (s *SessionStore) Initialize(ctx context.Context) {
	s.initOnce.Do(func() {
		s.setLoading(true)

		if _, err := s.api.Refresh(ctx); err != nil {
			s.finishInit(nil)
			return
		}

		user, err := s.api.Me(ctx)
		if err != nil {
			s.finishInit(nil)
			return
		}
		s.finishInit(user)
	})
}

// Login authenticates and reports success. On failure the error message is
// recorded in state and the store transitions to unauthenticated.
func (s *SessionStore) Login(ctx context.Context, email, password string) bool {
	s.setLoading(true)

	user, err := s.api.Login(ctx, email, password)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.IsLoading = false
	if err != nil {
		s.state.User = nil
		s.state.IsAuthenticated = false
		s.state.Error = loginErrorMessage(err)
		return false
	}
	s.state.User = user
	s.state.IsAuthenticated = true
	s.state.Error = ""
	return true
}

// Logout calls the logout flow and unconditionally clears local state.
func (s *SessionStore) Logout(ctx context.Context) {
	_ = s.api.Logout(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.User = nil
	s.state.IsAuthenticated = false
	s.state.IsLoading = false
	s.state.Error = ""
}

// RefreshToken attempts a silent refresh. On success it re-fetches the user
// best-effort and reports true. On failure it clears the authenticated state
// without calling full logout; background refresh must not redirect by itself.
func (s *SessionStore) RefreshToken(ctx context.Context) bool {
	if _, err := s.api.Refresh(ctx); err != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.state.User = nil
		s.state.IsAuthenticated = false
		return false
	}

	if user, err := s.api.Me(ctx); err == nil {
		s.mu.Lock()
		s.state.User = user
		s.state.IsAuthenticated = true
		s.mu.Unlock()
	}
	return true
}

func (s *SessionStore) setLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.IsLoading = loading
	if loading {
		s.state.Error = ""
	}
}

func (s *SessionStore) finishInit(user *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.User = user
	s.state.IsAuthenticated = user != nil
	s.state.IsLoading = false
	s.state.IsInitialized = true
}

func loginErrorMessage(err error) string {
	if apiErr, ok := err.(*APIError); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	return "login failed"
}

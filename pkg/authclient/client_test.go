package authclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type authServer struct {
	mu           sync.Mutex
	validToken   string
	refreshToken string
	refreshFails bool
	refreshDelay time.Duration

	meCalls      int32
	refreshCalls int32
}

func (s *authServer) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Password != "correct-horse" {
			writeTestError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "refresh_token", Value: "cookie-token", Path: "/"})
		writeTestSuccess(w, http.StatusOK, map[string]any{
			"user":        map[string]any{"username": "pim", "email": body.Email, "role": "Employee", "isActive": true},
			"accessToken": s.currentToken(),
		})
	})

	mux.HandleFunc("POST /api/v1/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&s.refreshCalls, 1)
		if s.refreshDelay > 0 {
			time.Sleep(s.refreshDelay)
		}
		if s.refreshFails {
			writeTestError(w, http.StatusForbidden, "invalid refresh token")
			return
		}
		if cookie, err := r.Cookie("refresh_token"); err != nil || cookie.Value == "" {
			writeTestError(w, http.StatusUnauthorized, "missing refresh token")
			return
		}
		s.mu.Lock()
		s.validToken = s.refreshToken
		s.mu.Unlock()
		writeTestSuccess(w, http.StatusOK, map[string]any{"accessToken": s.refreshToken})
	})

	mux.HandleFunc("GET /api/v1/auth/me", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&s.meCalls, 1)
		if r.Header.Get("Authorization") != "Bearer "+s.currentToken() {
			writeTestError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		writeTestSuccess(w, http.StatusOK, map[string]any{
			"user": map[string]any{"username": "pim", "email": "pim@example.com", "role": "Super", "isActive": true},
		})
	})

	mux.HandleFunc("POST /api/v1/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		writeTestError(w, http.StatusInternalServerError, "something went wrong")
	})

	return mux
}

func (s *authServer) currentToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validToken
}

func writeTestSuccess(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data})
}

func writeTestError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": message})
}

func newTestClient(t *testing.T, srv *authServer) (*Client, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(srv.handler())
	t.Cleanup(ts.Close)

	client, err := New(ts.URL, NewTokenCache())
	if err != nil {
		t.Fatalf("building client: %v", err)
	}
	return client, ts
}

func TestClientLoginCachesAccessToken(t *testing.T) {
	srv := &authServer{validToken: "initial-access", refreshToken: "refreshed-access"}
	client, _ := newTestClient(t, srv)

	user, err := client.Login(context.Background(), "pim@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user == nil || user.Email != "pim@example.com" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if got := client.TokenCache().Get(); got != "initial-access" {
		t.Fatalf("expected cached access token, got %q", got)
	}
}

func TestClientAttachesBearerToken(t *testing.T) {
	srv := &authServer{validToken: "initial-access", refreshToken: "refreshed-access"}
	client, _ := newTestClient(t, srv)
	client.TokenCache().Set("initial-access")

	user, err := client.Me(context.Background())
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if user.Role != "Super" {
		t.Fatalf("unexpected role %q", user.Role)
	}
}

func TestClientRetriesOnceAfterRefresh(t *testing.T) {
	srv := &authServer{validToken: "initial-access", refreshToken: "refreshed-access"}
	client, _ := newTestClient(t, srv)

	// Authenticate so the refresh cookie is in the jar, then let the
	// cached token go stale.
	if _, err := client.Login(context.Background(), "pim@example.com", "correct-horse"); err != nil {
		t.Fatalf("login: %v", err)
	}
	client.TokenCache().Set("stale-access")

	user, err := client.Me(context.Background())
	if err != nil {
		t.Fatalf("me after refresh: %v", err)
	}
	if user == nil {
		t.Fatal("expected user after retry")
	}
	if got := atomic.LoadInt32(&srv.refreshCalls); got != 1 {
		t.Fatalf("expected 1 refresh call, got %d", got)
	}
	if got := atomic.LoadInt32(&srv.meCalls); got != 2 {
		t.Fatalf("expected the call to be retried exactly once, got %d attempts", got)
	}
	if got := client.TokenCache().Get(); got != "refreshed-access" {
		t.Fatalf("expected refreshed token in cache, got %q", got)
	}
}

func TestClientSurfacesOriginal401WhenRefreshFails(t *testing.T) {
	srv := &authServer{validToken: "initial-access", refreshToken: "refreshed-access", refreshFails: true}
	client, _ := newTestClient(t, srv)
	client.TokenCache().Set("stale-access")

	_, err := client.Me(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("expected the original 401 to surface, got %d", apiErr.Status)
	}
	if apiErr.Message != "invalid token" {
		t.Fatalf("expected the original error message, got %q", apiErr.Message)
	}
	if !IsUnauthorized(err) {
		t.Fatal("IsUnauthorized should report true")
	}
	if got := atomic.LoadInt32(&srv.meCalls); got != 1 {
		t.Fatalf("failed refresh must not retry the call, got %d attempts", got)
	}
}

func TestClientRefreshNeverRetriesItself(t *testing.T) {
	srv := &authServer{validToken: "initial-access", refreshToken: "refreshed-access", refreshFails: true}
	client, _ := newTestClient(t, srv)

	if _, err := client.Refresh(context.Background()); err == nil {
		t.Fatal("expected refresh error")
	}
	if got := atomic.LoadInt32(&srv.refreshCalls); got != 1 {
		t.Fatalf("expected exactly 1 refresh attempt, got %d", got)
	}
}

func TestClientDedupesConcurrentRefreshes(t *testing.T) {
	srv := &authServer{validToken: "initial-access", refreshToken: "refreshed-access", refreshDelay: 50 * time.Millisecond}
	client, _ := newTestClient(t, srv)

	if _, err := client.Login(context.Background(), "pim@example.com", "correct-horse"); err != nil {
		t.Fatalf("login: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.Refresh(context.Background())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("refresh: %v", err)
		}
	}
	if got := atomic.LoadInt32(&srv.refreshCalls); got != 1 {
		t.Fatalf("expected concurrent refreshes to share 1 network call, got %d", got)
	}
}

func TestClientLogoutClearsCacheEvenOnError(t *testing.T) {
	srv := &authServer{validToken: "initial-access", refreshToken: "refreshed-access"}
	client, _ := newTestClient(t, srv)
	client.TokenCache().Set("initial-access")

	err := client.Logout(context.Background())
	if err == nil {
		t.Fatal("expected the server error to propagate")
	}
	if got := client.TokenCache().Get(); got != "" {
		t.Fatalf("logout must clear the token slot, got %q", got)
	}
}

func TestClientRejectsBadBaseURL(t *testing.T) {
	if _, err := New("://nope", nil); err == nil {
		t.Fatal("expected parse error")
	}
}

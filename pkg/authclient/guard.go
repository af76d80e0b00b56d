package authclient

import "net/url"

const (
	// LoginPath is where unauthenticated sessions are sent.
	LoginPath = "/login"
	// AdminRoot is the landing path for authenticated sessions.
	AdminRoot = "/admin"
	// RedirectParam preserves the originally requested path across the
	// login redirect.
	RedirectParam = "redirect"
)

// publicOnlyPaths may not be visited by an authenticated session.
var publicOnlyPaths = map[string]bool{
	LoginPath:   true,
	"/register": true,
}

// Decision is the route guard's verdict for a gated path.
type Decision int

const (
	// DecisionLoading renders a placeholder until the session is initialized.
	DecisionLoading Decision = iota
	// DecisionRedirect sends the visitor to RedirectTo without rendering.
	DecisionRedirect
	// DecisionRender shows the protected content.
	DecisionRender
)

// GuardResult couples a decision with its redirect target.
type GuardResult struct {
	Decision   Decision
	RedirectTo string
}

// Evaluate applies the in-page guard rules to the current session state for
// a protected path. Content is never rendered for an unauthenticated session;
// the redirect preserves the requested path.
func Evaluate(state State, requestedPath string) GuardResult {
	if !state.IsInitialized || state.IsLoading {
		return GuardResult{Decision: DecisionLoading}
	}
	if !state.IsAuthenticated {
		return GuardResult{
			Decision:   DecisionRedirect,
			RedirectTo: loginRedirect(requestedPath),
		}
	}
	return GuardResult{Decision: DecisionRender}
}

// EdgeRedirect applies the pre-render routing rules using only the presence
// of the refresh cookie as a coarse signal. It returns the target path and
// whether a redirect applies.
func EdgeRedirect(path string, hasRefreshCookie bool) (string, bool) {
	if path == "/" {
		if hasRefreshCookie {
			return AdminRoot, true
		}
		return LoginPath, true
	}

	if publicOnlyPaths[path] {
		if hasRefreshCookie {
			return AdminRoot, true
		}
		return "", false
	}

	if isProtected(path) && !hasRefreshCookie {
		return loginRedirect(path), true
	}

	return "", false
}

func isProtected(path string) bool {
	return path == AdminRoot || len(path) > len(AdminRoot) && path[:len(AdminRoot)+1] == AdminRoot+"/"
}

func loginRedirect(requestedPath string) string {
	if requestedPath == "" || requestedPath == LoginPath {
		return LoginPath
	}
	return LoginPath + "?" + RedirectParam + "=" + url.QueryEscape(requestedPath)
}

// Package gate decides whether a navigation target may be shown for the
// currently published session. It is a pure function of its inputs: no I/O,
// no fresh verification, evaluated only against an already-resolved session.
package gate

import "github.com/tailorcv/tailorcv-cli/internal/client/session"

// Navigable paths. Unknown paths are treated as protected.
const (
	PathHome      = "/"
	PathSignIn    = "/signin"
	PathGenerate  = "/generate"
	PathUpgrade   = "/payment"
	PathDashboard = "/dashboard"
)

// DefaultLandingPath is where signed-in visitors land when they request a
// public page.
const DefaultLandingPath = PathDashboard

// publicPaths are reachable without a session.
var publicPaths = map[string]bool{
	PathHome:   true,
	PathSignIn: true,
}

// Decision is the outcome of a gate check: either the path is allowed, or
// the caller must navigate to RedirectTo instead.
type Decision struct {
	Allow      bool
	RedirectTo string
}

// IsPublic reports whether path is reachable without a session.
func IsPublic(path string) bool {
	return publicPaths[path]
}

// Decide maps (session, path) to exactly one Decision:
//
//   - public path with an active session redirects to the landing page,
//   - protected path without a session redirects to sign-in,
//   - everything else is allowed.
func Decide(s *session.Session, path string) Decision {
	signedIn := s != nil

	if IsPublic(path) {
		if signedIn {
			return Decision{RedirectTo: DefaultLandingPath}
		}
		return Decision{Allow: true}
	}

	if !signedIn {
		return Decision{RedirectTo: PathSignIn}
	}
	return Decision{Allow: true}
}

package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tailorcv/tailorcv-cli/internal/client/session"
)

func activeSession() *session.Session {
	return &session.Session{Token: "tok1", User: session.User{ID: "u1"}}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name string
		sess *session.Session
		path string
		want Decision
	}{
		{"signed out, home", nil, PathHome, Decision{Allow: true}},
		{"signed out, signin", nil, PathSignIn, Decision{Allow: true}},
		{"signed out, generate", nil, PathGenerate, Decision{RedirectTo: PathSignIn}},
		{"signed out, payment", nil, PathUpgrade, Decision{RedirectTo: PathSignIn}},
		{"signed out, dashboard", nil, PathDashboard, Decision{RedirectTo: PathSignIn}},
		{"signed out, unknown path is protected", nil, "/admin", Decision{RedirectTo: PathSignIn}},

		{"signed in, home redirects to landing", activeSession(), PathHome, Decision{RedirectTo: DefaultLandingPath}},
		{"signed in, signin redirects to landing", activeSession(), PathSignIn, Decision{RedirectTo: DefaultLandingPath}},
		{"signed in, generate", activeSession(), PathGenerate, Decision{Allow: true}},
		{"signed in, payment", activeSession(), PathUpgrade, Decision{Allow: true}},
		{"signed in, dashboard", activeSession(), PathDashboard, Decision{Allow: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.sess, tt.path))
		})
	}
}

// Every (session, path) combination yields exactly one of allow/redirect.
func TestDecide_Total(t *testing.T) {
	paths := []string{PathHome, PathSignIn, PathGenerate, PathUpgrade, PathDashboard, "/nope", ""}
	sessions := []*session.Session{nil, activeSession()}

	for _, s := range sessions {
		for _, p := range paths {
			d := Decide(s, p)
			assert.True(t, d.Allow != (d.RedirectTo != ""),
				"path %q signedIn=%v: got %+v", p, s != nil, d)
		}
	}
}

func TestIsPublic(t *testing.T) {
	assert.True(t, IsPublic(PathHome))
	assert.True(t, IsPublic(PathSignIn))
	assert.False(t, IsPublic(PathGenerate))
	assert.False(t, IsPublic("/whatever"))
}

// Package identity drives the interactive sign-in surface: it brings up a
// loopback callback listener, walks the authorization-code flow with PKCE,
// and hands the resulting raw identity credential to the session layer for
// backend verification.
//
// The controller has an explicit lifecycle. It starts Unloaded, moves to
// Loading while the listener comes up, Ready once the authorization URL is
// built, and Rendered after the URL has been shown to the user. Failures
// park it in Error; retrying via Start is the only way out of Error.
package identity

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/tailorcv/tailorcv-cli/internal/apperr"
	"github.com/tailorcv/tailorcv-cli/internal/logging"
)

// Phase is the lifecycle position of the sign-in surface.
type Phase int

const (
	PhaseUnloaded Phase = iota
	PhaseLoading
	PhaseReady
	PhaseRendered
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseUnloaded:
		return "unloaded"
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseRendered:
		return "rendered"
	case PhaseError:
		return "error"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

const defaultErrTTL = 5 * time.Second

var googleEndpoint = oauth2.Endpoint{
	AuthURL:  "https://accounts.google.com/o/oauth2/v2/auth",
	TokenURL: "https://oauth2.googleapis.com/token",
}

// Config parameterizes a Controller.
type Config struct {
	// ClientID is the OAuth client identifier. Without it the controller
	// enters Error on Start instead of opening a listener.
	ClientID string

	// ListenAddr is the loopback address the callback listener binds to.
	ListenAddr string

	// OnCredential receives the raw identity credential after a successful
	// exchange. Called outside any controller lock.
	OnCredential func(rawCredential string)

	// HasSession reports whether a session is already active; Render is a
	// no-op while it returns true.
	HasSession func() bool
}

// Controller owns the sign-in lifecycle for one client process.
type Controller struct {
	mu  sync.Mutex
	log logging.Logger
	cfg Config

	// errTTL is how long a surfaced error stays visible before it is
	// auto-cleared. Shortened in tests.
	errTTL time.Duration

	// endpoint is swapped for a local token server in tests.
	endpoint oauth2.Endpoint

	phase    Phase
	lastErr  error
	errEpoch uint64

	// gen invalidates callbacks and server errors from a previous
	// Start/Stop cycle.
	gen uint64

	oauth    *oauth2.Config
	verifier string
	state    string
	authURL  string
	server   *http.Server
}

// New builds a Controller. The sign-in surface stays Unloaded until Start.
func New(cfg Config, log logging.Logger) *Controller {
	return &Controller{
		log:      log,
		cfg:      cfg,
		errTTL:   defaultErrTTL,
		endpoint: googleEndpoint,
		phase:    PhaseUnloaded,
	}
}

// Start brings the sign-in surface up: it binds the loopback listener,
// prepares the authorization URL, and moves to Ready. Calling Start while
// the surface is already up is a no-op; calling it from Error retries.
func (c *Controller) Start() error {
	c.mu.Lock()

	switch c.phase {
	case PhaseLoading, PhaseReady, PhaseRendered:
		c.mu.Unlock()
		return nil
	}

	if c.cfg.ClientID == "" {
		err := apperr.Configuration("identity provider client ID is not configured")
		c.setErrorLocked(err)
		c.mu.Unlock()
		return err
	}

	c.phase = PhaseLoading
	c.lastErr = nil
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	ln, err := net.Listen("tcp", c.cfg.ListenAddr)
	if err != nil {
		werr := &apperr.Error{
			Kind:    apperr.KindConfiguration,
			Message: fmt.Sprintf("cannot open sign-in callback listener on %s", c.cfg.ListenAddr),
			Cause:   err,
		}
		c.failIfCurrent(gen, werr)
		return werr
	}

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		ln.Close()
		return nil
	}

	c.verifier = newVerifier()
	c.state = uuid.NewString()
	c.oauth = &oauth2.Config{
		ClientID:    c.cfg.ClientID,
		Endpoint:    c.endpoint,
		RedirectURL: fmt.Sprintf("http://%s/callback", ln.Addr().String()),
		Scopes:      []string{"openid", "email", "profile"},
	}
	c.authURL = c.oauth.AuthCodeURL(c.state,
		oauth2.SetAuthURLParam("code_challenge", challengeS256(c.verifier)),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)

	r := chi.NewRouter()
	r.Get("/callback", func(w http.ResponseWriter, req *http.Request) {
		c.handleCallback(gen, w, req)
	})
	srv := &http.Server{Handler: r}
	c.server = srv
	c.phase = PhaseReady
	c.mu.Unlock()

	c.log.Info(context.Background(), "sign-in surface ready", "addr", ln.Addr().String())

	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			c.failIfCurrent(gen, &apperr.Error{
				Kind:    apperr.KindConfiguration,
				Message: "sign-in callback listener failed",
				Cause:   err,
			})
		}
	}()

	return nil
}

// Render shows the surface to the user by printing the authorization URL.
// It is skipped while a session is already active, and requires the surface
// to be Ready or Rendered.
func (c *Controller) Render(w io.Writer) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfg.HasSession != nil && c.cfg.HasSession() {
		return nil
	}
	switch c.phase {
	case PhaseReady, PhaseRendered:
	default:
		return apperr.Configuration("sign-in surface is not ready (phase %s)", c.phase)
	}

	fmt.Fprintf(w, "Open the following URL in your browser to sign in:\n\n  %s\n\n", c.authURL)
	c.phase = PhaseRendered
	return nil
}

// Stop tears the surface down and returns it to Unloaded. Safe to call
// repeatedly; a callback arriving after Stop is dropped.
func (c *Controller) Stop() {
	c.mu.Lock()
	c.gen++
	srv := c.server
	c.server = nil
	c.oauth = nil
	c.verifier = ""
	c.state = ""
	c.authURL = ""
	c.phase = PhaseUnloaded
	c.lastErr = nil
	c.mu.Unlock()

	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

// Phase returns the current lifecycle position.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// LastError returns the most recent surfaced error. Errors clear themselves
// after a short interval without changing the phase.
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// AuthURL returns the authorization URL, or "" before Start.
func (c *Controller) AuthURL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authURL
}

func (c *Controller) handleCallback(gen uint64, w http.ResponseWriter, req *http.Request) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		http.Error(w, "sign-in attempt is no longer active", http.StatusGone)
		return
	}
	oauthCfg := c.oauth
	verifier := c.verifier
	state := c.state
	c.mu.Unlock()

	q := req.URL.Query()
	if errCode := q.Get("error"); errCode != "" {
		c.failIfCurrent(gen, apperr.Authentication(nil, "identity provider declined sign-in: %s", errCode))
		http.Error(w, "sign-in was declined", http.StatusBadRequest)
		return
	}
	if q.Get("state") != state {
		c.failIfCurrent(gen, apperr.Authentication(nil, "sign-in state mismatch"))
		http.Error(w, "state mismatch", http.StatusBadRequest)
		return
	}

	token, err := oauthCfg.Exchange(req.Context(), q.Get("code"),
		oauth2.SetAuthURLParam("code_verifier", verifier))
	if err != nil {
		c.failIfCurrent(gen, apperr.Authentication(err, "code exchange failed"))
		http.Error(w, "code exchange failed", http.StatusBadGateway)
		return
	}

	raw, _ := token.Extra("id_token").(string)
	if raw == "" {
		c.failIfCurrent(gen, apperr.Authentication(nil, "identity provider returned no credential"))
		http.Error(w, "no credential in response", http.StatusBadGateway)
		return
	}

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		http.Error(w, "sign-in attempt is no longer active", http.StatusGone)
		return
	}
	cb := c.cfg.OnCredential
	c.mu.Unlock()

	fmt.Fprintln(w, "Signed in. You can close this tab and return to the terminal.")
	if cb != nil {
		cb(raw)
	}
}

// failIfCurrent surfaces err unless a newer Start/Stop cycle began meanwhile.
func (c *Controller) failIfCurrent(gen uint64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return
	}
	c.log.Warn(context.Background(), "sign-in surface error", "error", err)
	c.setErrorLocked(err)
}

// setErrorLocked records err, enters Error, and arms the auto-clear timer.
// The clear removes the message only; the phase never regresses on its own.
func (c *Controller) setErrorLocked(err error) {
	c.lastErr = err
	c.phase = PhaseError
	c.errEpoch++
	epoch := c.errEpoch

	time.AfterFunc(c.errTTL, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.errEpoch == epoch {
			c.lastErr = nil
		}
	})
}

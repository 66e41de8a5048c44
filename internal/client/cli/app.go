package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/tailorcv/tailorcv-cli/internal/apperr"
	"github.com/tailorcv/tailorcv-cli/internal/client/api"
	"github.com/tailorcv/tailorcv-cli/internal/client/config"
	"github.com/tailorcv/tailorcv-cli/internal/client/identity"
	"github.com/tailorcv/tailorcv-cli/internal/client/session"
	"github.com/tailorcv/tailorcv-cli/internal/logging"
)

// identitySurface is the slice of the sign-in controller the App drives.
// Tests substitute a stub.
type identitySurface interface {
	Start() error
	Render(w io.Writer) error
	Stop()
	Phase() identity.Phase
	LastError() error
}

// App ties the CLI screens to the session manager, the backend API client,
// and the sign-in surface.
type App struct {
	config   *config.Config
	log      logging.Logger
	api      api.Client
	sessions *session.Manager
	identity identitySurface

	// creds receives raw credentials from the sign-in callback.
	creds chan string

	reader *bufio.Reader
	out    io.Writer
}

// NewApp wires the application from its configuration. Missing feature
// settings (backend URL, client id) do not fail here; the affected screens
// report a configuration error when used.
func NewApp(c *config.Config, log logging.Logger) (*App, error) {
	store, err := newSessionStore(c)
	if err != nil {
		return nil, err
	}

	var backend api.Client
	apiClient, err := api.NewHTTPClient(c.BackendBaseURL, c.RequestTimeout, log)
	switch {
	case err == nil:
		backend = apiClient
	case apperr.KindOf(err) == apperr.KindConfiguration:
		log.Warn(context.Background(), "backend client unavailable", "error", err)
		backend = unconfiguredAPI{err: err}
	default:
		return nil, err
	}

	a := &App{
		config: c,
		log:    log,
		api:    backend,
		creds:  make(chan string, 1),
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}

	a.sessions = session.NewManager(backend, store, log)

	a.identity = identity.New(identity.Config{
		ClientID:   c.GoogleClientID,
		ListenAddr: c.CallbackAddr,
		OnCredential: func(raw string) {
			select {
			case a.creds <- raw:
			default:
			}
		},
		HasSession: func() bool { return a.sessions.Current() != nil },
	}, log)

	return a, nil
}

// unconfiguredAPI stands in for the backend client when the base URL is
// missing or invalid; every call surfaces the same configuration error.
type unconfiguredAPI struct{ err error }

func (u unconfiguredAPI) Me(context.Context, string) (session.User, error) {
	return session.User{}, u.err
}

func (u unconfiguredAPI) LoginGoogle(context.Context, string) (session.Session, error) {
	return session.Session{}, u.err
}

func (u unconfiguredAPI) Logout(context.Context, string) error { return u.err }

func (u unconfiguredAPI) GenerateResume(context.Context, string, map[string]string, *api.Upload) (string, error) {
	return "", u.err
}

func (u unconfiguredAPI) UploadPayment(context.Context, string, map[string]string, *api.Upload) error {
	return u.err
}

func newSessionStore(c *config.Config) (session.Store, error) {
	switch c.SessionStore {
	case config.StoreRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
		})
		return session.NewRedisStore(rdb), nil
	default:
		return session.NewFileStore(c.SessionFile)
	}
}

// Run restores the persisted session, then hands control to the REPL. It
// blocks until the user exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	defer a.identity.Stop()

	if s := a.sessions.Bootstrap(ctx); s != nil {
		fmt.Fprintf(a.out, "Welcome back, %s!\n", s.User.Name)
	}
	a.Root(ctx)
}

func (a *App) session() *session.Session {
	return a.sessions.Current()
}

func (a *App) isLoggedIn() bool {
	return a.session() != nil
}

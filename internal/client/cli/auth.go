package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/tailorcv/tailorcv-cli/internal/client/identity"
)

// getSimpleText and getMultiline are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getMultiline = GetMultiline

// signInWait bounds how long openSignIn waits for the browser round-trip.
var signInWait = 5 * time.Minute

// openHome shows the product overview screen.
func (a *App) openHome(_ context.Context) error {
	fmt.Fprintln(a.out, "TailorCV tailors your resume to a job description in seconds.")
	fmt.Fprintln(a.out, "Type 'signin' to get started.")
	return nil
}

// openSignIn brings up the sign-in surface, shows the authorization URL, and
// waits for the browser round-trip to deliver a credential. The credential
// is then verified by the backend through the session manager.
func (a *App) openSignIn(ctx context.Context) error {
	if err := a.identity.Start(); err != nil {
		fmt.Fprintf(a.out, "Sign-in is unavailable: %s\n", err)
		return err
	}
	if err := a.identity.Render(a.out); err != nil {
		fmt.Fprintf(a.out, "Sign-in is unavailable: %s\n", err)
		return err
	}

	fmt.Fprintln(a.out, "Waiting for sign-in to complete in the browser ...")

	var raw string
	select {
	case raw = <-a.creds:
	case <-time.After(signInWait):
		fmt.Fprintln(a.out, "Sign-in timed out. Type 'signin' to try again.")
		return fmt.Errorf("sign-in timed out")
	case <-ctx.Done():
		return ctx.Err()
	}

	s, err := a.sessions.Login(ctx, raw)
	if err != nil {
		fmt.Fprintf(a.out, "Sign-in failed: %s\n", err)
		return err
	}

	name := s.User.Name
	if dc, err := identity.ParseDisplayClaims(raw); err == nil && dc.Name != "" {
		name = dc.Name
	}
	fmt.Fprintf(a.out, "Welcome, %s!\n", name)
	return nil
}

// logout ends the session. The backend call is best-effort; the local
// session is cleared regardless, and the sign-in surface is torn down.
func (a *App) logout(ctx context.Context) error {
	a.sessions.Logout(ctx)
	a.identity.Stop()
	fmt.Fprintln(a.out, "Signed out.")
	return nil
}

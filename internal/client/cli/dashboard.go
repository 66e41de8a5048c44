package cli

import (
	"context"
	"fmt"
)

// openDashboard shows the account overview.
func (a *App) openDashboard(_ context.Context) error {
	s := a.session()
	if s == nil {
		return fmt.Errorf("no active session")
	}
	u := s.User

	plan := "free"
	if u.IsPremium {
		plan = "premium"
	}

	fmt.Fprintf(a.out, "%s <%s>\n", u.Name, u.Email)
	fmt.Fprintf(a.out, "  plan:       %s\n", plan)
	fmt.Fprintf(a.out, "  generated:  %d resume(s)\n", u.GenerationCount)
	if u.LastGenerated != "" {
		fmt.Fprintf(a.out, "  last used:  %s\n", u.LastGenerated)
	}
	if u.IsPremium && u.UpgradedAt != "" {
		fmt.Fprintf(a.out, "  premium on: %s\n", u.UpgradedAt)
	}
	if !u.IsPremium {
		fmt.Fprintln(a.out, "Type 'upgrade' to unlock unlimited generations.")
	}
	return nil
}

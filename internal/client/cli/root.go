package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"golang.org/x/term"
)

func (a *App) getStatus() string {
	s := a.session()
	if s == nil {
		return ""
	}
	status := s.User.Email
	if s.User.IsPremium {
		status += " premium"
	}
	return fmt.Sprintf("(%s) ", status)
}

// Root runs the interactive loop on stdin until the user exits.
func (a *App) Root(ctx context.Context) {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintln(a.out, "TailorCV CLI (type 'help' for commands)")
	}

	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)
}

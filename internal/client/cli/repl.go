package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/tailorcv/tailorcv-cli/internal/client/gate"
	"github.com/tailorcv/tailorcv-cli/internal/client/session"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal screen surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a stub.
type execIface interface {
	isLoggedIn() bool
	session() *session.Session
	openHome(ctx context.Context) error
	openSignIn(ctx context.Context) error
	openGenerate(ctx context.Context) error
	openUpgrade(ctx context.Context) error
	openDashboard(ctx context.Context) error
	logout(ctx context.Context) error
}

// commandPaths maps REPL commands to the screen paths the gate reasons about.
var commandPaths = map[string]string{
	"home":      gate.PathHome,
	"signin":    gate.PathSignIn,
	"login":     gate.PathSignIn,
	"generate":  gate.PathGenerate,
	"upgrade":   gate.PathUpgrade,
	"dashboard": gate.PathDashboard,
}

// runREPL starts a simple read-eval-print loop for the TailorCV CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Navigation commands are routed
// through the gate first, so a protected screen opened without a session
// lands on sign-in, and home/signin opened with an active session land on
// the dashboard. Unknown commands are reported back to the user. The loop
// exits on scanner EOF or when the user types "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Signed out:
//	  - help           — show available commands
//	  - home           — product overview
//	  - signin | login — sign in with Google
//	  - exit | quit    — leave the program
//
//	Signed in:
//	  - help           — show available commands
//	  - generate       — generate a tailored resume
//	  - upgrade        — submit a premium upgrade payment
//	  - dashboard      — account overview
//	  - logout         — sign out
//	  - exit | quit    — leave the program
//
// Any errors returned by screen handlers are ignored here; handlers report
// their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("tailorcv %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: generate, upgrade, dashboard, logout, exit")
			} else {
				printlnFn("Available commands: home, signin, exit")
			}

		case "logout":
			_ = a.logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			path, ok := commandPaths[cmd]
			if !ok {
				printlnFn("Unknown command:", cmd)
				continue
			}
			openScreen(ctx, a, path)
		}
	}
}

// openScreen routes path through the gate and dispatches the resulting
// screen. A redirect is announced and followed; the gate guarantees the
// redirect target is reachable for the current session, so one hop suffices.
func openScreen(ctx context.Context, a execIface, path string) {
	d := gate.Decide(a.session(), path)
	if !d.Allow {
		printlnFn(fmt.Sprintf("Redirecting to %s ...", d.RedirectTo))
		path = d.RedirectTo
	}

	switch path {
	case gate.PathHome:
		_ = a.openHome(ctx)
	case gate.PathSignIn:
		_ = a.openSignIn(ctx)
	case gate.PathGenerate:
		_ = a.openGenerate(ctx)
	case gate.PathUpgrade:
		_ = a.openUpgrade(ctx)
	case gate.PathDashboard:
		_ = a.openDashboard(ctx)
	}
}

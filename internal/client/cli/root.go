package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/akarpovs/authflow/internal/client/session"
)

func (a *App) prompt() string {
	current := a.store.Current()
	switch {
	case current.Loading:
		return "authflow (working) > "
	case current.SignedIn():
		return fmt.Sprintf("authflow (%s) > ", current.Identity.Email)
	default:
		return "authflow > "
	}
}

// Run drives the REPL until exit or EOF. Out-of-band session changes are
// reported as they arrive, the way a screen would re-render.
func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, "authflow client (type 'help' for commands)")

	unsubscribe := a.store.Subscribe(a.reportTransition())
	defer unsubscribe()

	for {
		fmt.Fprint(a.out, a.prompt())
		input, err := a.reader.ReadString('\n')
		if err != nil {
			return
		}
		line := strings.TrimSpace(input)
		if line == "" {
			continue
		}

		switch line {
		case "help":
			if a.store.Current().SignedIn() {
				fmt.Fprintln(a.out, "Available commands: whoami, logout, dismiss, exit")
			} else {
				fmt.Fprintln(a.out, "Available commands: register, login, dismiss, exit")
			}
		case "register":
			a.Register(ctx)
		case "login":
			a.Login(ctx)
		case "logout":
			a.Logout(ctx)
		case "whoami":
			a.WhoAmI()
		case "dismiss":
			a.coordinator.DismissError()
		case "exit", "quit":
			fmt.Fprintln(a.out, "Bye!")
			return
		default:
			fmt.Fprintln(a.out, "Unknown command:", line)
		}
	}
}

// reportTransition prints sign-in/sign-out edges so provider-originated
// changes are visible even when no command is running.
func (a *App) reportTransition() func(session.Session) {
	var last session.Session
	return func(current session.Session) {
		switch {
		case current.SignedIn() && !last.SignedIn():
			fmt.Fprintf(a.out, "signed in as %s\n", current.Identity.Email)
		case !current.SignedIn() && last.SignedIn():
			fmt.Fprintln(a.out, "signed out")
		}
		last = current
	}
}

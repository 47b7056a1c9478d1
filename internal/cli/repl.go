package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/models"
)

// Repl reads commands until exit or EOF. Only an invariant violation ends it
// with an error.
func (a *App) Repl(ctx context.Context) error {
	fmt.Fprintln(a.out, "SCS auth (type 'help' for commands)")

	for {
		fmt.Fprint(a.out, "scs-auth> ")
		line, err := a.reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			fmt.Fprintln(a.out)
			return nil
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		switch parts[0] {
		case "exit", "quit":
			fmt.Fprintln(a.out, "Bye!")
			return nil
		}

		if err := a.Exec(ctx, parts[0], parts[1:]); err != nil {
			if models.KindOf(err) == models.ErrorKindInvariantViolation {
				return err
			}
			fmt.Fprintf(a.out, "Error: %v\n", err)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// printNotifications drains whatever the last command queued.
func (a *App) printNotifications() {
	for {
		select {
		case n := <-a.notifications:
			fmt.Fprintln(a.out, renderNotification(n))
		default:
			return
		}
	}
}

func renderNotification(n models.Notification) string {
	switch n.Template {
	case models.NotifyAccountCreationFailed:
		return "Your account could not be created. Please try again."
	case models.NotifyAccountCreationNeeded:
		return "No account is linked to this sign-in yet. Sign up first."
	case models.NotifyProviderAuthFailed:
		return "Sign-in with the provider did not complete."
	case models.NotifyLoginFailed:
		return "Login failed. Check your credentials."
	case models.NotifyUsernameNotFound:
		return fmt.Sprintf("No account found for username %v.", n.Params["username"])
	case models.NotifyCooldownActive:
		return fmt.Sprintf("Too many failed attempts. Try again in %v minutes.", n.Params["minutes"])
	case models.NotifyPasswordResetSent:
		return fmt.Sprintf("A password reset link was sent to %v.", n.Params["email"])
	case models.NotifyPasswordResetFailed:
		return "The password reset email could not be sent."
	case models.NotifySignOutFailed:
		return "Signed out locally, but the server could not be reached."
	}
	return string(n.Template)
}

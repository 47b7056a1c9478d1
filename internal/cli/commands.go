package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/models"
	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/service"
)

// ErrUnknownCommand is returned for commands Exec does not know.
var ErrUnknownCommand = errors.New("unknown command")

const usage = `Commands:
  signup [google|apple|microsoft]  create an account
  login [email or username]        log in with a password
  oauth <google|apple|microsoft>   log in with a provider
  signout                          end the session
  reset [email]                    send a password reset link
  whoami                           show the active session
  reconcile [batch]                retry failed credential cleanups
  help                             show this message`

// Exec runs a single command. Notifications raised by the command are
// printed before it returns.
func (a *App) Exec(ctx context.Context, cmd string, args []string) error {
	defer a.printNotifications()

	switch cmd {
	case "help":
		fmt.Fprintln(a.out, usage)
		return nil
	case "signup":
		if len(args) > 0 {
			return a.signUpWithProvider(ctx, args[0])
		}
		return a.signUp(ctx)
	case "login":
		return a.logIn(ctx, args)
	case "oauth":
		if len(args) == 0 {
			return errors.New("usage: oauth <google|apple|microsoft>")
		}
		return a.logInWithProvider(ctx, args[0])
	case "signout":
		return a.signOut(ctx)
	case "reset":
		return a.resetPassword(ctx, args)
	case "whoami":
		return a.whoAmI(ctx)
	case "reconcile":
		return a.reconcile(ctx, args)
	}
	return fmt.Errorf("%w: %s", ErrUnknownCommand, cmd)
}

func (a *App) signUp(ctx context.Context) error {
	var profile models.Profile
	var credentials models.Credentials
	var err error

	if profile.FirstName, err = GetSimpleText(a.reader, "First name", a.out); err != nil {
		return err
	}
	if profile.LastName, err = GetSimpleText(a.reader, "Last name", a.out); err != nil {
		return err
	}
	if profile.Username, err = GetSimpleText(a.reader, "Username", a.out); err != nil {
		return err
	}
	if profile.ExternalReferralCode, err = GetSimpleText(a.reader, "Referral code (optional)", a.out); err != nil {
		return err
	}
	if credentials.Email, err = GetSimpleText(a.reader, "Email", a.out); err != nil {
		return err
	}
	if credentials.Password, err = GetPassword(a.out); err != nil {
		return err
	}

	user, _, err := a.signup.Submit(ctx, profile, credentials)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Welcome, %s!\n", user.Username)
	return nil
}

func (a *App) signUpWithProvider(ctx context.Context, name string) error {
	provider, err := parseProvider(name)
	if err != nil {
		return err
	}

	var hints models.ProfileHints
	if hints.Username, err = GetSimpleText(a.reader, "Username", a.out); err != nil {
		return err
	}
	if hints.FirstName, err = GetSimpleText(a.reader, "First name (blank to use the provider's)", a.out); err != nil {
		return err
	}
	if hints.LastName, err = GetSimpleText(a.reader, "Last name (blank to use the provider's)", a.out); err != nil {
		return err
	}
	if hints.ExternalReferralCode, err = GetSimpleText(a.reader, "Referral code (optional)", a.out); err != nil {
		return err
	}

	if err := a.callbacks.Start(); err != nil {
		return err
	}
	user, _, err := a.signup.SubmitWithProvider(ctx, provider, hints)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Welcome, %s!\n", user.Username)
	return nil
}

func (a *App) logIn(ctx context.Context, args []string) error {
	if !a.login.CanSubmit(ctx) {
		remaining, _ := a.login.CooldownRemaining(ctx)
		if remaining > 0 {
			return fmt.Errorf("%w: try again in %s", service.ErrCooldownActive, remaining.Round(time.Second))
		}
	}

	var identifier string
	var err error
	if len(args) > 0 {
		identifier = args[0]
	} else if identifier, err = GetSimpleText(a.reader, "Email or username", a.out); err != nil {
		return err
	}
	password, err := GetPassword(a.out)
	if err != nil {
		return err
	}

	session, err := a.login.Submit(ctx, identifier, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Logged in as %s\n", displayName(session))
	return nil
}

func (a *App) logInWithProvider(ctx context.Context, name string) error {
	provider, err := parseProvider(name)
	if err != nil {
		return err
	}
	if err := a.callbacks.Start(); err != nil {
		return err
	}
	_, session, err := a.signup.SubmitWithProvider(ctx, provider, models.ProfileHints{})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Logged in as %s\n", displayName(session))
	return nil
}

func (a *App) signOut(ctx context.Context) error {
	result, signOutErr := a.auth.SignOut(ctx)
	if _, err := a.sessions.Apply(ctx, result.Transition); err != nil {
		return err
	}
	if signOutErr != nil {
		return signOutErr
	}
	fmt.Fprintln(a.out, "Signed out")
	return nil
}

func (a *App) resetPassword(ctx context.Context, args []string) error {
	var email string
	var err error
	if len(args) > 0 {
		email = args[0]
	} else if email, err = GetSimpleText(a.reader, "Email", a.out); err != nil {
		return err
	}
	if !a.auth.SendResetPasswordEmailLink(ctx, email) {
		return errors.New("password reset email could not be sent")
	}
	return nil
}

func (a *App) whoAmI(ctx context.Context) error {
	session, err := a.sessions.Current(ctx)
	if errors.Is(err, service.ErrNoActiveSession) {
		fmt.Fprintln(a.out, "Not logged in")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s (%s)\n", displayName(session), session.AuthProvider)
	return nil
}

func (a *App) reconcile(ctx context.Context, args []string) error {
	batch := 0
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid batch size %q: %w", args[0], err)
		}
		batch = n
	}
	report, err := a.reconciler.Run(ctx, batch)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted %d, requeued %d, dropped %d\n", report.Deleted, report.Requeued, report.Dropped)
	return nil
}

func parseProvider(name string) (models.AuthProvider, error) {
	provider := models.AuthProvider(strings.ToUpper(name))
	if !provider.IsOAuth() {
		return "", fmt.Errorf("%w: %s", service.ErrProviderNotConfigured, name)
	}
	return provider, nil
}

func displayName(session *models.Session) string {
	if session == nil {
		return ""
	}
	if session.User != nil && session.User.Username != "" {
		return session.User.Username
	}
	return session.SubjectID
}

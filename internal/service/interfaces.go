package service

import (
	"context"

	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/models"
	"golang.org/x/oauth2"
)

// CredentialProvider is the external identity service. It owns passwords and
// federated identities.
type CredentialProvider interface {
	CreateCredential(ctx context.Context, email, password, idempotencyKey string) (*models.Credential, error)
	VerifyCredential(ctx context.Context, email, password string) (*models.Credential, error)
	// DeleteCredential is best-effort; callers decide what a failure means.
	DeleteCredential(ctx context.Context, credential *models.Credential) error
	// BeginProviderFlow runs the interactive OAuth flow. A nil identity or one
	// that is not Complete means the flow yielded nothing usable.
	BeginProviderFlow(ctx context.Context, provider models.AuthProvider) (*models.ProviderIdentity, error)
	SendPasswordResetEmail(ctx context.Context, email string) bool
	SignOut(ctx context.Context) error
}

// UserRegistry is the application backend that owns ApplicationUser records.
type UserRegistry interface {
	// CreateUser returns (nil, err) when the registry rejects the record.
	CreateUser(ctx context.Context, input models.CreateUserInput) (*models.ApplicationUser, error)
	DoesEmailExist(ctx context.Context, email string) (bool, error)
	DoesUsernameExist(ctx context.Context, username string) (bool, error)
	// GetEmailForUsername returns ErrUserNotFound when no mapping exists.
	GetEmailForUsername(ctx context.Context, username string) (string, error)
	GetUserByEmail(ctx context.Context, email string) (*models.ApplicationUser, error)
}

// Notifier receives user-facing intents. It must not block.
type Notifier interface {
	Notify(ctx context.Context, notification models.Notification)
}

// AnalyticsSink is fire-and-forget telemetry.
type AnalyticsSink interface {
	Identify(ctx context.Context, subjectID string, traits map[string]any)
	Track(ctx context.Context, event string, subjectID string, properties map[string]any)
}

// Authenticator is the slice of AuthService the login form drives.
type Authenticator interface {
	LoginWithEmail(ctx context.Context, email, password string) (*models.AuthResult, error)
	LoginWithUsername(ctx context.Context, username, password string) (*models.AuthResult, error)
}

// AccountCreator is the slice of AuthService the sign-up form drives.
type AccountCreator interface {
	CreateAccount(ctx context.Context, profile models.Profile, credentials models.Credentials) (*models.AuthResult, error)
	AuthenticateWithProvider(ctx context.Context, provider models.AuthProvider, hints *models.ProfileHints) (*models.AuthResult, error)
}

// SessionApplier applies orchestrator transitions to the client session.
type SessionApplier interface {
	Apply(ctx context.Context, transition *models.SessionTransition) (*models.Session, error)
}

// OAuthProvider handles interactions with one OIDC provider.
type OAuthProvider interface {
	Name() models.AuthProvider
	GetAuthCodeURL(ctx context.Context, state, redirectURL, codeVerifier string) (string, error)
	ExchangeCode(ctx context.Context, code, redirectURL, codeVerifier string) (*oauth2.Token, error)
	VerifyIDToken(ctx context.Context, token *oauth2.Token) (*models.VerifiedIDToken, error)
}

// ProviderAuthorizer runs the browser half of an OAuth flow and returns the
// verified ID token.
type ProviderAuthorizer interface {
	Authorize(ctx context.Context, provider models.AuthProvider) (*models.VerifiedIDToken, error)
}

// CallbackReceiver waits for the OAuth redirect carrying the authorization code.
type CallbackReceiver interface {
	RedirectURL() string
	// Expect registers state before the provider page is opened.
	Expect(state string) error
	Forget(state string)
	WaitForCode(ctx context.Context, state string) (string, error)
}

// BrowserOpener shows the authorization URL to the user.
type BrowserOpener interface {
	Open(ctx context.Context, url string) error
}

// CredentialDeleter is what the reconciler needs from the identity service.
type CredentialDeleter interface {
	DeleteCredential(ctx context.Context, credential *models.Credential) error
}

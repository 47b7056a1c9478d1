package models

// AuthProvider tags how an ApplicationUser first registered.
type AuthProvider string

const (
	AuthProviderDefault   AuthProvider = "DEFAULT"
	AuthProviderGoogle    AuthProvider = "GOOGLE"
	AuthProviderApple     AuthProvider = "APPLE"
	AuthProviderMicrosoft AuthProvider = "MICROSOFT"
)

// OAuthProviders is the closed set accepted by the interactive provider flow.
var OAuthProviders = []AuthProvider{AuthProviderGoogle, AuthProviderApple, AuthProviderMicrosoft}

// IsOAuth reports whether p is one of the OAuth providers.
func (p AuthProvider) IsOAuth() bool {
	for _, candidate := range OAuthProviders {
		if p == candidate {
			return true
		}
	}
	return false
}

// ApplicationUser is the platform's user profile, keyed by the credential subject.
type ApplicationUser struct {
	SubjectID    string       `json:"subjectId"`
	Email        string       `json:"email"`
	Username     string       `json:"username"`
	FirstName    string       `json:"firstName"`
	LastName     string       `json:"lastName"`
	AuthProvider AuthProvider `json:"authProvider"`
	ReferralCode string       `json:"referralCode,omitempty"`
}

// CreateUserInput is sent to the user registry right after a credential exists.
type CreateUserInput struct {
	SubjectID            string       `json:"subjectId"`
	Email                string       `json:"email"`
	Username             string       `json:"username"`
	FirstName            string       `json:"firstName"`
	LastName             string       `json:"lastName"`
	AuthProvider         AuthProvider `json:"authProvider"`
	ExternalReferralCode string       `json:"externalReferralCode,omitempty"`
}

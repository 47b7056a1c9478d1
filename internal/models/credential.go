package models

import "strings"

// Credential is a verified identity owned by the external identity service.
type Credential struct {
	SubjectID   string `json:"subjectId"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	PhotoURL    string `json:"photoUrl,omitempty"`
	// Token is the identity service session token bound to this credential.
	Token string `json:"token,omitempty"`
}

// VerifiedIDToken is the subset of ID token claims the orchestrator relies on.
type VerifiedIDToken struct {
	Provider      AuthProvider
	Raw           string
	Issuer        string
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// ProviderIdentity is what an interactive OAuth flow yields.
type ProviderIdentity struct {
	Provider    AuthProvider
	Email       string
	SubjectID   string
	DisplayName string
	PhotoURL    string
	Credential  *Credential
}

// Complete reports whether the identity carries everything needed to go on.
func (p *ProviderIdentity) Complete() bool {
	return p != nil && p.Email != "" && p.SubjectID != "" && p.Credential != nil
}

// FirstName and LastName split the provider display name on its first space.
func (p *ProviderIdentity) FirstName() string {
	first, _ := splitDisplayName(p.DisplayName)
	return first
}

func (p *ProviderIdentity) LastName() string {
	_, last := splitDisplayName(p.DisplayName)
	return last
}

func splitDisplayName(name string) (string, string) {
	first, last, _ := strings.Cut(strings.TrimSpace(name), " ")
	return first, strings.TrimSpace(last)
}

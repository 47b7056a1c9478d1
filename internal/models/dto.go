package models

// SRPRegisterRequest is sent to the identity service to create a credential.
type SRPRegisterRequest struct {
	AuthID      string `json:"authId"`
	DisplayName string `json:"displayName"`
	Salt        string `json:"salt"`     // Hex encoded salt 's'
	Verifier    string `json:"verifier"` // Hex encoded verifier 'v'
}

// AuthStep1Request starts the SRP handshake.
type AuthStep1Request struct {
	AuthID string `json:"authId"`
}

// AuthStep1Response carries the server's salt and ephemeral value.
type AuthStep1Response struct {
	Salt    string `json:"s"` // Hex encoded salt
	ServerB string `json:"B"` // Hex encoded server ephemeral public value B
}

// AuthStep2Request is the client's proof.
type AuthStep2Request struct {
	AuthID        string `json:"authId"`
	ClientA       string `json:"A"`  // Hex encoded client public value A
	ClientProofM1 string `json:"M1"` // Hex encoded client proof M1
}

// AuthStep3Response is the server's proof plus the verified credential.
type AuthStep3Response struct {
	ServerProofM2 string `json:"M2"`
	SessionToken  string `json:"token"`
	SubjectID     string `json:"subjectId"`
	Email         string `json:"email"`
	DisplayName   string `json:"displayName"`
	PhotoURL      string `json:"photoUrl"`
}

// LinkProviderRequest hands a verified ID token to the identity service.
type LinkProviderRequest struct {
	IDToken string `json:"idToken"`
}

// PasswordResetRequest asks the identity service to mail a reset link.
type PasswordResetRequest struct {
	AuthID string `json:"authId"`
}

// ExistsResponse is the registry's reply to identifier checks.
type ExistsResponse struct {
	Exists bool `json:"exists"`
}

// EmailResponse is the registry's reply to a username lookup.
type EmailResponse struct {
	Email string `json:"email"`
}

// ErrorResponse standard error format
type ErrorResponse struct {
	Error string `json:"error"`
}

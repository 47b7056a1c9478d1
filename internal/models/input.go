package models

// Profile is the sign-up form payload.
type Profile struct {
	FirstName            string `json:"firstName" validate:"required,max=64"`
	LastName             string `json:"lastName" validate:"required,max=64"`
	Username             string `json:"username" validate:"required,username"`
	ExternalReferralCode string `json:"externalReferralCode,omitempty" validate:"omitempty,max=64"`
	// IdempotencyKey is reused across resubmits of one form instance.
	IdempotencyKey string `json:"-"`
}

// Credentials is the email/password pair typed into a form.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=64,password"`
}

// ProfileHints accompany a provider flow started from the sign-up form.
type ProfileHints struct {
	FirstName            string
	LastName             string
	Username             string
	ExternalReferralCode string
}

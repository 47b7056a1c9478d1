package models

import "time"

// NotificationTemplate names a user-facing message the UI knows how to render.
type NotificationTemplate string

const (
	NotifyAccountCreationFailed NotificationTemplate = "ACCOUNT_CREATION_FAILED"
	NotifyAccountCreationNeeded NotificationTemplate = "ACCOUNT_CREATION_NEEDED"
	NotifyProviderAuthFailed    NotificationTemplate = "PROVIDER_AUTH_FAILED"
	NotifyLoginFailed           NotificationTemplate = "LOGIN_FAILED"
	NotifyUsernameNotFound      NotificationTemplate = "USERNAME_NOT_FOUND"
	NotifyCooldownActive        NotificationTemplate = "COOLDOWN_ACTIVE"
	NotifyPasswordResetSent     NotificationTemplate = "PASSWORD_RESET_SENT"
	NotifyPasswordResetFailed   NotificationTemplate = "PASSWORD_RESET_FAILED"
	NotifySignOutFailed         NotificationTemplate = "SIGN_OUT_FAILED"
)

// Notification is an intent for the presentation layer.
type Notification struct {
	Template NotificationTemplate
	Params   map[string]any
}

// Analytics event names.
const (
	EventIdentify              = "identify"
	EventUserCreated           = "user_created"
	EventAccountCreationFailed = "account_creation_failed"
	EventProviderAuthFailed    = "provider_auth_failed"
	EventLoginSucceeded        = "login_succeeded"
	EventLoginFailed           = "login_failed"
	EventSignedOut             = "signed_out"
	EventCredentialCompensated = "credential_compensated"
	EventCompensationFailed    = "compensation_failed"
)

// AnalyticsEvent is a fire-and-forget telemetry record.
type AnalyticsEvent struct {
	Name       string         `json:"name"`
	SubjectID  string         `json:"subjectId,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

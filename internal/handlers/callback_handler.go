package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ErrAuthorizationDenied is delivered when the provider redirects back with
// an error instead of a code.
var ErrAuthorizationDenied = errors.New("authorization denied by provider")

// CallbackResult is what the provider redirect delivered for one state.
type CallbackResult struct {
	Code string
	Err  error
}

// CallbackHandler receives OAuth redirects on the loopback interface and
// hands the authorization code to whoever is waiting for that state.
type CallbackHandler struct {
	mu      sync.Mutex
	waiters map[string]chan CallbackResult
}

// NewCallbackHandler creates a new CallbackHandler
func NewCallbackHandler() *CallbackHandler {
	return &CallbackHandler{waiters: make(map[string]chan CallbackResult)}
}

// Expect registers interest in state. The channel receives at most one result.
func (h *CallbackHandler) Expect(state string) <-chan CallbackResult {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan CallbackResult, 1)
	h.waiters[state] = ch
	return ch
}

// Forget drops the waiter for state.
func (h *CallbackHandler) Forget(state string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.waiters, state)
}

func (h *CallbackHandler) take(state string) (chan CallbackResult, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch, ok := h.waiters[state]
	if ok {
		delete(h.waiters, state)
	}
	return ch, ok
}

// Callback handles both the query redirect and Apple's form_post redirect.
func (h *CallbackHandler) Callback(c echo.Context) error {
	state := c.FormValue("state")
	if state == "" {
		log.Warn().Msg("Callback without state parameter")
		return echo.NewHTTPError(http.StatusBadRequest, "State parameter missing")
	}

	ch, ok := h.take(state)
	if !ok {
		log.Warn().Str("state", state).Msg("Callback for unknown or expired state")
		return echo.NewHTTPError(http.StatusBadRequest, "Unknown or expired state")
	}

	if providerErr := c.FormValue("error"); providerErr != "" {
		description := c.FormValue("error_description")
		log.Warn().Str("error", providerErr).Str("description", description).Msg("Provider returned an error")
		ch <- CallbackResult{Err: fmt.Errorf("%w: %s %s", ErrAuthorizationDenied, providerErr, description)}
		return c.String(http.StatusOK, "Login was not completed. You can close this window.")
	}

	code := c.FormValue("code")
	if code == "" {
		ch <- CallbackResult{Err: fmt.Errorf("%w: authorization code missing", ErrAuthorizationDenied)}
		return echo.NewHTTPError(http.StatusBadRequest, "Authorization code missing")
	}

	ch <- CallbackResult{Code: code}
	log.Info().Msg("Authorization code received")
	return c.String(http.StatusOK, "Login complete. You can close this window.")
}

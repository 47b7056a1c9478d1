package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/handlers"
	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/logger"
	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/router"
)

// New creates and configures an Echo app instance
func New() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	reqLog := logger.Component("loopback")
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURIPath: true,
		LogStatus:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			reqLog.Debug().Str("method", v.Method).Str("path", v.URIPath).Int("status", v.Status).Msg("Request")
			return nil
		},
	}))
	return e
}

// LoopbackReceiver serves the OAuth redirect on a local address for the
// duration of the process.
type LoopbackReceiver struct {
	address  string
	echo     *echo.Echo
	callback *handlers.CallbackHandler
	log      zerolog.Logger

	mu       sync.Mutex
	listener net.Listener
	pending  map[string]<-chan handlers.CallbackResult
}

func NewLoopbackReceiver(address string) *LoopbackReceiver {
	e := New()
	callback := handlers.NewCallbackHandler()
	router.SetupCallbackRoutes(e, callback)
	return &LoopbackReceiver{
		address:  address,
		echo:     e,
		callback: callback,
		log:      logger.Component("loopback"),
		pending:  make(map[string]<-chan handlers.CallbackResult),
	}
}

// Start binds the address and serves in the background. Port 0 picks a free port.
func (r *LoopbackReceiver) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listener != nil {
		return nil
	}

	ln, err := net.Listen("tcp", r.address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", r.address, err)
	}
	r.listener = ln
	r.echo.Listener = ln

	go func() {
		if err := r.echo.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.log.Error().Err(err).Msg("Loopback server stopped")
		}
	}()
	r.log.Info().Str("address", ln.Addr().String()).Msg("Loopback receiver listening")
	return nil
}

// RedirectURL is the redirect URI to send with the authorization request.
func (r *LoopbackReceiver) RedirectURL() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	address := r.address
	if r.listener != nil {
		address = r.listener.Addr().String()
	}
	return "http://" + address + router.CallbackPath
}

// Expect registers state so a redirect arriving before WaitForCode is kept.
// It must be called before the browser is sent to the provider.
func (r *LoopbackReceiver) Expect(state string) error {
	_, err := r.expect(state)
	return err
}

func (r *LoopbackReceiver) expect(state string) (<-chan handlers.CallbackResult, error) {
	if err := r.Start(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if results, ok := r.pending[state]; ok {
		return results, nil
	}
	results := r.callback.Expect(state)
	r.pending[state] = results
	return results, nil
}

// Forget drops the registration for state.
func (r *LoopbackReceiver) Forget(state string) {
	r.callback.Forget(state)
	r.mu.Lock()
	delete(r.pending, state)
	r.mu.Unlock()
}

// WaitForCode blocks until the redirect for state arrives or ctx ends. A
// state not registered with Expect is registered now.
func (r *LoopbackReceiver) WaitForCode(ctx context.Context, state string) (string, error) {
	results, err := r.expect(state)
	if err != nil {
		return "", err
	}
	defer r.Forget(state)

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case result := <-results:
		if result.Err != nil {
			return "", result.Err
		}
		return result.Code, nil
	}
}

func (r *LoopbackReceiver) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	started := r.listener != nil
	r.mu.Unlock()
	if !started {
		return nil
	}
	return r.echo.Shutdown(ctx)
}

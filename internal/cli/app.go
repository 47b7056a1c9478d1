package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/config"
	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/logger"
	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/models"
	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/repository"
	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/repository/memory"
	redis_repo "github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/repository/redis"
	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/repository/sqlite"
	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/server"
	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/service"
)

const notificationBuffer = 16

type orchestrator interface {
	SignOut(ctx context.Context) (*models.AuthResult, error)
	SendResetPasswordEmailLink(ctx context.Context, email string) bool
}

type sessionManager interface {
	service.SessionApplier
	Current(ctx context.Context) (*models.Session, error)
}

type reconciler interface {
	Run(ctx context.Context, batch int) (service.ReconcileReport, error)
}

type callbackServer interface {
	Start() error
}

// App is the interactive front end over the orchestrator.
type App struct {
	auth          orchestrator
	sessions      sessionManager
	login         *service.LoginForm
	signup        *service.SignUpForm
	reconciler    reconciler
	callbacks     callbackServer
	notifications <-chan models.Notification
	reader        *bufio.Reader
	out           io.Writer
	log           zerolog.Logger
	closers       []func() error
}

// NewApp wires stores, remote clients and forms from cfg.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
		log:    logger.Component("cli"),
	}

	var redisClient *redis.Client
	if usesRedis(cfg) {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisSettings.Address,
			Password: cfg.RedisSettings.Password,
			DB:       cfg.RedisSettings.DB,
		})
		app.closers = append(app.closers, redisClient.Close)
	}

	cooldowns, err := app.openCooldownStore(ctx, cfg, redisClient)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	var sessionRepo repository.SessionRepository = memory.NewMemorySessionRepository()
	if cfg.Stores.Session == "redis" {
		sessionRepo = redis_repo.NewRedisSessionRepository(redisClient, "")
	}
	var orphans repository.OrphanRepository = memory.NewMemoryOrphanRepository()
	if cfg.Stores.Orphan == "redis" {
		orphans = redis_repo.NewRedisOrphanRepository(redisClient, "")
	}

	var analytics service.AnalyticsSink = service.NewLogAnalytics()
	if cfg.Analytics.Sink == "redis" {
		redisAnalytics := service.NewRedisAnalytics(redisClient, cfg.Analytics.Stream)
		app.closers = append(app.closers, func() error {
			redisAnalytics.Flush()
			return nil
		})
		analytics = redisAnalytics
	}

	channel := service.NewChannelNotifier(notificationBuffer)
	app.notifications = channel.Notifications()
	notifier := service.MultiNotifier{service.NewLogNotifier(), channel}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	receiver := server.NewLoopbackReceiver(cfg.OAuth.CallbackAddress)
	app.callbacks = receiver
	app.closers = append(app.closers, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return receiver.Shutdown(ctx)
	})

	flow := service.NewProviderFlowService(
		service.NewOAuthProviders(cfg, httpClient),
		memory.NewMemoryStateRepository(),
		receiver,
		&printOpener{out: app.out},
		cfg.OAuth.StateExpiry,
	)
	credentials := service.NewCredentialClient(cfg, httpClient, flow)
	registry := service.NewRegistryClient(cfg, httpClient)
	auth := service.NewAuthService(credentials, registry, notifier, analytics, orphans)
	sessions := service.NewSessionService(sessionRepo)

	if current, err := sessions.Current(ctx); err == nil {
		credentials.RestoreToken(current.Token)
	} else if !errors.Is(err, service.ErrNoActiveSession) {
		app.log.Warn().Err(err).Msg("Could not restore session")
	}

	app.auth = auth
	app.sessions = sessions
	app.login = service.NewLoginForm(auth, sessions, cooldowns, notifier, cfg.LoginPolicy)
	app.signup = service.NewSignUpForm(auth, registry, sessions)
	app.reconciler = service.NewReconcileService(orphans, credentials, analytics)
	return app, nil
}

func (a *App) openCooldownStore(ctx context.Context, cfg *config.Config, redisClient *redis.Client) (repository.CooldownRepository, error) {
	switch cfg.Stores.Cooldown {
	case "memory":
		return memory.NewMemoryCooldownRepository(), nil
	case "redis":
		return redis_repo.NewRedisCooldownRepository(redisClient, ""), nil
	default:
		db, err := sqlite.Open(ctx, cfg.Stores.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		return sqlite.NewSQLiteCooldownRepository(db), nil
	}
}

func usesRedis(cfg *config.Config) bool {
	return cfg.Stores.Cooldown == "redis" ||
		cfg.Stores.Session == "redis" ||
		cfg.Stores.Orphan == "redis" ||
		cfg.Analytics.Sink == "redis"
}

// Close releases stores in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Run executes one command when args are given, otherwise starts the REPL.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return a.Repl(ctx)
	}
	return a.Exec(ctx, args[0], args[1:])
}

type printOpener struct {
	out io.Writer
}

func (o *printOpener) Open(ctx context.Context, url string) error {
	_, err := fmt.Fprintf(o.out, "Open this URL in your browser to continue:\n  %s\n", url)
	return err
}

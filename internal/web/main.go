// Package web assembles the fiber application: middleware, handlers and the
// service lifecycle.
package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tabledeck/tabledeck/internal/acl"
	"github.com/tabledeck/tabledeck/internal/audit"
	"github.com/tabledeck/tabledeck/internal/authz"
	"github.com/tabledeck/tabledeck/internal/config"
	"github.com/tabledeck/tabledeck/internal/group"
	loggerfiber "github.com/tabledeck/tabledeck/internal/logger/adapter/fiber"
	"github.com/tabledeck/tabledeck/internal/schema"
	"github.com/tabledeck/tabledeck/internal/table"
	"github.com/tabledeck/tabledeck/internal/token"
	"github.com/tabledeck/tabledeck/internal/user"
	audithandler "github.com/tabledeck/tabledeck/internal/web/handler/audit"
	cellhandler "github.com/tabledeck/tabledeck/internal/web/handler/cell"
	columnhandler "github.com/tabledeck/tabledeck/internal/web/handler/column"
	grouphandler "github.com/tabledeck/tabledeck/internal/web/handler/group"
	"github.com/tabledeck/tabledeck/internal/web/handler/login"
	rowhandler "github.com/tabledeck/tabledeck/internal/web/handler/row"
	tablehandler "github.com/tabledeck/tabledeck/internal/web/handler/table"
	userhandler "github.com/tabledeck/tabledeck/internal/web/handler/user"
	authmw "github.com/tabledeck/tabledeck/internal/web/middleware/auth"
)

// CheckAlivePath is the unauthenticated liveness probe.
const CheckAlivePath = "/healthz"

// Deps are the long-lived components the handlers work against. They are
// constructed once in the daemon and handed in here.
type Deps struct {
	Tokens      *token.Service
	Resolver    *authz.Resolver
	Engine      *authz.Engine
	Coordinator *schema.Coordinator
	Grants      *acl.Store
	Audit       *audit.Store
	Users       *user.Service
	Groups      *group.Service
	Tables      *table.Service
}

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
	db           *gorm.DB
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for graceful shutdown of the service.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	// stop fiber http server
	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		err := s.App.Shutdown()
		if err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// New creates a new web service with the given configuration.
func New(cfg *config.Config, db *gorm.DB, deps Deps) *Service {
	if cfg == nil {
		panic("config cannot be nil")
	}

	if db == nil {
		panic("db cannot be nil")
	}

	// create fiber app
	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        "tabledeck",
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
		},
	)

	// access logging
	app.Use(loggerfiber.New(loggerfiber.Config{
		Config:        cfg.Log,
		CheckAliveURI: CheckAlivePath,
	}))

	// init web service
	service := &Service{
		cfg: cfg,
		App: app,
		db:  db,
	}
	service.alive.Store(true)

	app.Get(CheckAlivePath, func(c *fiber.Ctx) error {
		if !service.alive.Load() {
			return c.SendStatus(fiber.StatusServiceUnavailable)
		}

		return c.SendString("ok")
	})

	// bearer auth and admin gates, attached per route by the handlers
	guard := authmw.New(deps.Tokens, deps.Resolver)
	admin := authmw.RequireAdmin()

	// init handlers (they register their own routes)
	login.Handler.Init(app, cfg, deps.Users, deps.Tokens, guard)
	tablehandler.Handler.Init(app, cfg, deps.Tables, deps.Grants, guard, admin)
	columnhandler.Handler.Init(app, cfg, deps.Engine, deps.Coordinator, deps.Grants, guard, admin)
	rowhandler.Handler.Init(app, cfg, deps.Tables, deps.Engine, deps.Coordinator, guard)
	cellhandler.Handler.Init(app, cfg, deps.Tables, guard)
	userhandler.Handler.Init(app, cfg, deps.Users, deps.Grants, guard, admin)
	grouphandler.Handler.Init(app, cfg, deps.Groups, guard, admin)
	audithandler.Handler.Init(app, cfg, db, deps.Audit, guard, admin)

	return service
}

// Package daemon wires the long-lived components once at startup: database,
// token service, authorization, schema coordinator and the web service.
package daemon

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	gormmysql "gorm.io/driver/mysql"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/tabledeck/tabledeck/internal/acl"
	"github.com/tabledeck/tabledeck/internal/audit"
	"github.com/tabledeck/tabledeck/internal/authz"
	"github.com/tabledeck/tabledeck/internal/config"
	"github.com/tabledeck/tabledeck/internal/db/dsn"
	"github.com/tabledeck/tabledeck/internal/db/models"
	"github.com/tabledeck/tabledeck/internal/group"
	"github.com/tabledeck/tabledeck/internal/schema"
	"github.com/tabledeck/tabledeck/internal/table"
	"github.com/tabledeck/tabledeck/internal/token"
	"github.com/tabledeck/tabledeck/internal/user"
	"github.com/tabledeck/tabledeck/internal/web"
)

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	webService *web.Service
}

// Start starts the Daemon's web service and blocks until shutdown.
func (d *Daemon) Start() error {
	go d.webService.WaitShutdown()

	return d.webService.Start(fmt.Sprintf(":%d", d.cfg.Webserver.Port))
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) *Daemon {
	if cfg == nil {
		log.Fatal().Msg("config is nil")
		return nil
	}

	db, err := gorm.Open(openDialector(cfg), &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
		return nil
	}

	if err = db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.UserGroup{},
		&models.Table{},
		&models.TableGroup{},
		&models.TableGroupCreate{},
		&models.TableGroupDelete{},
		&models.Column{},
		&models.ColumnGroup{},
		&models.Row{},
		&models.Cell{},
		&models.AuditLog{},
	); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
		return nil
	}

	seed(cfg, db)

	recorder := audit.NewStore()

	deps := web.Deps{
		Tokens:      token.NewService(cfg.Auth.TokenSecret, time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute),
		Resolver:    authz.NewResolver(db),
		Engine:      authz.NewEngine(db, cfg.Auth.CellWriteUsesColumnACL),
		Coordinator: schema.NewCoordinator(db, recorder),
		Grants:      acl.NewStore(db, recorder),
		Audit:       recorder,
		Users:       user.NewService(db, recorder),
		Groups:      group.NewService(db, recorder),
	}
	deps.Tables = table.NewService(db, deps.Engine, deps.Coordinator, recorder)

	return &Daemon{
		cfg:        cfg,
		webService: web.New(cfg, db, deps),
	}
}

// openDialector picks the gorm driver from db.gormEngine. Sqlite is the
// default for dev and single-node deployments.
func openDialector(cfg *config.Config) gorm.Dialector {
	switch cfg.DB.GormEngine {
	case "mysql":
		return gormmysql.Open(dsn.Create(cfg))
	case "postgres":
		return gormpostgres.Open(dsn.CreatePostgres(cfg))
	default:
		return sqlite.Open(cfg.DB.Path)
	}
}

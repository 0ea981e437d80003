// Package audit provides the admin audit trail listing.
package audit

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	auditsvc "github.com/tabledeck/tabledeck/internal/audit"
	"github.com/tabledeck/tabledeck/internal/config"
	"github.com/tabledeck/tabledeck/internal/web/handler"
)

// Path is the audit trail path.
const Path = handler.APIRoot + "/audit"

// Service provides the audit handler.
type Service struct {
	cfg   *config.Config
	db    *gorm.DB
	store *auditsvc.Store
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, store *auditsvc.Store, guard, admin fiber.Handler) {
	if app == nil || cfg == nil || db == nil || store == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.db = db
	s.store = store

	app.Get(Path, guard, admin, s.List)
}

// List returns the audit trail, newest first.
func (s *Service) List(c *fiber.Ctx) error {
	entries, err := s.store.List(s.db)
	if err != nil {
		return handler.Fail(c, err)
	}

	return c.JSON(entries)
}

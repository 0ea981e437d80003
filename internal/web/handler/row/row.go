// Package row provides the row surface: listing with cells, creation under
// the row-create grant and deletion under the row-delete grant.
package row

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/tabledeck/tabledeck/internal/apperr"
	"github.com/tabledeck/tabledeck/internal/authz"
	"github.com/tabledeck/tabledeck/internal/config"
	"github.com/tabledeck/tabledeck/internal/schema"
	tablesvc "github.com/tabledeck/tabledeck/internal/table"
	"github.com/tabledeck/tabledeck/internal/web/handler"
	authmw "github.com/tabledeck/tabledeck/internal/web/middleware/auth"
)

const (
	// Path is the base path for rows of a table.
	Path = handler.APIRoot + "/tables/:tableId/rows"

	// DeletePath removes a row addressed by id in the request body.
	DeletePath = handler.APIRoot + "/rows"
)

// Service provides row handlers.
type Service struct {
	cfg         *config.Config
	tables      *tablesvc.Service
	engine      *authz.Engine
	coordinator *schema.Coordinator
	validator   *validator.Validate
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, tables *tablesvc.Service, engine *authz.Engine, coordinator *schema.Coordinator, guard fiber.Handler) {
	if app == nil || cfg == nil || tables == nil || engine == nil || coordinator == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.tables = tables
	s.engine = engine
	s.coordinator = coordinator
	s.validator = validator.New()

	app.Get(Path, guard, s.List)
	app.Post(Path, guard, s.Create)
	app.Delete(DeletePath, guard, s.Remove)
}

func tableID(c *fiber.Ctx) (uint64, error) {
	id, err := c.ParamsInt("tableId")
	if err != nil || id <= 0 {
		return 0, apperr.ErrValidation
	}

	return uint64(id), nil
}

// List returns the live rows of a visible table including their cells.
func (s *Service) List(c *fiber.Ctx) error {
	ctx := authmw.FromLocals(c)
	if ctx == nil {
		return handler.Fail(c, apperr.ErrUnauthenticated)
	}

	id, err := tableID(c)
	if err != nil {
		return handler.Fail(c, err)
	}

	rows, err := s.tables.ListRows(ctx, id)
	if err != nil {
		return handler.Fail(c, err)
	}

	return c.JSON(rows)
}

// Create appends a row and fans out one empty cell per live column. The
// caller needs the row-create grant on the table, admins pass implicitly.
func (s *Service) Create(c *fiber.Ctx) error {
	ctx := authmw.FromLocals(c)
	if ctx == nil {
		return handler.Fail(c, apperr.ErrUnauthenticated)
	}

	id, err := tableID(c)
	if err != nil {
		return handler.Fail(c, err)
	}

	if err := s.engine.CanCreateRow(ctx, id); err != nil {
		return handler.Fail(c, err)
	}

	created, err := s.coordinator.CreateRow(ctx, id)
	if err != nil {
		return handler.Fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

type idPayload struct {
	ID uint64 `json:"id" validate:"required"`
}

// Remove soft deletes a row. The right is resolved through the row's table.
func (s *Service) Remove(c *fiber.Ctx) error {
	ctx := authmw.FromLocals(c)
	if ctx == nil {
		return handler.Fail(c, apperr.ErrUnauthenticated)
	}

	var payload idPayload

	if err := c.BodyParser(&payload); err != nil {
		return handler.Fail(c, apperr.ErrValidation)
	}

	if err := s.validator.Struct(payload); err != nil {
		return handler.Fail(c, apperr.ErrValidation)
	}

	if err := s.engine.CanDeleteRow(ctx, payload.ID); err != nil {
		return handler.Fail(c, err)
	}

	removed, err := s.coordinator.RetireRow(ctx, payload.ID)
	if err != nil {
		return handler.Fail(c, err)
	}

	return c.JSON(removed)
}

// Package table provides the table surface: visibility-filtered listing,
// the admin detail view and admin CRUD.
package table

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/tabledeck/tabledeck/internal/acl"
	"github.com/tabledeck/tabledeck/internal/apperr"
	"github.com/tabledeck/tabledeck/internal/config"
	tablesvc "github.com/tabledeck/tabledeck/internal/table"
	"github.com/tabledeck/tabledeck/internal/web/handler"
	authmw "github.com/tabledeck/tabledeck/internal/web/middleware/auth"
)

const (
	// Path is the base path for tables.
	Path = handler.APIRoot + "/tables"

	// GroupPath manages visibility grants of a table.
	GroupPath = Path + "/group"

	// GroupCreatePath manages row-create grants of a table.
	GroupCreatePath = GroupPath + "/create"

	// GroupDeletePath manages row-delete grants of a table.
	GroupDeletePath = GroupPath + "/delete"
)

// Service provides table handlers.
type Service struct {
	cfg       *config.Config
	tables    *tablesvc.Service
	grants    *acl.Store
	validator *validator.Validate
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, tables *tablesvc.Service, grants *acl.Store, guard, admin fiber.Handler) {
	if app == nil || cfg == nil || tables == nil || grants == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.tables = tables
	s.grants = grants
	s.validator = validator.New()

	app.Get(Path, guard, s.List)
	app.Post(Path, guard, admin, s.Create)
	app.Put(Path, guard, admin, s.Edit)
	app.Delete(Path, guard, admin, s.Remove)

	app.Post(GroupPath, guard, admin, s.AddGroup)
	app.Delete(GroupPath, guard, admin, s.RemoveGroup)
	app.Post(GroupCreatePath, guard, admin, s.AddGroupCreate)
	app.Delete(GroupCreatePath, guard, admin, s.RemoveGroupCreate)
	app.Post(GroupDeletePath, guard, admin, s.AddGroupDelete)
	app.Delete(GroupDeletePath, guard, admin, s.RemoveGroupDelete)
}

// List returns the caller's visible tables, or the admin detail view when
// an id query parameter is present.
func (s *Service) List(c *fiber.Ctx) error {
	ctx := authmw.FromLocals(c)
	if ctx == nil {
		return handler.Fail(c, apperr.ErrUnauthenticated)
	}

	if id := c.QueryInt("id", 0); id > 0 {
		detail, err := s.tables.Get(ctx, uint64(id))
		if err != nil {
			return handler.Fail(c, err)
		}

		return c.JSON(detail)
	}

	tables, err := s.tables.List(ctx)
	if err != nil {
		return handler.Fail(c, err)
	}

	return c.JSON(tables)
}

type createPayload struct {
	Name  string `json:"name" validate:"required"`
	Title string `json:"title"`
}

// Create creates a table together with its bootstrap action column.
func (s *Service) Create(c *fiber.Ctx) error {
	ctx := authmw.FromLocals(c)

	var payload createPayload

	if err := c.BodyParser(&payload); err != nil {
		return handler.Fail(c, apperr.ErrValidation)
	}

	if err := s.validator.Struct(payload); err != nil {
		return handler.Fail(c, apperr.ErrValidation)
	}

	created, err := s.tables.Create(ctx, payload.Name, payload.Title)
	if err != nil {
		return handler.Fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

type editPayload struct {
	ID    uint64 `json:"id" validate:"required"`
	Name  string `json:"name"`
	Title string `json:"title"`
}

// Edit updates a table's name and title.
func (s *Service) Edit(c *fiber.Ctx) error {
	ctx := authmw.FromLocals(c)

	var payload editPayload

	if err := c.BodyParser(&payload); err != nil {
		return handler.Fail(c, apperr.ErrValidation)
	}

	if err := s.validator.Struct(payload); err != nil {
		return handler.Fail(c, apperr.ErrValidation)
	}

	edited, err := s.tables.Edit(ctx, payload.ID, payload.Name, payload.Title)
	if err != nil {
		return handler.Fail(c, err)
	}

	return c.JSON(edited)
}

type idPayload struct {
	ID uint64 `json:"id" validate:"required"`
}

// Remove soft deletes a table. Grant edges stay in place.
func (s *Service) Remove(c *fiber.Ctx) error {
	ctx := authmw.FromLocals(c)

	var payload idPayload

	if err := c.BodyParser(&payload); err != nil {
		return handler.Fail(c, apperr.ErrValidation)
	}

	if err := s.validator.Struct(payload); err != nil {
		return handler.Fail(c, apperr.ErrValidation)
	}

	removed, err := s.tables.Remove(ctx, payload.ID)
	if err != nil {
		return handler.Fail(c, err)
	}

	return c.JSON(removed)
}

// Package cell provides the cell edit surface.
package cell

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/tabledeck/tabledeck/internal/apperr"
	"github.com/tabledeck/tabledeck/internal/config"
	tablesvc "github.com/tabledeck/tabledeck/internal/table"
	"github.com/tabledeck/tabledeck/internal/web/handler"
	authmw "github.com/tabledeck/tabledeck/internal/web/middleware/auth"
)

// Path is the cell edit path, addressed by id in the request body.
const Path = handler.APIRoot + "/cells"

// Service provides cell handlers.
type Service struct {
	cfg       *config.Config
	tables    *tablesvc.Service
	validator *validator.Validate
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, tables *tablesvc.Service, guard fiber.Handler) {
	if app == nil || cfg == nil || tables == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.tables = tables
	s.validator = validator.New()

	app.Put(Path, guard, s.Edit)
}

type editPayload struct {
	ID            uint64  `json:"id" validate:"required"`
	ValueInt      *int64  `json:"valueInt"`
	ValueString   *string `json:"valueString"`
	ValueDate     *string `json:"valueDate"`
	ValueBoolean  *bool   `json:"valueBoolean"`
	ValueDropdown *int    `json:"valueDropdown"`
}

// Edit updates the value slots of a cell. Unset slots are left unchanged.
func (s *Service) Edit(c *fiber.Ctx) error {
	ctx := authmw.FromLocals(c)
	if ctx == nil {
		return handler.Fail(c, apperr.ErrUnauthenticated)
	}

	var payload editPayload

	if err := c.BodyParser(&payload); err != nil {
		return handler.Fail(c, apperr.ErrValidation)
	}

	if err := s.validator.Struct(payload); err != nil {
		return handler.Fail(c, apperr.ErrValidation)
	}

	edited, err := s.tables.EditCell(ctx, payload.ID, tablesvc.CellValues{
		ValueInt:      payload.ValueInt,
		ValueString:   payload.ValueString,
		ValueDate:     payload.ValueDate,
		ValueBoolean:  payload.ValueBoolean,
		ValueDropdown: payload.ValueDropdown,
	})
	if err != nil {
		return handler.Fail(c, err)
	}

	return c.JSON(edited)
}

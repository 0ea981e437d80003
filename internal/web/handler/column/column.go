// Package column provides the column surface: the caller's visible columns
// of a table, admin schema mutations and column grant edges.
package column

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/tabledeck/tabledeck/internal/acl"
	"github.com/tabledeck/tabledeck/internal/apperr"
	"github.com/tabledeck/tabledeck/internal/authz"
	"github.com/tabledeck/tabledeck/internal/config"
	"github.com/tabledeck/tabledeck/internal/db/models"
	"github.com/tabledeck/tabledeck/internal/schema"
	"github.com/tabledeck/tabledeck/internal/web/handler"
	authmw "github.com/tabledeck/tabledeck/internal/web/middleware/auth"
)

const (
	// Path is the base path for columns of a table.
	Path = handler.APIRoot + "/tables/:tableId/columns"

	// GroupPath manages visibility grants of a column.
	GroupPath = Path + "/group"
)

// Service provides column handlers.
type Service struct {
	cfg         *config.Config
	engine      *authz.Engine
	coordinator *schema.Coordinator
	grants      *acl.Store
	validator   *validator.Validate
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, engine *authz.Engine, coordinator *schema.Coordinator, grants *acl.Store, guard, admin fiber.Handler) {
	if app == nil || cfg == nil || engine == nil || coordinator == nil || grants == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.engine = engine
	s.coordinator = coordinator
	s.grants = grants
	s.validator = validator.New()

	app.Get(Path, guard, s.List)
	app.Post(Path, guard, admin, s.Create)
	app.Put(Path, guard, admin, s.Edit)
	app.Delete(Path, guard, admin, s.Retire)

	app.Post(GroupPath, guard, admin, s.AddGroup)
	app.Delete(GroupPath, guard, admin, s.RemoveGroup)
}

func tableID(c *fiber.Ctx) (uint64, error) {
	id, err := c.ParamsInt("tableId")
	if err != nil || id <= 0 {
		return 0, apperr.ErrValidation
	}

	return uint64(id), nil
}

// List returns the live columns of the table the caller may see, ordered by
// display position. Column grants narrow the set for non-admins.
func (s *Service) List(c *fiber.Ctx) error {
	ctx := authmw.FromLocals(c)
	if ctx == nil {
		return handler.Fail(c, apperr.ErrUnauthenticated)
	}

	id, err := tableID(c)
	if err != nil {
		return handler.Fail(c, err)
	}

	columns, err := s.engine.VisibleColumns(ctx, id)
	if err != nil {
		return handler.Fail(c, err)
	}

	return c.JSON(columns)
}

type createPayload struct {
	Name     string  `json:"name" validate:"required"`
	Title    *string `json:"title"`
	Type     string  `json:"type" validate:"required"`
	Dropdown *string `json:"dropdown"`
	Order    *int    `json:"order"`
}

// Create adds a column and fans out one empty cell per live row.
func (s *Service) Create(c *fiber.Ctx) error {
	ctx := authmw.FromLocals(c)

	id, err := tableID(c)
	if err != nil {
		return handler.Fail(c, err)
	}

	var payload createPayload

	if err := c.BodyParser(&payload); err != nil {
		return handler.Fail(c, apperr.ErrValidation)
	}

	if err := s.validator.Struct(payload); err != nil {
		return handler.Fail(c, apperr.ErrValidation)
	}

	created, err := s.coordinator.CreateColumn(ctx, id, schema.ColumnParams{
		Name:     payload.Name,
		Title:    payload.Title,
		Type:     models.ColumnType(payload.Type),
		Dropdown: payload.Dropdown,
		Order:    payload.Order,
	})
	if err != nil {
		return handler.Fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

type editPayload struct {
	ID       uint64  `json:"id" validate:"required"`
	Name     string  `json:"name"`
	Title    *string `json:"title"`
	Type     string  `json:"type"`
	Dropdown *string `json:"dropdown"`
	Order    *int    `json:"order"`
}

// Edit updates column attributes. Unset fields are left unchanged.
func (s *Service) Edit(c *fiber.Ctx) error {
	ctx := authmw.FromLocals(c)

	if _, err := tableID(c); err != nil {
		return handler.Fail(c, err)
	}

	var payload editPayload

	if err := c.BodyParser(&payload); err != nil {
		return handler.Fail(c, apperr.ErrValidation)
	}

	if err := s.validator.Struct(payload); err != nil {
		return handler.Fail(c, apperr.ErrValidation)
	}

	edited, err := s.coordinator.EditColumn(ctx, payload.ID, schema.ColumnParams{
		Name:     payload.Name,
		Title:    payload.Title,
		Type:     models.ColumnType(payload.Type),
		Dropdown: payload.Dropdown,
		Order:    payload.Order,
	})
	if err != nil {
		return handler.Fail(c, err)
	}

	return c.JSON(edited)
}

type idPayload struct {
	ID uint64 `json:"id" validate:"required"`
}

// Retire removes a column from the live schema. Its cells are kept.
func (s *Service) Retire(c *fiber.Ctx) error {
	ctx := authmw.FromLocals(c)

	if _, err := tableID(c); err != nil {
		return handler.Fail(c, err)
	}

	var payload idPayload

	if err := c.BodyParser(&payload); err != nil {
		return handler.Fail(c, apperr.ErrValidation)
	}

	if err := s.validator.Struct(payload); err != nil {
		return handler.Fail(c, apperr.ErrValidation)
	}

	retired, err := s.coordinator.RetireColumn(ctx, payload.ID)
	if err != nil {
		return handler.Fail(c, err)
	}

	return c.JSON(retired)
}

type groupPayload struct {
	ColumnID uint64 `json:"columnId" validate:"required"`
	GroupID  uint64 `json:"groupId" validate:"required"`
}

// AddGroup grants a group visibility of a column.
func (s *Service) AddGroup(c *fiber.Ctx) error {
	ctx := authmw.FromLocals(c)

	if _, err := tableID(c); err != nil {
		return handler.Fail(c, err)
	}

	var payload groupPayload

	if err := c.BodyParser(&payload); err != nil {
		return handler.Fail(c, apperr.ErrValidation)
	}

	if err := s.validator.Struct(payload); err != nil {
		return handler.Fail(c, apperr.ErrValidation)
	}

	if err := s.grants.AddColumnGroup(ctx, payload.ColumnID, payload.GroupID); err != nil {
		return handler.Fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"columnId": payload.ColumnID,
		"groupId":  payload.GroupID,
	})
}

// RemoveGroup revokes a group's visibility of a column.
func (s *Service) RemoveGroup(c *fiber.Ctx) error {
	ctx := authmw.FromLocals(c)

	if _, err := tableID(c); err != nil {
		return handler.Fail(c, err)
	}

	var payload groupPayload

	if err := c.BodyParser(&payload); err != nil {
		return handler.Fail(c, apperr.ErrValidation)
	}

	if err := s.validator.Struct(payload); err != nil {
		return handler.Fail(c, apperr.ErrValidation)
	}

	if err := s.grants.RemoveColumnGroup(ctx, payload.ColumnID, payload.GroupID); err != nil {
		return handler.Fail(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

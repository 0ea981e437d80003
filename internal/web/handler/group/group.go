// Package group provides the admin group management surface.
package group

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/tabledeck/tabledeck/internal/apperr"
	"github.com/tabledeck/tabledeck/internal/config"
	groupsvc "github.com/tabledeck/tabledeck/internal/group"
	"github.com/tabledeck/tabledeck/internal/web/handler"
	authmw "github.com/tabledeck/tabledeck/internal/web/middleware/auth"
)

// Path is the base path for group management.
const Path = handler.APIRoot + "/groups"

// Service provides group handlers.
type Service struct {
	cfg       *config.Config
	groups    *groupsvc.Service
	validator *validator.Validate
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, groups *groupsvc.Service, guard, admin fiber.Handler) {
	if app == nil || cfg == nil || groups == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.groups = groups
	s.validator = validator.New()

	app.Get(Path, guard, admin, s.List)
	app.Post(Path, guard, admin, s.Create)
	app.Put(Path, guard, admin, s.Edit)
	app.Delete(Path, guard, admin, s.Remove)
}

// List returns all groups with live members, tables and columns embedded.
func (s *Service) List(c *fiber.Ctx) error {
	groups, err := s.groups.List()
	if err != nil {
		return handler.Fail(c, err)
	}

	return c.JSON(groups)
}

type createPayload struct {
	Name  string `json:"name" validate:"required"`
	Title string `json:"title"`
}

// Create creates a group.
func (s *Service) Create(c *fiber.Ctx) error {
	ctx := authmw.FromLocals(c)

	var payload createPayload

	if err := c.BodyParser(&payload); err != nil {
		return handler.Fail(c, apperr.ErrValidation)
	}

	if err := s.validator.Struct(payload); err != nil {
		return handler.Fail(c, apperr.ErrValidation)
	}

	created, err := s.groups.Create(ctx, payload.Name, payload.Title)
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

// Edit updates a group's name and title.
func (s *Service) Edit(c *fiber.Ctx) error {
	ctx := authmw.FromLocals(c)

	var payload editPayload

	if err := c.BodyParser(&payload); err != nil {
		return handler.Fail(c, apperr.ErrValidation)
	}

	if err := s.validator.Struct(payload); err != nil {
		return handler.Fail(c, apperr.ErrValidation)
	}

	edited, err := s.groups.Edit(ctx, payload.ID, payload.Name, payload.Title)
	if err != nil {
		return handler.Fail(c, err)
	}

	return c.JSON(edited)
}

type idPayload struct {
	ID uint64 `json:"id" validate:"required"`
}

// Remove soft deletes a group. Memberships and grants keep their rows but
// stop taking effect.
func (s *Service) Remove(c *fiber.Ctx) error {
	ctx := authmw.FromLocals(c)

	var payload idPayload

	if err := c.BodyParser(&payload); err != nil {
		return handler.Fail(c, apperr.ErrValidation)
	}

	if err := s.validator.Struct(payload); err != nil {
		return handler.Fail(c, apperr.ErrValidation)
	}

	removed, err := s.groups.Remove(ctx, payload.ID)
	if err != nil {
		return handler.Fail(c, err)
	}

	return c.JSON(removed)
}

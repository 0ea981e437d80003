// Package user provides the account surface: admin CRUD, membership edges
// and the self profile edit.
package user

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/tabledeck/tabledeck/internal/acl"
	"github.com/tabledeck/tabledeck/internal/apperr"
	"github.com/tabledeck/tabledeck/internal/config"
	usersvc "github.com/tabledeck/tabledeck/internal/user"
	"github.com/tabledeck/tabledeck/internal/web/handler"
	authmw "github.com/tabledeck/tabledeck/internal/web/middleware/auth"
)

const (
	// Path is the base path for user management.
	Path = handler.APIRoot + "/users"

	// SelfPath edits the caller's own profile.
	SelfPath = Path + "/self"

	// GroupPath manages group memberships.
	GroupPath = Path + "/group"
)

// Service provides user handlers.
type Service struct {
	cfg       *config.Config
	users     *usersvc.Service
	grants    *acl.Store
	validator *validator.Validate
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, users *usersvc.Service, grants *acl.Store, guard, admin fiber.Handler) {
	if app == nil || cfg == nil || users == nil || grants == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.users = users
	s.grants = grants
	s.validator = validator.New()

	app.Get(Path, guard, admin, s.List)
	app.Post(Path, guard, admin, s.Create)
	app.Put(Path, guard, admin, s.Edit)
	app.Delete(Path, guard, admin, s.Remove)

	app.Put(SelfPath, guard, s.EditSelf)

	app.Post(GroupPath, guard, admin, s.AddGroup)
	app.Delete(GroupPath, guard, admin, s.RemoveGroup)
}

// List returns all users without credentials, live memberships embedded.
func (s *Service) List(c *fiber.Ctx) error {
	users, err := s.users.List()
	if err != nil {
		return handler.Fail(c, err)
	}

	return c.JSON(users)
}

type createPayload struct {
	Username string  `json:"username" validate:"required"`
	Password string  `json:"password" validate:"required"`
	Admin    *bool   `json:"admin"`
	Name     *string `json:"name"`
	Title    *string `json:"title"`
}

// Create creates a user account.
func (s *Service) Create(c *fiber.Ctx) error {
	ctx := authmw.FromLocals(c)

	var payload createPayload

	if err := c.BodyParser(&payload); err != nil {
		return handler.Fail(c, apperr.ErrValidation)
	}

	if err := s.validator.Struct(payload); err != nil {
		return handler.Fail(c, apperr.ErrValidation)
	}

	created, err := s.users.Create(ctx, usersvc.Params{
		Admin:    payload.Admin,
		Username: payload.Username,
		Password: payload.Password,
		Name:     payload.Name,
		Title:    payload.Title,
	})
	if err != nil {
		return handler.Fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

type editPayload struct {
	ID       uint64  `json:"id" validate:"required"`
	Username string  `json:"username"`
	Password string  `json:"password"`
	Admin    *bool   `json:"admin"`
	Name     *string `json:"name"`
	Title    *string `json:"title"`
}

// Edit updates a user account. Unset fields are left unchanged.
func (s *Service) Edit(c *fiber.Ctx) error {
	ctx := authmw.FromLocals(c)

	var payload editPayload

	if err := c.BodyParser(&payload); err != nil {
		return handler.Fail(c, apperr.ErrValidation)
	}

	if err := s.validator.Struct(payload); err != nil {
		return handler.Fail(c, apperr.ErrValidation)
	}

	edited, err := s.users.Edit(ctx, payload.ID, usersvc.Params{
		Admin:    payload.Admin,
		Username: payload.Username,
		Password: payload.Password,
		Name:     payload.Name,
		Title:    payload.Title,
	})
	if err != nil {
		return handler.Fail(c, err)
	}

	return c.JSON(edited)
}

type selfPayload struct {
	CurrentPassword string  `json:"currentPassword" validate:"required"`
	Password        string  `json:"password"`
	Name            *string `json:"name"`
	Title           *string `json:"title"`
}

// EditSelf lets the caller edit name, title and password of their own
// account after re-verifying the current password.
func (s *Service) EditSelf(c *fiber.Ctx) error {
	ctx := authmw.FromLocals(c)
	if ctx == nil {
		return handler.Fail(c, apperr.ErrUnauthenticated)
	}

	var payload selfPayload

	if err := c.BodyParser(&payload); err != nil {
		return handler.Fail(c, apperr.ErrValidation)
	}

	if err := s.validator.Struct(payload); err != nil {
		return handler.Fail(c, apperr.ErrValidation)
	}

	edited, err := s.users.EditSelf(ctx, payload.CurrentPassword, usersvc.Params{
		Password: payload.Password,
		Name:     payload.Name,
		Title:    payload.Title,
	})
	if err != nil {
		return handler.Fail(c, err)
	}

	return c.JSON(edited)
}

type idPayload struct {
	ID uint64 `json:"id" validate:"required"`
}

// Remove soft deletes a user. Outstanding tokens of the user stop working
// on their next request.
func (s *Service) Remove(c *fiber.Ctx) error {
	ctx := authmw.FromLocals(c)

	var payload idPayload

	if err := c.BodyParser(&payload); err != nil {
		return handler.Fail(c, apperr.ErrValidation)
	}

	if err := s.validator.Struct(payload); err != nil {
		return handler.Fail(c, apperr.ErrValidation)
	}

	removed, err := s.users.Remove(ctx, payload.ID)
	if err != nil {
		return handler.Fail(c, err)
	}

	return c.JSON(removed)
}

type groupPayload struct {
	UserID  uint64 `json:"userId" validate:"required"`
	GroupID uint64 `json:"groupId" validate:"required"`
}

// AddGroup puts a user into a group.
func (s *Service) AddGroup(c *fiber.Ctx) error {
	ctx := authmw.FromLocals(c)

	var payload groupPayload

	if err := c.BodyParser(&payload); err != nil {
		return handler.Fail(c, apperr.ErrValidation)
	}

	if err := s.validator.Struct(payload); err != nil {
		return handler.Fail(c, apperr.ErrValidation)
	}

	edge, err := s.grants.AddUserGroup(ctx, payload.UserID, payload.GroupID)
	if err != nil {
		return handler.Fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(edge)
}

// RemoveGroup takes a user out of a group.
func (s *Service) RemoveGroup(c *fiber.Ctx) error {
	ctx := authmw.FromLocals(c)

	var payload groupPayload

	if err := c.BodyParser(&payload); err != nil {
		return handler.Fail(c, apperr.ErrValidation)
	}

	if err := s.validator.Struct(payload); err != nil {
		return handler.Fail(c, apperr.ErrValidation)
	}

	if err := s.grants.RemoveUserGroup(ctx, payload.UserID, payload.GroupID); err != nil {
		return handler.Fail(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

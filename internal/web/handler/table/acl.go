package table

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tabledeck/tabledeck/internal/apperr"
	"github.com/tabledeck/tabledeck/internal/authz"
	"github.com/tabledeck/tabledeck/internal/web/handler"
	authmw "github.com/tabledeck/tabledeck/internal/web/middleware/auth"
)

type groupPayload struct {
	TableID uint64 `json:"tableId" validate:"required"`
	GroupID uint64 `json:"groupId" validate:"required"`
}

// edgeOp is one add or remove operation against a grant edge kind.
type edgeOp func(ctx *authz.Context, tableID, groupID uint64) error

func (s *Service) runEdgeOp(c *fiber.Ctx, op edgeOp, created bool) error {
	ctx := authmw.FromLocals(c)

	var payload groupPayload

	if err := c.BodyParser(&payload); err != nil {
		return handler.Fail(c, apperr.ErrValidation)
	}

	if err := s.validator.Struct(payload); err != nil {
		return handler.Fail(c, apperr.ErrValidation)
	}

	if err := op(ctx, payload.TableID, payload.GroupID); err != nil {
		return handler.Fail(c, err)
	}

	if !created {
		return c.SendStatus(fiber.StatusNoContent)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"tableId": payload.TableID,
		"groupId": payload.GroupID,
	})
}

// AddGroup grants a group visibility of a table.
func (s *Service) AddGroup(c *fiber.Ctx) error {
	return s.runEdgeOp(c, s.grants.AddTableGroup, true)
}

// RemoveGroup revokes a group's visibility of a table.
func (s *Service) RemoveGroup(c *fiber.Ctx) error {
	return s.runEdgeOp(c, s.grants.RemoveTableGroup, false)
}

// AddGroupCreate grants a group the right to create rows in a table.
func (s *Service) AddGroupCreate(c *fiber.Ctx) error {
	return s.runEdgeOp(c, s.grants.AddTableGroupCreate, true)
}

// RemoveGroupCreate revokes a group's row-create right on a table.
func (s *Service) RemoveGroupCreate(c *fiber.Ctx) error {
	return s.runEdgeOp(c, s.grants.RemoveTableGroupCreate, false)
}

// AddGroupDelete grants a group the right to delete rows in a table.
func (s *Service) AddGroupDelete(c *fiber.Ctx) error {
	return s.runEdgeOp(c, s.grants.AddTableGroupDelete, true)
}

// RemoveGroupDelete revokes a group's row-delete right on a table.
func (s *Service) RemoveGroupDelete(c *fiber.Ctx) error {
	return s.runEdgeOp(c, s.grants.RemoveTableGroupDelete, false)
}

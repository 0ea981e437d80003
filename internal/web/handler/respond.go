// Package handler holds shared pieces of the web handlers: route constants
// and the single place where service errors become HTTP statuses.
package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/tabledeck/tabledeck/internal/apperr"
	"github.com/tabledeck/tabledeck/internal/user"
)

// Fail maps a service error to its HTTP status and a JSON error body.
// Every handler funnels errors through here so the same failure class
// always yields the same status code.
func Fail(c *fiber.Ctx, err error) error {
	var status int

	switch {
	case errors.Is(err, apperr.ErrUnauthenticated),
		errors.Is(err, user.ErrInvalidCredentials):
		status = fiber.StatusUnauthorized
	case errors.Is(err, apperr.ErrForbidden),
		errors.Is(err, user.ErrInvalidCurrentPassword):
		status = fiber.StatusForbidden
	case errors.Is(err, apperr.ErrValidation),
		errors.Is(err, apperr.ErrInvalidReference):
		status = fiber.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, apperr.ErrAlreadyExists):
		status = fiber.StatusConflict
	default:
		log.Error().Err(err).Msg("request failed")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}

	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}

// Package login provides token issuance and the caller's own profile.
package login

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/tabledeck/tabledeck/internal/apperr"
	"github.com/tabledeck/tabledeck/internal/config"
	"github.com/tabledeck/tabledeck/internal/token"
	"github.com/tabledeck/tabledeck/internal/user"
	"github.com/tabledeck/tabledeck/internal/web/handler"
	authmw "github.com/tabledeck/tabledeck/internal/web/middleware/auth"
)

const (
	// TokenPath issues bearer tokens for username/password credentials.
	TokenPath = handler.APIRoot + "/auth/token"

	// MePath resolves the bearer token to the caller's profile.
	MePath = handler.APIRoot + "/auth/me"
)

// Service handles credential exchange.
type Service struct {
	cfg       *config.Config
	users     *user.Service
	tokens    *token.Service
	validator *validator.Validate
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, users *user.Service, tokens *token.Service, guard fiber.Handler) {
	if app == nil || cfg == nil || users == nil || tokens == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.users = users
	s.tokens = tokens
	s.validator = validator.New()

	app.Post(TokenPath, s.IssueToken)
	app.Get(MePath, guard, s.Me)
}

type credentialsPayload struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// IssueToken exchanges username/password for a signed bearer token.
func (s *Service) IssueToken(c *fiber.Ctx) error {
	var payload credentialsPayload

	if err := c.BodyParser(&payload); err != nil {
		return handler.Fail(c, apperr.ErrValidation)
	}

	if err := s.validator.Struct(payload); err != nil {
		return handler.Fail(c, apperr.ErrValidation)
	}

	account, err := s.users.Authenticate(payload.Username, payload.Password)
	if err != nil {
		return handler.Fail(c, err)
	}

	signed, err := s.tokens.Issue(account.ID)
	if err != nil {
		return handler.Fail(c, err)
	}

	return c.JSON(fiber.Map{
		"token": signed,
	})
}

// Me returns the live profile behind the presented token.
func (s *Service) Me(c *fiber.Ctx) error {
	ctx := authmw.FromLocals(c)
	if ctx == nil {
		return handler.Fail(c, apperr.ErrUnauthenticated)
	}

	account, err := s.users.Get(ctx.UserID)
	if err != nil {
		return handler.Fail(c, err)
	}

	return c.JSON(account)
}

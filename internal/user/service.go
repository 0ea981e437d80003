// Package user implements user account management and credential checks.
package user

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/tabledeck/tabledeck/internal/apperr"
	"github.com/tabledeck/tabledeck/internal/audit"
	"github.com/tabledeck/tabledeck/internal/authz"
	"github.com/tabledeck/tabledeck/internal/db/models"
)

var (
	// ErrInvalidCredentials is returned when the username does not resolve
	// to a live user or the password does not match.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrInvalidCurrentPassword is returned when the re-authentication
	// password of a self edit does not match the stored credential.
	ErrInvalidCurrentPassword = errors.New("invalid current password")
)

// Membership is the listing shape of one group membership.
type Membership struct {
	Since      string `json:"since"`
	GroupID    uint64 `json:"groupId"`
	GroupName  string `json:"groupName"`
	GroupTitle string `json:"groupTitle"`
}

// Listed is the client-facing user shape: no password, live memberships
// embedded.
type Listed struct {
	models.User

	Groups []Membership `json:"userGroups"`
}

// Params are the admin-editable attributes of a user.
type Params struct {
	Admin    *bool
	Username string
	Password string
	Name     *string
	Title    *string
}

// Service manages user accounts.
type Service struct {
	db       *gorm.DB
	recorder audit.Recorder
}

// NewService creates the user service.
func NewService(db *gorm.DB, recorder audit.Recorder) *Service {
	return &Service{db: db, recorder: recorder}
}

// Authenticate resolves username and password to a live user. Used by the
// token issuing endpoint only; every failure collapses to
// ErrInvalidCredentials.
func (s *Service) Authenticate(username, password string) (*models.User, error) {
	var u models.User

	err := s.db.Where("username = ? AND deleted = ?", username, false).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	if !u.VerifyPassword(password) {
		return nil, ErrInvalidCredentials
	}

	return &u, nil
}

// Get returns one live user by id.
func (s *Service) Get(userID uint64) (*models.User, error) {
	var u models.User

	err := s.db.Where("id = ? AND deleted = ?", userID, false).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}

	return &u, nil
}

// List returns all live users with their live group memberships. Memberships
// of soft-deleted groups are filtered out.
func (s *Service) List() ([]Listed, error) {
	var users []models.User

	if err := s.db.Where("deleted = ?", false).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	listed := make([]Listed, 0, len(users))

	for i := range users {
		var memberships []models.UserGroup

		err := s.db.Preload("Group").Where("user_id = ?", users[i].ID).Find(&memberships).Error
		if err != nil {
			return nil, fmt.Errorf("failed to load memberships: %w", err)
		}

		entry := Listed{User: users[i], Groups: make([]Membership, 0, len(memberships))}

		for _, m := range memberships {
			if m.Group.Deleted {
				continue
			}

			entry.Groups = append(entry.Groups, Membership{
				Since:      m.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
				GroupID:    m.Group.ID,
				GroupName:  m.Group.Name,
				GroupTitle: m.Group.Title,
			})
		}

		listed = append(listed, entry)
	}

	return listed, nil
}

// Create inserts a new user account. Admin-only surface.
func (s *Service) Create(ctx *authz.Context, params Params) (*models.User, error) {
	if params.Username == "" || params.Password == "" {
		return nil, apperr.ErrValidation
	}

	u := models.User{
		Username: params.Username,
		Password: models.HashPassword(params.Password),
	}
	if params.Admin != nil {
		u.Admin = *params.Admin
	}
	if params.Name != nil {
		u.Name = *params.Name
	}
	if params.Title != nil {
		u.Title = *params.Title
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.User

		err := tx.Where("username = ?", params.Username).First(&existing).Error
		if err == nil {
			return apperr.ErrAlreadyExists
		}

		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check username: %w", err)
		}

		if err := tx.Create(&u).Error; err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		return s.recorder.Record(tx, audit.Entry{
			Action:       models.AuditActionCreate,
			InitiatorID:  ctx.UserID,
			TargetUserID: audit.Ref(u.ID),
			Value:        u,
		})
	})
	if err != nil {
		return nil, err
	}

	return &u, nil
}

// Edit updates any attribute of a user. Admin-only surface.
func (s *Service) Edit(ctx *authz.Context, userID uint64, params Params) (*models.User, error) {
	var u models.User

	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("id = ? AND deleted = ?", userID, false).First(&u).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ErrNotFound
		}

		if err != nil {
			return fmt.Errorf("failed to load user %d: %w", userID, err)
		}

		if params.Admin != nil {
			u.Admin = *params.Admin
		}
		if params.Username != "" {
			u.Username = params.Username
		}
		if params.Password != "" {
			u.Password = models.HashPassword(params.Password)
		}
		if params.Name != nil {
			u.Name = *params.Name
		}
		if params.Title != nil {
			u.Title = *params.Title
		}

		if err := tx.Save(&u).Error; err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}

		return s.recorder.Record(tx, audit.Entry{
			Action:       models.AuditActionUpdate,
			InitiatorID:  ctx.UserID,
			TargetUserID: audit.Ref(u.ID),
			Value:        u,
		})
	})
	if err != nil {
		return nil, err
	}

	return &u, nil
}

// EditSelf lets a principal edit its own name, title and password after
// re-verifying the current password. Admin flag and username are not
// self-editable.
func (s *Service) EditSelf(ctx *authz.Context, currentPassword string, params Params) (*models.User, error) {
	var u models.User

	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("id = ? AND deleted = ?", ctx.UserID, false).First(&u).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ErrNotFound
		}

		if err != nil {
			return fmt.Errorf("failed to load user %d: %w", ctx.UserID, err)
		}

		if !u.VerifyPassword(currentPassword) {
			return ErrInvalidCurrentPassword
		}

		if params.Name != nil {
			u.Name = *params.Name
		}
		if params.Title != nil {
			u.Title = *params.Title
		}
		if params.Password != "" {
			u.Password = models.HashPassword(params.Password)
		}

		if err := tx.Save(&u).Error; err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}

		return s.recorder.Record(tx, audit.Entry{
			Action:       models.AuditActionUpdate,
			InitiatorID:  ctx.UserID,
			TargetUserID: audit.Ref(u.ID),
			Value:        u,
		})
	})
	if err != nil {
		return nil, err
	}

	return &u, nil
}

// Remove soft-deletes a user. The account is denied on its next principal
// resolution even while holding an unexpired token.
func (s *Service) Remove(ctx *authz.Context, userID uint64) (*models.User, error) {
	var u models.User

	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("id = ? AND deleted = ?", userID, false).First(&u).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ErrNotFound
		}

		if err != nil {
			return fmt.Errorf("failed to load user %d: %w", userID, err)
		}

		u.Deleted = true

		if err := tx.Model(&models.User{}).Where("id = ?", userID).Update("deleted", true).Error; err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}

		return s.recorder.Record(tx, audit.Entry{
			Action:       models.AuditActionDelete,
			InitiatorID:  ctx.UserID,
			TargetUserID: audit.Ref(u.ID),
			Value:        u,
		})
	})
	if err != nil {
		return nil, err
	}

	return &u, nil
}

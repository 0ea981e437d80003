package daemon

import (
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tabledeck/tabledeck/internal/config"
	"github.com/tabledeck/tabledeck/internal/db/models"
)

// seed creates the initial admin account when the user table is empty, so a
// fresh install can be logged into at all.
func seed(_ *config.Config, db *gorm.DB) {
	var count int64
	db.Model(&models.User{}).Count(&count)

	if count == 0 {
		db.Create(
			&models.User{
				Username: "admin",
				Password: models.HashPassword("changeme"),
				Admin:    true,
				Name:     "Administrator",
			},
		)

		log.Warn().Msg("seeded initial admin user, change its password")
	}
}

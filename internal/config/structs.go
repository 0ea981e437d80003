package config

import (
	"github.com/tabledeck/tabledeck/internal/logger"
)

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Auth      Auth
	Webserver Webserver
}

// Webserver implement webserver settings.
type Webserver struct {
	Port         int // listening port for the webserver
	ShutDownTime int // wait time for shutdown
}

// Auth holds credential and authorization settings.
type Auth struct {
	// TokenSecret signs issued bearer tokens (HS256).
	TokenSecret string `toml:"tokenSecret"`
	// TokenTTLMinutes bounds the lifetime of issued tokens.
	TokenTTLMinutes int `toml:"tokenTTLMinutes"`
	// CellWriteUsesColumnACL additionally gates cell edits on column-level
	// visibility. Off, cell edits require table visibility only.
	CellWriteUsesColumnACL bool `toml:"cellWriteUsesColumnACL"`
}

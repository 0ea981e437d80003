package config

import (
	"errors"
)

var (
	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("toml config webserver.port listening port can not be 0")

	// ErrEmptyTokenSecret error if config auth.tokenSecret is empty.
	ErrEmptyTokenSecret = errors.New("toml config auth.tokenSecret can not be empty")

	// ErrZeroTokenTTL error if config auth.tokenTTLMinutes is 0.
	ErrZeroTokenTTL = errors.New("toml config auth.tokenTTLMinutes can not be 0")
)

// Package auth provides the bearer token middleware. It verifies the
// Authorization header, resolves the caller against the live user store and
// stores the resulting authorization context in fiber locals for handlers.
package auth

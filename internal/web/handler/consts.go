package handler

const (
	// APIRoot is the base path of the JSON API.
	APIRoot = "/api"

	// RouterRootPath is the root path inside a route group.
	RouterRootPath = "/"

	// ErrNilACDFatalLogMsg is used if app or cfg or a service pointer is nil.
	ErrNilACDFatalLogMsg = "app, cfg or a service dependency is nil"
)

package http

import (
	"github.com/mrlokans/studyshelf/internal/auth"
	"github.com/mrlokans/studyshelf/internal/engine"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Engine *engine.Engine
	Books  BookStore

	// Authentication
	AuthService *auth.Service
	Tokens      *auth.TokenManager

	// Operations
	Database Pinger
	Metrics  MetricsProvider // optional

	// Application info
	Version string
}

package http

import (
	"github.com/shelftrack/shelftrack/internal/auth"
	"github.com/shelftrack/shelftrack/internal/config"
	"github.com/shelftrack/shelftrack/internal/database"
	"github.com/shelftrack/shelftrack/internal/importer"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router. This replaces a long parameter list
// in NewRouter for better maintainability.
type RouterConfig struct {
	// Core dependencies
	Database       *database.Database
	Pipeline       *importer.Pipeline
	LibraryStore   LibraryStore
	CompletedStore CompletedStore
	ImportHistory  ImportHistoryStore

	// Upload size cap for import files, in bytes
	MaxFileBytes int64

	// Authentication (all nil/empty when auth mode is "none")
	AuthService    *auth.Service
	SessionManager *auth.SessionManager
	AuthMiddleware *auth.Middleware
	AuthConfig     config.Auth
	CSRFSecret     []byte
	SecureCookies  bool

	// Application info
	Version string
}

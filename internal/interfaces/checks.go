package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/shelftrack/shelftrack/internal/database/completed"
	"github.com/shelftrack/shelftrack/internal/database/imports"
	"github.com/shelftrack/shelftrack/internal/database/library"
	"github.com/shelftrack/shelftrack/internal/http"
	"github.com/shelftrack/shelftrack/internal/importer"
	"github.com/shelftrack/shelftrack/internal/metadata"
)

// =============================================================================
// Import Pipeline
// =============================================================================

// Commit engine storage implementations
var _ importer.CompletedStore = (*completed.Repository)(nil)
var _ importer.LibraryStore = (*library.Repository)(nil)
var _ importer.HistoryStore = (*imports.Repository)(nil)

// =============================================================================
// Metadata Providers
// =============================================================================

var _ metadata.Provider = (*metadata.OpenLibraryClient)(nil)
var _ metadata.Provider = (*metadata.CachedProvider)(nil)

// =============================================================================
// HTTP Layer
// =============================================================================

var _ http.LibraryStore = (*library.Repository)(nil)
var _ http.CompletedStore = (*completed.Repository)(nil)
var _ http.ImportHistoryStore = (*imports.Repository)(nil)

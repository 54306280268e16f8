// Package interfaces documents the core abstractions used throughout the
// application and verifies their implementations at compile time.
//
// # Interface Categories
//
// ## Import Pipeline
//
//   - importer.CompletedStore / importer.LibraryStore: the commit engine's
//     persistence surface (internal/importer/commit.go)
//   - importer.HistoryStore: import run history (internal/importer/pipeline.go)
//   - metadata.Provider: book metadata lookups by ISBN or title+author
//     (internal/metadata/provider.go)
//
// ## HTTP Layer
//
//   - http.LibraryStore, http.CompletedStore, http.ImportHistoryStore: the
//     controllers' storage views (internal/http/stores.go)
//
// Each consumer declares the narrow interface it needs; the repository
// packages under internal/database provide the implementations.
package interfaces

// Package database owns the GORM connection and schema migration.
//
// Data access is split into per-aggregate repository subpackages:
//
//   - library:   owned books and their reading-status lifecycle
//   - completed: completed-book records
//   - users:     account lookup and creation
//   - imports:   import run history
//
// Handlers and services should depend on the repository interfaces declared
// where they are consumed, not on these concrete types.
package database

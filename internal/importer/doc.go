// Package importer provides the two-phase pipeline for bulk-importing
// reading history from exported files.
//
// # Architecture
//
// The parse phase is read-only:
//
//	File Bytes → Extract → Row → Normalize → Entry → Classify → ParseResult
//
// Extract understands JSON, CSV, XLSX and legacy XLS files and flattens
// them into header/value rows. Normalize maps the many column-name
// synonyms found in the wild onto one canonical Entry shape and rejects
// rows that name neither a title nor an ISBN. Classify matches each entry
// against the user's existing records and the metadata provider,
// partitioning the batch into four buckets:
//
//   - found: metadata located, ready to import
//   - notFound: no metadata match; importable as-is on request
//   - duplicate: already recorded as completed; never imported again
//   - libraryUpdate: matches an owned book not yet marked read
//
// # Review and Commit
//
// The review between the two phases is modeled by ReviewSession: every user
// action is a Decision applied through a single entry point, and the session
// finalizes into a DecisionSet. The confirm phase hands that set to the
// CommitEngine, which writes each item independently — one failure turns
// into a note on the result rather than aborting the batch — and is safe to
// re-run against a partially committed batch.
//
// # Example Usage
//
//	pipeline := importer.NewPipeline(classifier, engine, completedRepo, libraryRepo, importsRepo)
//
//	parsed, err := pipeline.Parse(ctx, userID, fileBytes, importer.FormatCSV)
//	// ... present parsed buckets for review ...
//
//	session := importer.NewReviewSession(parsed.Items())
//	session.Apply(importer.Decision{Op: importer.OpSelectAll, Bucket: importer.BucketNotFound})
//
//	result, err := pipeline.Confirm(ctx, userID, parsed, session.DecisionSet())
package importer

package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shelftrack/shelftrack/internal/config"
	"github.com/shelftrack/shelftrack/internal/entrypoint"
	"github.com/shelftrack/shelftrack/internal/importer"
)

// ImportCommand runs the import pipeline headless against a local file.
// It applies the review defaults: found items are imported, library
// matches are updated, duplicates are skipped, and not-found items are
// skipped unless -include-not-found is set.
type ImportCommand struct {
	FilePath        string
	Format          string
	DatabasePath    string
	IncludeNotFound bool
	DryRun          bool
	Verbose         bool
}

func NewImportCommand() *ImportCommand {
	return &ImportCommand{}
}

func (cmd *ImportCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)

	fs.StringVar(&cmd.FilePath, "file", "", "Path to the book list to import (required)")
	fs.StringVar(&cmd.Format, "format", "", "File format: json, csv, xlsx or xls (default: inferred from extension)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the local database file")
	fs.BoolVar(&cmd.IncludeNotFound, "include-not-found", false, "Import rows that found no metadata match using their own fields")
	fs.BoolVar(&cmd.DryRun, "dry-run", false, "Classify the file and show the outcome without writing anything")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "List every row with its classification")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s import -file <path> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Import a book list (JSON, CSV, XLSX or XLS) into the local database.\n")
		fmt.Fprintf(os.Stderr, "Rows are matched against OpenLibrary and against books already recorded;\n")
		fmt.Fprintf(os.Stderr, "duplicates are skipped and owned books are added to the library shelf.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Preview an import:\n")
		fmt.Fprintf(os.Stderr, "  %s import -file books.csv -dry-run -verbose\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  # Import, keeping rows OpenLibrary does not know:\n")
		fmt.Fprintf(os.Stderr, "  %s import -file books.xlsx -include-not-found\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.FilePath == "" {
		return fmt.Errorf("required flag -file not provided")
	}

	if cmd.Format == "" {
		cmd.Format = strings.TrimPrefix(filepath.Ext(cmd.FilePath), ".")
	}

	return nil
}

func (cmd *ImportCommand) Run() error {
	format, err := importer.ParseFormat(cmd.Format)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(cmd.FilePath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", cmd.FilePath, err)
	}

	cfg := config.NewConfig()
	cfg.Database.Path = cmd.DatabasePath

	app, err := entrypoint.NewApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	fmt.Printf("Parsing %s (%s)...\n", cmd.FilePath, format)

	ctx := context.Background()
	result, err := app.Pipeline.Parse(ctx, 0, data, format)
	if err != nil {
		return err
	}

	found, notFound, duplicates, libraryUpdates := result.Counts()
	fmt.Printf("\nClassification:\n")
	fmt.Printf("  found:           %d\n", found)
	fmt.Printf("  not found:       %d\n", notFound)
	fmt.Printf("  duplicates:      %d\n", duplicates)
	fmt.Printf("  library updates: %d\n", libraryUpdates)
	fmt.Printf("  invalid rows:    %d\n", result.Invalid)

	if cmd.Verbose {
		fmt.Println()
		for _, item := range result.Items() {
			title := item.Original.Title
			if title == "" {
				title = item.Original.ISBN
			}
			fmt.Printf("  row %d: %-40s %s\n", item.Original.Row, title, item.Bucket)
		}
		for _, rej := range result.Rejected {
			fmt.Printf("  row %d: rejected (%s)\n", rej.Row, rej.Reason)
		}
	}

	if cmd.DryRun {
		fmt.Println("\nDry run - nothing written")
		return nil
	}

	session := importer.NewReviewSession(result.Items())
	if cmd.IncludeNotFound {
		session.Apply(importer.Decision{Op: importer.OpSelectAll, Bucket: importer.BucketNotFound})
	}

	commitResult, err := app.Pipeline.Confirm(ctx, 0, result, session.DecisionSet())
	if err != nil {
		return err
	}

	fmt.Printf("\nImported %d completed books, updated %d library books, added %d to the library\n",
		commitResult.Imported, commitResult.Updated, commitResult.AddedToLibrary)
	for _, note := range commitResult.Notes {
		fmt.Printf("  note: %s\n", note)
	}

	return nil
}

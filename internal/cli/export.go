package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mrlokans/readtracker/internal/config"
	"github.com/mrlokans/readtracker/internal/database"
	"github.com/mrlokans/readtracker/internal/database/books"
	"github.com/mrlokans/readtracker/internal/entities"
	"github.com/mrlokans/readtracker/internal/exporters"
)

// ExportCommand writes each book's quotes to a markdown file.
type ExportCommand struct {
	DatabasePath string
	OutputDir    string
	Status       string
	All          bool

	Stdout io.Writer
}

func NewExportCommand() *ExportCommand {
	return &ExportCommand{Stdout: os.Stdout}
}

func (cmd *ExportCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")
	fs.StringVar(&cmd.OutputDir, "out", "./export", "Directory to write markdown files to")
	fs.StringVar(&cmd.Status, "status", "", "Only export books with this status (want, reading, finished)")
	fs.BoolVar(&cmd.All, "all", false, "Also export books that have no quotes")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s export [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Write one markdown file per book with its quotes.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if cmd.Status != "" {
		if _, err := entities.ParseBookStatus(cmd.Status); err != nil {
			return err
		}
	}
	return nil
}

func (cmd *ExportCommand) Run() error {
	ctx := context.Background()

	db, err := database.Open(cmd.DatabasePath, database.WithLogLevel(logLevel(false)))
	if err != nil {
		return err
	}
	defer db.Close()

	repo := books.NewRepository(db)
	defer repo.Close()

	selected, err := cmd.loadBooks(ctx, repo)
	if err != nil {
		return err
	}

	result, err := exporters.NewMarkdownExporter(cmd.OutputDir).Export(selected)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.Stdout, "Exported %d book(s) with %d quote(s) to %s\n",
		result.BooksProcessed, result.QuotesProcessed, cmd.OutputDir)
	if result.BooksFailed > 0 {
		return fmt.Errorf("%d book(s) failed to export", result.BooksFailed)
	}
	return nil
}

func (cmd *ExportCommand) loadBooks(ctx context.Context, repo *books.Repository) ([]entities.Book, error) {
	var (
		all []entities.Book
		err error
	)
	if cmd.Status != "" {
		all, err = repo.GetByStatus(ctx, entities.BookStatus(cmd.Status))
	} else {
		all, err = repo.GetAll(ctx)
	}
	if err != nil {
		return nil, err
	}

	selected := make([]entities.Book, 0, len(all))
	for _, book := range all {
		withQuotes, found, err := repo.GetWithQuotes(ctx, book.ID)
		if err != nil {
			return nil, err
		}
		if !found || (len(withQuotes.Quotes) == 0 && !cmd.All) {
			continue
		}
		selected = append(selected, withQuotes)
	}
	return selected, nil
}

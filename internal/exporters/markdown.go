package exporters

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mrlokans/readtracker/internal/entities"
	"github.com/mrlokans/readtracker/internal/utils"
)

// MarkdownExporter writes one markdown file per book into ExportDir.
type MarkdownExporter struct {
	ExportDir string
	Result    ExportResult

	now func() time.Time
}

func NewMarkdownExporter(exportDir string) *MarkdownExporter {
	return &MarkdownExporter{
		ExportDir: exportDir,
		now:       time.Now,
	}
}

func (exporter *MarkdownExporter) ensureDir() error {
	if err := os.MkdirAll(exporter.ExportDir, 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	return nil
}

func (exporter *MarkdownExporter) exportBook(book entities.Book) (string, error) {
	outputPath := filepath.Join(exporter.ExportDir, utils.SanitizeFilename(book.Title)+".md")

	content := GenerateMarkdown(book, exporter.now())
	if err := os.WriteFile(outputPath, []byte(content), 0644); err != nil {
		return "", err
	}
	return outputPath, nil
}

// GenerateMarkdown renders a book's front matter followed by its quotes.
func GenerateMarkdown(book entities.Book, exportedAt time.Time) string {
	var builder strings.Builder

	fmt.Fprintf(&builder, "---\n")
	fmt.Fprintf(&builder, "content_type: book_quotes\n")
	fmt.Fprintf(&builder, "exported_at: %s\n", exportedAt.Format("2006-01-02"))
	fmt.Fprintf(&builder, "title: \"%s\"\n", escapeQuotes(book.Title))
	fmt.Fprintf(&builder, "author: \"%s\"\n", escapeQuotes(book.Author))
	fmt.Fprintf(&builder, "status: %s\n", book.Status)
	if book.TotalPages > 0 {
		fmt.Fprintf(&builder, "pages: %d/%d\n", book.PagesRead, book.TotalPages)
	}
	if book.FinishedAt != nil {
		fmt.Fprintf(&builder, "finished_at: %s\n", book.FinishedAt.Format("2006-01-02"))
	}
	fmt.Fprintf(&builder, "tags: [quotes, books]\n")
	fmt.Fprintf(&builder, "---\n\n")
	fmt.Fprintf(&builder, "## Quotes\n\n")

	for _, quote := range book.Quotes {
		if quote.PageNumber != nil {
			fmt.Fprintf(&builder, "### Page %d\n\n", *quote.PageNumber)
		}
		fmt.Fprintf(&builder, "> %s\n\n", strings.ReplaceAll(quote.Text, "\n", "\n> "))
	}

	return builder.String()
}

func escapeQuotes(s string) string {
	return strings.ReplaceAll(s, "\"", "\\\"")
}

// Export writes every book. A book that fails to write is counted and skipped.
func (exporter *MarkdownExporter) Export(books []entities.Book) (ExportResult, error) {
	// Reset result state for each export
	exporter.Result = ExportResult{}

	if err := exporter.ensureDir(); err != nil {
		return ExportResult{}, err
	}

	for _, book := range books {
		path, err := exporter.exportBook(book)
		if err != nil {
			log.Printf("Failed to export book '%s' by %s: %v", book.Title, book.Author, err)
			exporter.Result.BooksFailed++
			continue
		}
		log.Printf("Exported book '%s' to %s", book.Title, path)
		exporter.Result.BooksProcessed++
		exporter.Result.QuotesProcessed += len(book.Quotes)
	}

	return exporter.Result, nil
}

package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gorm.io/gorm/logger"

	"github.com/mrlokans/readtracker/internal/config"
	"github.com/mrlokans/readtracker/internal/database"
)

// MigrateCommand moves the database schema forward.
type MigrateCommand struct {
	DatabasePath string
	To           int
	Verbose      bool

	Stdout io.Writer
}

func NewMigrateCommand() *MigrateCommand {
	return &MigrateCommand{Stdout: os.Stdout}
}

func (cmd *MigrateCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")
	fs.IntVar(&cmd.To, "to", 0, "Target schema version (0 = latest)")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Log every SQL statement")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s migrate [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Apply pending schema migrations.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s migrate\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s migrate -db ./readtracker.db -to 2\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if cmd.To < 0 {
		return fmt.Errorf("-to must not be negative")
	}
	return nil
}

func (cmd *MigrateCommand) Run() error {
	ctx := context.Background()

	path, err := filepath.Abs(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for database: %w", err)
	}

	current, err := database.StoredVersion(ctx, path)
	if err != nil {
		return err
	}

	db, err := database.Open(path,
		database.WithLogLevel(logLevel(cmd.Verbose)),
		database.WithSchemaVersion(cmd.To),
	)
	if err != nil {
		return err
	}
	defer db.Close()

	target := cmd.To
	if target == 0 {
		target = db.LatestVersion()
	}
	if target < current {
		return fmt.Errorf("database is at version %d, newer than %d; use rollback", current, target)
	}

	fmt.Fprintf(cmd.Stdout, "Database: %s\n", path)
	if target == current {
		fmt.Fprintf(cmd.Stdout, "Schema is up to date (version %d)\n", current)
		return nil
	}

	if _, err := db.Conn(ctx); err != nil {
		return err
	}
	fmt.Fprintf(cmd.Stdout, "Migrated schema from version %d to %d\n", current, target)
	return nil
}

// RollbackCommand moves the database schema back to an older version.
// Irreversible steps rebuild the schema from scratch, losing data.
type RollbackCommand struct {
	DatabasePath string
	To           int
	Verbose      bool

	Stdout io.Writer
}

func NewRollbackCommand() *RollbackCommand {
	return &RollbackCommand{Stdout: os.Stdout}
}

func (cmd *RollbackCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("rollback", flag.ContinueOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")
	fs.IntVar(&cmd.To, "to", -1, "Target schema version (required)")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Log every SQL statement")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s rollback -to <version> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Roll the schema back to an older version. When a step cannot be\n")
		fmt.Fprintf(os.Stderr, "reversed, every table is dropped and the schema is rebuilt empty.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if cmd.To < 0 {
		return fmt.Errorf("required flag -to not provided")
	}
	return nil
}

func (cmd *RollbackCommand) Run() error {
	ctx := context.Background()

	path, err := filepath.Abs(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for database: %w", err)
	}

	current, err := database.StoredVersion(ctx, path)
	if err != nil {
		return err
	}
	if current == 0 {
		return fmt.Errorf("database %s has no schema", path)
	}
	if cmd.To >= current {
		return fmt.Errorf("database is at version %d; rollback target must be lower", current)
	}

	// Open at the stored version so nothing is applied before rolling back.
	db, err := database.Open(path,
		database.WithLogLevel(logLevel(cmd.Verbose)),
		database.WithSchemaVersion(current),
	)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.MigrateTo(ctx, cmd.To); err != nil {
		return err
	}

	fmt.Fprintf(cmd.Stdout, "Database: %s\n", path)
	fmt.Fprintf(cmd.Stdout, "Rolled schema back from version %d to %d\n", current, cmd.To)
	return nil
}

func logLevel(verbose bool) logger.LogLevel {
	if verbose {
		return logger.Info
	}
	return logger.Silent
}

package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/mrlokans/readtracker/internal/cli"
	"github.com/mrlokans/readtracker/internal/config"
	"github.com/mrlokans/readtracker/internal/entrypoint"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

// command is implemented by every CLI subcommand.
type command interface {
	ParseFlags(args []string) error
	Run() error
}

func main() {
	// If no arguments or "serve" command, run the HTTP server
	if len(os.Args) < 2 || os.Args[1] == "serve" {
		cfg := config.NewConfig()
		entrypoint.Run(cfg, Version)
		return
	}

	name := os.Args[1]
	args := os.Args[2:]

	var cmd command
	switch name {
	case "migrate":
		cmd = cli.NewMigrateCommand()
	case "rollback":
		cmd = cli.NewRollbackCommand()
	case "stats":
		cmd = cli.NewStatsCommand()
	case "reset-streak":
		cmd = cli.NewResetStreakCommand()
	case "export":
		cmd = cli.NewExportCommand()
	case "version":
		fmt.Printf("readtracker %s (%s)\n", Version, Commit)
		return
	case "-h", "--help", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", name)
		printUsage()
		os.Exit(1)
	}

	if err := cmd.ParseFlags(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  serve          Start the HTTP server (default if no command given)\n")
	fmt.Fprintf(os.Stderr, "  migrate        Apply pending schema migrations\n")
	fmt.Fprintf(os.Stderr, "  rollback       Roll the schema back to an older version\n")
	fmt.Fprintf(os.Stderr, "  stats          Print streaks and reading totals\n")
	fmt.Fprintf(os.Stderr, "  reset-streak   Reset the current streak if a day was missed\n")
	fmt.Fprintf(os.Stderr, "  export         Write quotes to markdown files, one per book\n")
	fmt.Fprintf(os.Stderr, "  version        Print version information\n")
	fmt.Fprintf(os.Stderr, "\nUse '%s <command> -h' for help on a specific command.\n", os.Args[0])
}

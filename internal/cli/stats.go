package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"

	"github.com/mrlokans/readtracker/internal/config"
	"github.com/mrlokans/readtracker/internal/database"
	"github.com/mrlokans/readtracker/internal/database/users"
	"github.com/mrlokans/readtracker/internal/entities"
)

// StatsCommand prints the reading statistics.
type StatsCommand struct {
	DatabasePath string
	Recompute    bool

	Stdout io.Writer
}

func NewStatsCommand() *StatsCommand {
	return &StatsCommand{Stdout: os.Stdout}
}

func (cmd *StatsCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")
	fs.BoolVar(&cmd.Recompute, "recompute", false, "Rebuild the statistics from sessions and books before printing")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s stats [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Print streaks and reading totals.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *StatsCommand) Run() error {
	ctx := context.Background()

	return withUsers(cmd.DatabasePath, func(repo *users.Repository) error {
		var (
			stats entities.UserStats
			err   error
		)
		if cmd.Recompute {
			stats, err = repo.RecomputeStats(ctx)
		} else {
			stats, err = repo.GetStats(ctx)
		}
		if err != nil {
			return err
		}

		readToday, err := repo.HasReadToday(ctx)
		if err != nil {
			return err
		}
		pagesToday, err := repo.PagesReadOnDate(ctx, time.Now())
		if err != nil {
			return err
		}

		printStats(cmd.Stdout, stats, readToday, pagesToday)
		return nil
	})
}

func printStats(w io.Writer, stats entities.UserStats, readToday bool, pagesToday int) {
	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	cyan.Fprintln(w, "Reading Stats")
	cyan.Fprintln(w, "=============")

	streak := yellow
	if readToday {
		streak = green
	}
	fmt.Fprint(w, "Current streak:   ")
	streak.Fprintf(w, "%d day(s)\n", stats.CurrentStreak)

	fmt.Fprintf(w, "Longest streak:   %d day(s)\n", stats.LongestStreak)
	fmt.Fprintf(w, "Books finished:   %d\n", stats.TotalBooksRead)
	fmt.Fprintf(w, "Pages read:       %d\n", stats.TotalPagesRead)
	if stats.LastReadingDate != nil {
		fmt.Fprintf(w, "Last read:        %s\n", stats.LastReadingDate.Format("2006-01-02 15:04"))
	} else {
		fmt.Fprintln(w, "Last read:        never")
	}
	fmt.Fprintf(w, "Read today:       %t (%d pages)\n", readToday, pagesToday)
	if !readToday && stats.CurrentStreak > 0 {
		yellow.Fprintln(w, "Read today to keep the streak going.")
	}
}

// ResetStreakCommand runs the daily missed-day check once.
type ResetStreakCommand struct {
	DatabasePath string

	Stdout io.Writer
}

func NewResetStreakCommand() *ResetStreakCommand {
	return &ResetStreakCommand{Stdout: os.Stdout}
}

func (cmd *ResetStreakCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("reset-streak", flag.ContinueOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s reset-streak [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Zero the current streak if there was no reading today or yesterday.\n")
		fmt.Fprintf(os.Stderr, "The longest streak is never changed.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *ResetStreakCommand) Run() error {
	ctx := context.Background()

	return withUsers(cmd.DatabasePath, func(repo *users.Repository) error {
		reset, err := repo.ResetStreakIfMissed(ctx)
		if err != nil {
			return err
		}
		if reset {
			fmt.Fprintln(cmd.Stdout, "Streak reset: no reading today or yesterday")
		} else {
			fmt.Fprintln(cmd.Stdout, "Streak intact")
		}
		return nil
	})
}

// withUsers opens the database at its latest schema and hands a users
// repository to fn.
func withUsers(path string, fn func(*users.Repository) error) error {
	db, err := database.Open(path, database.WithLogLevel(logLevel(false)))
	if err != nil {
		return err
	}
	defer db.Close()

	repo := users.NewRepository(db)
	defer repo.Close()

	return fn(repo)
}

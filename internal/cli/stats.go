package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/mrlokans/studyshelf/internal/config"
	"github.com/mrlokans/studyshelf/internal/database"
	"github.com/mrlokans/studyshelf/internal/database/progress"
	"github.com/mrlokans/studyshelf/internal/database/users"
	"github.com/mrlokans/studyshelf/internal/engine"
	"github.com/mrlokans/studyshelf/internal/tasks"
)

// StatsCommand prints a user's reading statistics.
type StatsCommand struct {
	UserID   uint
	JSON     bool
	Refresh  bool
	Database config.Database

	Out io.Writer
}

func NewStatsCommand(cfg *config.Config) *StatsCommand {
	return &StatsCommand{
		Database: cfg.Database,
		Out:      os.Stdout,
	}
}

func (cmd *StatsCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)

	var userID uint64
	fs.Uint64Var(&userID, "user", 0, "User ID (required)")
	fs.BoolVar(&cmd.JSON, "json", false, "Print JSON instead of a table")
	fs.BoolVar(&cmd.Refresh, "refresh", false, "Also store the recomputed reading summary on the user")
	fs.StringVar(&cmd.Database.Path, "db", cmd.Database.Path, "Path to the SQLite database file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s stats -user <id> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Print reading statistics for a user.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if userID == 0 {
		return fmt.Errorf("required flag -user not provided")
	}
	cmd.UserID = uint(userID)
	return nil
}

func (cmd *StatsCommand) Run() error {
	db, err := database.NewDatabase(cmd.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	progressRepo := progress.NewRepository(db.DB)
	stats, err := engine.NewStatsAggregator(progressRepo).GetStats(context.Background(), cmd.UserID)
	if err != nil {
		return err
	}

	if cmd.Refresh {
		refresher := tasks.NewSummaryRefresher(users.NewRepository(db.DB), progressRepo)
		if err := refresher.Refresh(context.Background(), cmd.UserID); err != nil {
			return err
		}
	}

	if cmd.JSON {
		enc := json.NewEncoder(cmd.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	fmt.Fprintf(cmd.Out, "Reading stats for user %d\n", cmd.UserID)
	fmt.Fprintf(cmd.Out, "  Books:         %d\n", stats.TotalBooks)
	fmt.Fprintf(cmd.Out, "  Completed:     %d\n", stats.CompletedBooks)
	fmt.Fprintf(cmd.Out, "  Reading time:  %d min\n", stats.TotalReadingTime)
	fmt.Fprintf(cmd.Out, "  Pages read:    %d\n", stats.TotalPagesRead)

	if len(stats.ActiveBooks) == 0 {
		return nil
	}
	fmt.Fprintln(cmd.Out, "\nIn progress:")
	w := tabwriter.NewWriter(cmd.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  BOOK\tPAGE\tPROGRESS")
	for _, r := range stats.ActiveBooks {
		fmt.Fprintf(w, "  %d\t%d/%d\t%d%%\n", r.BookID, r.CurrentPage, r.TotalPages, r.ProgressPercentage)
	}
	return w.Flush()
}

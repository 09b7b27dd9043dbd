package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/tasktracker/internal/board"
	"github.com/twiced-technology-gmbh/tasktracker/internal/config"
	"github.com/twiced-technology-gmbh/tasktracker/internal/output"
	"github.com/twiced-technology-gmbh/tasktracker/internal/task"
	"github.com/twiced-technology-gmbh/tasktracker/internal/watcher"
)

var flagWatch bool

var boardCmd = &cobra.Command{
	Use:     "board",
	Aliases: []string{"summary"},
	Short:   "Show board summary",
	Long: `Displays a summary of the store: record counts per status and kind,
scheduled records and planned minutes, followed by the next open records in
priority order.

Use --watch to keep the display live-updating. The summary re-renders
whenever the data file changes on disk (e.g., from another terminal or the
HTTP server). Press Ctrl+C to stop.`,
	RunE: runBoard,
}

func init() {
	rootCmd.AddCommand(boardCmd)
	boardCmd.Flags().BoolVarP(&flagWatch, "watch", "w", false, "live-update the board on file changes")
	boardCmd.Flags().String("group-by", "", "group board by field ("+strings.Join(board.ValidGroupByFields(), ", ")+")")
}

func runBoard(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	groupBy, _ := cmd.Flags().GetString("group-by")
	if groupBy != "" {
		if err := board.ValidateGroupBy(groupBy); err != nil {
			return err
		}
	}

	if err := renderBoard(cfg, groupBy); err != nil {
		return err
	}

	if !flagWatch {
		return nil
	}

	return watchBoard(cfg, groupBy)
}

func renderBoard(cfg *config.Config, groupBy string) error {
	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	records := s.Snapshot()

	if groupBy != "" {
		return outputGroupedList(records, groupBy)
	}

	summary := board.Summary(cfg.Name, records)

	switch outputFormat() {
	case output.FormatJSON:
		return output.JSON(os.Stdout, summary)
	case output.FormatCompact:
		output.OverviewCompact(os.Stdout, summary)
		return nil
	default:
		output.OverviewTable(os.Stdout, summary)
		printUpNext(s.GetPrioritizedTasks())
		return nil
	}
}

const upNextLimit = 3

// printUpNext lists the earliest open scheduled records under the summary.
func printUpNext(prioritized []*task.Task) {
	next := make([]*task.Task, 0, upNextLimit)
	for _, t := range prioritized {
		if t.Status == task.StatusDone {
			continue
		}
		next = append(next, t)
		if len(next) == upNextLimit {
			break
		}
	}
	if len(next) == 0 {
		return
	}
	fmt.Fprintln(os.Stdout, "\nUp next:")
	output.TaskCompact(os.Stdout, next)
}

func watchBoard(cfg *config.Config, groupBy string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w, err := watcher.New([]string{cfg.DataPath(), cfg.ConfigPath()}, func() {
		clearScreen()
		freshCfg, loadErr := config.Load(cfg.Dir())
		if loadErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: reloading config: %v\n", loadErr)
			freshCfg = cfg
		}
		if renderErr := renderBoard(freshCfg, groupBy); renderErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: rendering board: %v\n", renderErr)
		}
	})
	if err != nil {
		return fmt.Errorf("starting file watcher: %w", err)
	}
	defer w.Close()

	fmt.Fprintln(os.Stderr, "Watching for changes... (Ctrl+C to stop)")

	w.Run(ctx, func(watchErr error) {
		fmt.Fprintf(os.Stderr, "Warning: file watcher: %v\n", watchErr)
	})

	return nil
}

// clearScreen sends ANSI escape codes to clear the terminal and move the
// cursor to the top-left corner.
func clearScreen() {
	fmt.Fprint(os.Stdout, "\033[2J\033[H")
}

// Package cmd implements the tasktracker CLI commands.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/tasktracker/internal/board"
	"github.com/twiced-technology-gmbh/tasktracker/internal/clierr"
	"github.com/twiced-technology-gmbh/tasktracker/internal/config"
	"github.com/twiced-technology-gmbh/tasktracker/internal/filelock"
	"github.com/twiced-technology-gmbh/tasktracker/internal/filestore"
	"github.com/twiced-technology-gmbh/tasktracker/internal/output"
	"github.com/twiced-technology-gmbh/tasktracker/internal/task"
)

// version is set at build time via ldflags.
var version = "dev"

// Global flags.
var (
	flagJSON    bool
	flagTable   bool
	flagCompact bool
	flagDir     string
	flagNoColor bool
)

var rootCmd = &cobra.Command{
	Use:   "tasktracker",
	Short: "Track tasks, epics and subtasks",
	Long: `tasktracker keeps tasks, epics and subtasks in a CSV-backed store.
Run tasktracker without arguments to open the board, or use the subcommands
to manage records from scripts. serve and mcp expose the same store over
HTTP and the Model Context Protocol.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runTUI,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if flagNoColor || os.Getenv("NO_COLOR") != "" {
			output.DisableColor()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagTable, "table", false, "output as table")
	rootCmd.PersistentFlags().BoolVar(&flagCompact, "compact", false, "compact one-line-per-record output")
	rootCmd.PersistentFlags().BoolVar(&flagCompact, "oneline", false, "alias for --compact")
	rootCmd.PersistentFlags().StringVar(&flagDir, "dir", "", "path to the tracker directory")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable color output")
}

// Execute runs the root command.
func Execute() {
	_, err := rootCmd.ExecuteC()
	if err == nil {
		return
	}

	var silent *clierr.SilentError
	if errors.As(err, &silent) {
		os.Exit(silent.Code)
	}

	if outputFormat() == output.FormatJSON {
		var cliErr *clierr.Error
		if errors.As(err, &cliErr) {
			output.JSONError(os.Stdout, cliErr.Code, cliErr.Message, cliErr.Details)
			os.Exit(cliErr.ExitCode())
		}
		output.JSONError(os.Stdout, clierr.InternalError, err.Error(), nil)
		os.Exit(2) //nolint:mnd // exit code 2 for internal errors
	}

	fmt.Fprintln(os.Stderr, err)
	var cliErr *clierr.Error
	if errors.As(err, &cliErr) {
		os.Exit(cliErr.ExitCode())
	}
	os.Exit(1)
}

// resolveDir returns the tracker directory from --dir or by walking up from
// the working directory.
func resolveDir() (string, error) {
	if flagDir != "" {
		return flagDir, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}
	return config.FindDir(cwd)
}

// loadConfig finds and loads the tracker config.
func loadConfig() (*config.Config, error) {
	dir, err := resolveDir()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(dir)
	if errors.Is(err, config.ErrNotFound) {
		return nil, clierr.New(clierr.StoreNotFound, err.Error()).
			WithDetails(map[string]any{"dir": dir})
	}
	return cfg, err
}

// openStore loads the data file for read-only commands. Saves replace the
// file atomically, so readers never see a partial write.
func openStore(cfg *config.Config) (*filestore.Store, error) {
	return filestore.Open(cfg.DataPath())
}

// withStore runs fn against a freshly loaded store while holding the
// exclusive store lock, so concurrent CLI invocations never lose updates.
func withStore(fn func(cfg *config.Config, s *filestore.Store) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return filelock.WithLock(cfg.LockPath(), func() error {
		s, err := openStore(cfg)
		if err != nil {
			return err
		}
		return fn(cfg, s)
	})
}

// outputFormat returns the detected output format from flags/env.
func outputFormat() output.Format {
	return output.Detect(flagJSON, flagTable, flagCompact)
}

// logActivity appends an entry to the activity log when it is enabled.
func logActivity(cfg *config.Config, action string, kind task.Kind, id int, detail string) {
	if cfg.LogEnabled() {
		board.LogMutation(cfg.LogPath(), action, kind, id, detail)
	}
}

// findRecord locates a record of any kind without recording a view.
func findRecord(s *filestore.Store, id int) (*task.Task, error) {
	if t := board.Find(s.Snapshot(), id); t != nil {
		return t, nil
	}
	return nil, clierr.Newf(clierr.TaskNotFound, "record #%d not found", id).
		WithDetails(map[string]any{"id": id})
}

// parseIDs splits a comma-separated ID string into deduplicated int IDs.
func parseIDs(arg string) ([]int, error) {
	return board.ParseIDs(arg)
}

// parseKindFlag reads an optional --kind flag; empty means def.
func parseKindFlag(cmd *cobra.Command, def task.Kind) (task.Kind, error) {
	v, _ := cmd.Flags().GetString("kind")
	if v == "" {
		return def, nil
	}
	return task.ParseKind(v)
}

// runBatch executes fn for each ID and collects results. Returns a SilentError
// with exit code 1 if any operation failed (after outputting results).
func runBatch(ids []int, fn func(int) error) error {
	results := make([]output.BatchResult, 0, len(ids))
	anyFailed := false

	for _, id := range ids {
		err := fn(id)
		if err != nil {
			anyFailed = true
			var cliErr *clierr.Error
			if errors.As(err, &cliErr) {
				results = append(results, output.BatchResult{ID: id, OK: false, Error: cliErr.Message, Code: cliErr.Code})
			} else {
				results = append(results, output.BatchResult{ID: id, OK: false, Error: err.Error()})
			}
		} else {
			results = append(results, output.BatchResult{ID: id, OK: true})
		}
	}

	if outputFormat() == output.FormatJSON {
		if err := output.JSON(os.Stdout, results); err != nil {
			return err
		}
	} else {
		var succeeded int
		for _, r := range results {
			if r.OK {
				succeeded++
			} else {
				fmt.Fprintf(os.Stderr, "Error: #%d: %s\n", r.ID, r.Error)
			}
		}
		output.Messagef(os.Stdout, "Completed %d/%d operations", succeeded, len(ids))
	}

	if anyFailed {
		return &clierr.SilentError{Code: 1}
	}
	return nil
}

var actionVerbs = map[string]string{
	"create": "Created",
	"update": "Updated",
	"move":   "Moved",
	"delete": "Deleted",
}

// printMutation reports a successful mutation in the selected format.
func printMutation(action string, t *task.Task) error {
	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, output.MutationResult{Action: action, Kind: t.Kind, ID: t.ID, Record: t})
	}
	output.Messagef(os.Stdout, "%s %s #%d: %s", actionVerbs[action], t.Kind.Label(), t.ID, t.Name)
	return nil
}

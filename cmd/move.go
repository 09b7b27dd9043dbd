package cmd

import (
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/tasktracker/internal/clierr"
	"github.com/twiced-technology-gmbh/tasktracker/internal/config"
	"github.com/twiced-technology-gmbh/tasktracker/internal/filestore"
	"github.com/twiced-technology-gmbh/tasktracker/internal/output"
	"github.com/twiced-technology-gmbh/tasktracker/internal/task"
)

var moveCmd = &cobra.Command{
	Use:   "move ID[,ID,...] [STATUS]",
	Short: "Move a task or subtask to a different status",
	Long: `Changes the status of a task or subtask. Provide the new status directly,
or use --next/--prev to move along NEW, IN_PROGRESS, DONE.
Multiple IDs can be provided as a comma-separated list.
Epics cannot be moved; their status follows their subtasks.`,
	Args: cobra.RangeArgs(1, 2), //nolint:mnd // 1 or 2 positional args
	RunE: runMove,
}

func init() {
	moveCmd.Flags().Bool("next", false, "move to next status")
	moveCmd.Flags().Bool("prev", false, "move to previous status")
	rootCmd.AddCommand(moveCmd)
}

func runMove(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args[0])
	if err != nil {
		return err
	}

	return withStore(func(cfg *config.Config, s *filestore.Store) error {
		if len(ids) == 1 {
			t, oldStatus, err := executeMove(cfg, s, ids[0], cmd, args)
			if err != nil {
				return err
			}
			return outputMoveResult(t, oldStatus)
		}
		return runBatch(ids, func(id int) error {
			_, _, err := executeMove(cfg, s, id, cmd, args)
			return err
		})
	})
}

// moveResult adds a changed flag to the mutation result for JSON output.
type moveResult struct {
	output.MutationResult
	Changed bool `json:"changed"`
}

// executeMove resolves the target status and stores the change.
// Returns (record, oldStatus, error). If the record was already at the target
// status, oldStatus is empty and nothing is written.
func executeMove(cfg *config.Config, s *filestore.Store, id int, cmd *cobra.Command, args []string) (*task.Task, task.Status, error) {
	t, err := findRecord(s, id)
	if err != nil {
		return nil, "", err
	}
	if t.Kind == task.KindEpic {
		return nil, "", clierr.Newf(clierr.InvalidInput,
			"epic #%d cannot be moved; its status follows its subtasks", id)
	}

	newStatus, err := resolveTargetStatus(cmd, args, t)
	if err != nil {
		return nil, "", err
	}
	if t.Status == newStatus {
		return t, "", nil
	}

	oldStatus := t.Status
	t.Status = newStatus
	if err := updateRecord(s, t); err != nil {
		return nil, "", err
	}

	logActivity(cfg, "move", t.Kind, id, string(oldStatus)+" -> "+string(newStatus))
	return t, oldStatus, nil
}

func resolveTargetStatus(cmd *cobra.Command, args []string, t *task.Task) (task.Status, error) {
	next, _ := cmd.Flags().GetBool("next")
	prev, _ := cmd.Flags().GetBool("prev")
	idx := slices.Index(task.Statuses, t.Status)

	switch {
	case len(args) == 2: //nolint:mnd // positional arg
		return task.ParseStatus(args[1])
	case next:
		if idx < 0 || idx >= len(task.Statuses)-1 {
			return "", clierr.Newf(clierr.InvalidInput, "#%d is already at the last status (%s)", t.ID, t.Status)
		}
		return task.Statuses[idx+1], nil
	case prev:
		if idx <= 0 {
			return "", clierr.Newf(clierr.InvalidInput, "#%d is already at the first status (%s)", t.ID, t.Status)
		}
		return task.Statuses[idx-1], nil
	default:
		return "", clierr.New(clierr.InvalidInput, "provide a target status or use --next/--prev")
	}
}

func outputMoveResult(t *task.Task, oldStatus task.Status) error {
	changed := oldStatus != ""
	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, moveResult{
			MutationResult: output.MutationResult{Action: "move", Kind: t.Kind, ID: t.ID, Record: t},
			Changed:        changed,
		})
	}
	if !changed {
		output.Messagef(os.Stdout, "%s #%d is already at %s", t.Kind.Label(), t.ID, t.Status)
		return nil
	}
	output.Messagef(os.Stdout, "Moved %s #%d: %s -> %s", t.Kind.Label(), t.ID, oldStatus, t.Status)
	return nil
}

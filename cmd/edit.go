package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/tasktracker/internal/clierr"
	"github.com/twiced-technology-gmbh/tasktracker/internal/config"
	"github.com/twiced-technology-gmbh/tasktracker/internal/date"
	"github.com/twiced-technology-gmbh/tasktracker/internal/filestore"
	"github.com/twiced-technology-gmbh/tasktracker/internal/task"
)

var editCmd = &cobra.Command{
	Use:     "edit ID[,ID,...]",
	Aliases: []string{"update"},
	Short:   "Edit a record",
	Long: `Modifies fields of an existing record. Only specified fields are changed.
Multiple IDs can be provided as a comma-separated list.

Epics only take --name and --description; their status and schedule are
derived from their subtasks. A subtask always stays with its epic.`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func init() {
	editCmd.Flags().String("name", "", "new name")
	editCmd.Flags().String("status", "", "new status")
	editCmd.Flags().String("description", "", "new description (replaces the whole text)")
	editCmd.Flags().StringP("append-description", "a", "", "append text to the description")
	editCmd.Flags().BoolP("timestamp", "t", false, "prefix a timestamp line when appending")
	editCmd.Flags().String("start", "", "new start time ("+date.Layout+"), empty to unschedule")
	editCmd.Flags().String("duration", "", "new duration in minutes or like 1h30m, empty to clear")
	rootCmd.AddCommand(editCmd)
}

func runEdit(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args[0])
	if err != nil {
		return err
	}

	return withStore(func(cfg *config.Config, s *filestore.Store) error {
		if len(ids) == 1 {
			t, err := executeEdit(cfg, s, ids[0], cmd)
			if err != nil {
				return err
			}
			return printMutation("update", t)
		}
		return runBatch(ids, func(id int) error {
			_, err := executeEdit(cfg, s, id, cmd)
			return err
		})
	})
}

// executeEdit applies the flags to one record, stores it and logs the change.
func executeEdit(cfg *config.Config, s *filestore.Store, id int, cmd *cobra.Command) (*task.Task, error) {
	t, err := findRecord(s, id)
	if err != nil {
		return nil, err
	}

	changed, err := applyEditFlags(cmd, t)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, clierr.New(clierr.NoChanges, "no changes specified")
	}

	if err := updateRecord(s, t); err != nil {
		return nil, err
	}
	logActivity(cfg, "update", t.Kind, t.ID, t.Name)

	return findRecord(s, id)
}

// updateRecord stores t through the update operation matching its kind.
func updateRecord(s *filestore.Store, t *task.Task) error {
	switch t.Kind {
	case task.KindEpic:
		return s.UpdateEpic(t)
	case task.KindSubtask:
		return s.UpdateSubtask(t)
	default:
		return s.UpdateTask(t)
	}
}

func applyEditFlags(cmd *cobra.Command, t *task.Task) (bool, error) {
	flags := cmd.Flags()
	changed := false

	if flags.Changed("name") {
		v, _ := flags.GetString("name")
		if v == "" {
			return false, clierr.New(clierr.InvalidInput, "name must not be empty")
		}
		t.Name = v
		changed = true
	}
	if flags.Changed("description") {
		t.Description, _ = flags.GetString("description")
		changed = true
	}
	if v, _ := flags.GetString("append-description"); v != "" {
		if ts, _ := flags.GetBool("timestamp"); ts {
			v = fmt.Sprintf("[%s]\n%s", date.Format(time.Now()), v)
		}
		t.Description = appendText(t.Description, v)
		changed = true
	}

	if flags.Changed("status") || flags.Changed("start") || flags.Changed("duration") {
		if t.Kind == task.KindEpic {
			return false, clierr.New(clierr.InvalidInput,
				"epic status and schedule are derived from its subtasks")
		}
		if err := applyScheduleFlags(cmd, t); err != nil {
			return false, err
		}
		changed = true
	}
	return changed, nil
}

// appendText joins existing text and an addition with a blank line.
func appendText(existing, add string) string {
	existing = strings.TrimRight(existing, "\n")
	if existing == "" {
		return add
	}
	return existing + "\n\n" + add
}

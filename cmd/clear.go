package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/tasktracker/internal/config"
	"github.com/twiced-technology-gmbh/tasktracker/internal/filestore"
	"github.com/twiced-technology-gmbh/tasktracker/internal/output"
	"github.com/twiced-technology-gmbh/tasktracker/internal/task"
)

var clearCmd = &cobra.Command{
	Use:   "clear [KIND]",
	Short: "Delete every record of a kind",
	Long: `Deletes all tasks, all epics or all subtasks. Clearing epics also clears
every subtask. Without KIND, everything is deleted.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"task", "epic", "subtask"},
	RunE:      runClear,
}

func init() {
	clearCmd.Flags().BoolP("yes", "y", false, "skip confirmation prompt")
	rootCmd.AddCommand(clearCmd)
}

func runClear(cmd *cobra.Command, args []string) error {
	var kind task.Kind
	if len(args) == 1 {
		k, err := task.ParseKind(args[0])
		if err != nil {
			return err
		}
		kind = k
	}

	what := "all records"
	if kind != "" {
		what = "all " + kind.Label() + "s"
	}
	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		ok, err := confirm(fmt.Sprintf("Delete %s?", what))
		if err != nil || !ok {
			return err
		}
	}

	return withStore(func(cfg *config.Config, s *filestore.Store) error {
		var err error
		switch kind {
		case task.KindTask:
			err = s.DeleteAllTasks()
		case task.KindEpic:
			err = s.DeleteAllEpics()
		case task.KindSubtask:
			err = s.DeleteAllSubtasks()
		default:
			err = s.Reset()
		}
		if err != nil {
			return err
		}
		logActivity(cfg, "clear", kind, 0, what)

		if outputFormat() == output.FormatJSON {
			return output.JSON(os.Stdout, map[string]string{"status": "cleared", "scope": what})
		}
		output.Messagef(os.Stdout, "Deleted %s", what)
		return nil
	})
}

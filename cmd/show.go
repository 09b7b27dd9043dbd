package cmd

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/tasktracker/internal/output"
	"github.com/twiced-technology-gmbh/tasktracker/internal/task"
)

var showCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show record details",
	Long:  `Displays full details of a single record including its markdown description. Epics list their subtasks.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(_ *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil || id <= 0 {
		return task.ValidateTaskID(args[0])
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := openStore(cfg)
	if err != nil {
		return err
	}

	t, err := findRecord(s, id)
	if err != nil {
		return err
	}
	var subtasks []*task.Task
	if t.Kind == task.KindEpic {
		subtasks = s.GetSubtasksByEpicID(id)
	}

	switch outputFormat() {
	case output.FormatJSON:
		return output.JSON(os.Stdout, t)
	case output.FormatCompact:
		output.TaskDetailCompact(os.Stdout, t)
		return nil
	default:
		output.TaskDetail(os.Stdout, t, subtasks)
		return nil
	}
}

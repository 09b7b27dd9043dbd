package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/tasktracker/internal/task"
)

var subtasksCmd = &cobra.Command{
	Use:   "subtasks EPIC_ID",
	Short: "List the subtasks of an epic",
	Long:  `Lists the subtasks of an epic in the order they were added. An unknown epic lists nothing.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runSubtasks,
}

var prioritizedCmd = &cobra.Command{
	Use:     "prioritized",
	Aliases: []string{"next"},
	Short:   "List scheduled work by start time",
	Long: `Lists tasks and subtasks that have a start time, earliest first.
Records starting at the same time are ordered by ID.`,
	Args: cobra.NoArgs,
	RunE: runPrioritized,
}

func init() {
	prioritizedCmd.Flags().IntP("limit", "n", 0, "limit number of results")
	rootCmd.AddCommand(subtasksCmd)
	rootCmd.AddCommand(prioritizedCmd)
}

func runSubtasks(_ *cobra.Command, args []string) error {
	epicID, err := strconv.Atoi(args[0])
	if err != nil || epicID <= 0 {
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
	return outputTaskList(s.GetSubtasksByEpicID(epicID))
}

func runPrioritized(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := openStore(cfg)
	if err != nil {
		return err
	}

	records := s.GetPrioritizedTasks()
	if limit, _ := cmd.Flags().GetInt("limit"); limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return outputTaskList(records)
}

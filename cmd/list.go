package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/tasktracker/internal/board"
	"github.com/twiced-technology-gmbh/tasktracker/internal/output"
	"github.com/twiced-technology-gmbh/tasktracker/internal/task"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List records",
	Long:    `Lists tasks, epics and subtasks with optional filtering, sorting, and output format control.`,
	RunE:    runList,
}

func init() {
	listCmd.Flags().StringSlice("kind", nil, "filter by kind (comma-separated: task, epic, subtask)")
	listCmd.Flags().StringSlice("status", nil, "filter by status (comma-separated)")
	listCmd.Flags().Int("epic", 0, "show only subtasks of this epic")
	listCmd.Flags().StringP("search", "s", "", "search name and description (case-insensitive)")
	listCmd.Flags().Bool("scheduled", false, "show only records with a start time")
	listCmd.Flags().Bool("unscheduled", false, "show only records without a start time")
	listCmd.Flags().String("sort", "id", "sort field ("+strings.Join(board.ValidSortFields(), ", ")+")")
	listCmd.Flags().BoolP("reverse", "r", false, "reverse sort order")
	listCmd.Flags().IntP("limit", "n", 0, "limit number of results")
	listCmd.Flags().String("group-by", "", "group results by field ("+strings.Join(board.ValidGroupByFields(), ", ")+")")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	kinds, _ := cmd.Flags().GetStringSlice("kind")
	statuses, _ := cmd.Flags().GetStringSlice("status")
	search, _ := cmd.Flags().GetString("search")
	sortBy, _ := cmd.Flags().GetString("sort")
	reverse, _ := cmd.Flags().GetBool("reverse")
	limit, _ := cmd.Flags().GetInt("limit")
	groupBy, _ := cmd.Flags().GetString("group-by")
	scheduled, _ := cmd.Flags().GetBool("scheduled")
	unscheduled, _ := cmd.Flags().GetBool("unscheduled")

	if err := board.ValidateSortField(sortBy); err != nil {
		return err
	}
	if groupBy != "" {
		if err := board.ValidateGroupBy(groupBy); err != nil {
			return err
		}
	}

	filter := board.FilterOptions{Search: search}
	for _, k := range kinds {
		kind, err := task.ParseKind(k)
		if err != nil {
			return err
		}
		filter.Kinds = append(filter.Kinds, kind)
	}
	for _, s := range statuses {
		st, err := task.ParseStatus(s)
		if err != nil {
			return err
		}
		filter.Statuses = append(filter.Statuses, st)
	}
	if cmd.Flags().Changed("epic") {
		epicID, _ := cmd.Flags().GetInt("epic")
		filter.EpicID = &epicID
	}
	if scheduled {
		v := true
		filter.Scheduled = &v
	} else if unscheduled {
		v := false
		filter.Scheduled = &v
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := openStore(cfg)
	if err != nil {
		return err
	}

	records := board.List(s.Snapshot(), board.ListOptions{
		Filter:  filter,
		SortBy:  sortBy,
		Reverse: reverse,
		Limit:   limit,
	})

	if groupBy != "" {
		return outputGroupedList(records, groupBy)
	}
	return outputTaskList(records)
}

func outputGroupedList(records []*task.Task, groupBy string) error {
	grouped := board.GroupBy(records, groupBy)
	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, grouped)
	}
	output.GroupedTable(os.Stdout, grouped)
	return nil
}

func outputTaskList(records []*task.Task) error {
	format := outputFormat()
	if format == output.FormatJSON {
		if records == nil {
			records = []*task.Task{}
		}
		return output.JSON(os.Stdout, records)
	}
	if format == output.FormatCompact {
		output.TaskCompact(os.Stdout, records)
		return nil
	}

	output.TaskTable(os.Stdout, records)
	return nil
}

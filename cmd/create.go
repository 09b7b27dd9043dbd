package cmd

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/twiced-technology-gmbh/tasktracker/internal/clierr"
	"github.com/twiced-technology-gmbh/tasktracker/internal/config"
	"github.com/twiced-technology-gmbh/tasktracker/internal/date"
	"github.com/twiced-technology-gmbh/tasktracker/internal/filestore"
	"github.com/twiced-technology-gmbh/tasktracker/internal/task"
)

var createCmd = &cobra.Command{
	Use:     "create [NAME]",
	Aliases: []string{"add"},
	Short:   "Create a task, epic or subtask",
	Long: `Creates a new record with the given name and optional fields.

Name can be provided as a positional argument or via --name flag.
Subtasks need --epic. Epic status and schedule are derived from their
subtasks, so --status, --start and --duration are ignored for epics.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCreate,
}

func init() {
	createCmd.Flags().String("name", "", "record name (alternative to positional argument)")
	createCmd.Flags().StringP("kind", "k", "", "record kind: task (default), epic or subtask")
	createCmd.Flags().String("status", "", "status (default from config)")
	createCmd.Flags().String("description", "", "description (markdown)")
	createCmd.Flags().Int("epic", 0, "owning epic ID (subtasks only)")
	createCmd.Flags().String("start", "", "start time ("+date.Layout+")")
	createCmd.Flags().String("duration", "", "duration in minutes or like 1h30m")
	createCmd.Flags().Int("id", 0, "explicit ID (must be unused)")
	createCmd.Flags().SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		switch name {
		case "title":
			name = "name"
		case "body", "desc":
			name = "description"
		case "type":
			name = "kind"
		case "epic-id":
			name = "epic"
		}
		return pflag.NormalizedName(name)
	})
	rootCmd.AddCommand(createCmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	name, err := resolveCreateName(cmd, args)
	if err != nil {
		return err
	}
	kind, err := parseKindFlag(cmd, task.KindTask)
	if err != nil {
		return err
	}

	return withStore(func(cfg *config.Config, s *filestore.Store) error {
		t := &task.Task{
			Kind:   kind,
			Name:   name,
			Status: cfg.Defaults.Status,
		}
		if err := applyCreateFlags(cmd, t); err != nil {
			return err
		}

		var id int
		switch kind {
		case task.KindEpic:
			id, err = s.CreateEpic(t)
		case task.KindSubtask:
			id, err = s.CreateSubtask(t)
		default:
			id, err = s.CreateTask(t)
		}
		if err != nil {
			return err
		}
		logActivity(cfg, "create", kind, id, name)

		created, err := findRecord(s, id)
		if err != nil {
			return err
		}
		return printMutation("create", created)
	})
}

// resolveCreateName returns the record name from either the positional arg or --name flag.
func resolveCreateName(cmd *cobra.Command, args []string) (string, error) {
	flagName, _ := cmd.Flags().GetString("name")
	hasPositional := len(args) > 0
	hasFlag := flagName != ""

	switch {
	case hasPositional && hasFlag:
		return "", clierr.New(clierr.InvalidInput,
			"name provided both as argument and --name flag; use one or the other")
	case hasPositional:
		return args[0], nil
	case hasFlag:
		return flagName, nil
	default:
		return "", errors.New("name is required: provide it as an argument or with --name")
	}
}

func applyCreateFlags(cmd *cobra.Command, t *task.Task) error {
	if v, _ := cmd.Flags().GetInt("id"); v != 0 {
		t.ID = v
	}
	if v, _ := cmd.Flags().GetString("description"); v != "" {
		t.Description = v
	}
	if v, _ := cmd.Flags().GetInt("epic"); v != 0 {
		if t.Kind != task.KindSubtask {
			return clierr.New(clierr.InvalidInput, "--epic is only valid for subtasks")
		}
		t.EpicID = v
	}
	if t.Kind == task.KindSubtask && t.EpicID == 0 {
		return clierr.New(clierr.InvalidInput, "subtasks need --epic")
	}
	return applyScheduleFlags(cmd, t)
}

// applyScheduleFlags copies --status, --start and --duration onto t.
func applyScheduleFlags(cmd *cobra.Command, t *task.Task) error {
	if v, _ := cmd.Flags().GetString("status"); v != "" {
		st, err := task.ParseStatus(v)
		if err != nil {
			return err
		}
		t.Status = st
	}
	if cmd.Flags().Changed("start") {
		v, _ := cmd.Flags().GetString("start")
		if v == "" {
			t.StartTime = nil
		} else {
			st, err := date.Parse(v)
			if err != nil {
				return task.FormatStartTime(v, err)
			}
			t.StartTime = &st
		}
	}
	if cmd.Flags().Changed("duration") {
		v, _ := cmd.Flags().GetString("duration")
		if v == "" {
			t.Duration = nil
		} else {
			d, err := date.ParseMinutes(v)
			if err != nil {
				return task.FormatDuration(v, err)
			}
			t.Duration = &d
		}
	}
	return nil
}

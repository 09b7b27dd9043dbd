package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/twiced-technology-gmbh/tasktracker/internal/clierr"
	"github.com/twiced-technology-gmbh/tasktracker/internal/config"
	"github.com/twiced-technology-gmbh/tasktracker/internal/filestore"
	"github.com/twiced-technology-gmbh/tasktracker/internal/task"
)

var deleteCmd = &cobra.Command{
	Use:     "delete ID[,ID,...]",
	Aliases: []string{"rm"},
	Short:   "Delete a record",
	Long: `Deletes a task, epic or subtask. Deleting an epic also deletes its subtasks.
Prompts for confirmation in interactive mode.
Multiple IDs can be provided as a comma-separated list (requires --yes).`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().BoolP("yes", "y", false, "skip confirmation prompt")
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args[0])
	if err != nil {
		return err
	}

	yes, _ := cmd.Flags().GetBool("yes")
	if len(ids) > 1 && !yes {
		return clierr.New(clierr.ConfirmationReq, "batch delete requires --yes")
	}

	return withStore(func(cfg *config.Config, s *filestore.Store) error {
		if len(ids) == 1 {
			return deleteSingle(cfg, s, ids[0], yes)
		}
		return runBatch(ids, func(id int) error {
			_, err := executeDelete(cfg, s, id)
			return err
		})
	})
}

// deleteSingle handles a single delete with confirmation and output.
func deleteSingle(cfg *config.Config, s *filestore.Store, id int, yes bool) error {
	t, err := findRecord(s, id)
	if err != nil {
		return err
	}

	if !yes {
		prompt := fmt.Sprintf("Delete %s #%d %q?", t.Kind.Label(), t.ID, t.Name)
		if t.Kind == task.KindEpic && len(t.SubtaskIDs) > 0 {
			prompt += fmt.Sprintf(" Its %d subtasks are deleted too.", len(t.SubtaskIDs))
		}
		ok, err := confirm(prompt)
		if err != nil || !ok {
			return err
		}
	}

	if _, err := executeDelete(cfg, s, id); err != nil {
		return err
	}
	return printMutation("delete", t)
}

// executeDelete removes one record through the delete operation of its kind.
func executeDelete(cfg *config.Config, s *filestore.Store, id int) (*task.Task, error) {
	t, err := findRecord(s, id)
	if err != nil {
		return nil, err
	}

	switch t.Kind {
	case task.KindEpic:
		err = s.DeleteEpicByID(id)
	case task.KindSubtask:
		err = s.DeleteSubtaskByID(id)
	default:
		err = s.DeleteTaskByID(id)
	}
	if err != nil {
		return nil, err
	}

	logActivity(cfg, "delete", t.Kind, t.ID, t.Name)
	return t, nil
}

// confirm asks a yes/no question on stderr. It refuses to guess when stdin
// is not a terminal.
func confirm(prompt string) (bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false, clierr.New(clierr.ConfirmationReq,
			"cannot prompt for confirmation (not a terminal); use --yes")
	}
	fmt.Fprintf(os.Stderr, "%s [y/N] ", prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, _ := reader.ReadString('\n')
	answer = strings.TrimSpace(strings.ToLower(answer))
	if answer != "y" && answer != "yes" {
		fmt.Fprintln(os.Stderr, "Canceled.")
		return false, nil
	}
	return true, nil
}

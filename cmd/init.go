package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/tasktracker/internal/clierr"
	"github.com/twiced-technology-gmbh/tasktracker/internal/config"
	"github.com/twiced-technology-gmbh/tasktracker/internal/output"
	"github.com/twiced-technology-gmbh/tasktracker/internal/task"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new task store",
	Long:  `Creates a tracker directory with config.yml. The data file is created on the first change.`,
	RunE:  runInit,
}

func init() {
	initCmd.Flags().String("name", "", "store name (defaults to current directory name)")
	initCmd.Flags().String("data-file", "", "data file path, relative to the tracker directory")
	initCmd.Flags().String("addr", "", "listen address for serve")
	initCmd.Flags().String("default-status", "", "status for new records (NEW, IN_PROGRESS, DONE)")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, _ []string) error {
	dir := flagDir
	if dir == "" {
		dir = config.DefaultDir
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}

	if _, err := os.Stat(filepath.Join(absDir, config.ConfigFileName)); err == nil {
		return clierr.Newf(clierr.StoreAlreadyExists, "task store already initialized in %s", absDir).
			WithDetails(map[string]any{"dir": absDir})
	}

	name, _ := cmd.Flags().GetString("name")
	if name == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting working directory: %w", err)
		}
		name = filepath.Base(cwd)
	}

	cfg := config.NewDefault(name)
	cfg.SetDir(absDir)

	if v, _ := cmd.Flags().GetString("data-file"); v != "" {
		cfg.DataFile = v
	}
	if v, _ := cmd.Flags().GetString("addr"); v != "" {
		cfg.Server.Addr = v
	}
	if v, _ := cmd.Flags().GetString("default-status"); v != "" {
		st, err := task.ParseStatus(v)
		if err != nil {
			return err
		}
		cfg.Defaults.Status = st
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	const dirMode = 0o750
	if err := os.MkdirAll(absDir, dirMode); err != nil {
		return fmt.Errorf("creating tracker directory: %w", err)
	}
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]string{
			"status": "initialized",
			"dir":    absDir,
			"name":   name,
			"config": cfg.ConfigPath(),
			"data":   cfg.DataPath(),
		})
	}

	output.Messagef(os.Stdout, "Initialized task store %q in %s", name, absDir)
	output.Messagef(os.Stdout, "  Config: %s", cfg.ConfigPath())
	output.Messagef(os.Stdout, "  Data:   %s", cfg.DataPath())
	return nil
}

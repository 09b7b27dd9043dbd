package cmd

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/tasktracker/internal/filestore"
	"github.com/twiced-technology-gmbh/tasktracker/internal/mcpserver"
	"github.com/twiced-technology-gmbh/tasktracker/internal/task"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the store to agents over MCP (stdio)",
	Long: `Runs a Model Context Protocol server on stdin/stdout so that coding agents
can list, create, update and delete records. Changes are saved to the data file;
each call holds the store lock and sees edits made by other commands.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := openStore(cfg)
	if err != nil {
		return err
	}

	logger := log.New(os.Stderr, "tasktracker: ", log.LstdFlags)
	shared := filestore.NewShared(s, cfg.LockPath(), func(err error) {
		logger.Printf("refreshing store: %v", err)
	})
	srv := mcpserver.NewServer(shared, cfg.Name, version, func(action string, kind task.Kind, id int) {
		logActivity(cfg, action, kind, id, "mcp")
	})
	return mcpserver.Serve(srv)
}

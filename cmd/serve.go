package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/tasktracker/internal/api"
	"github.com/twiced-technology-gmbh/tasktracker/internal/filestore"
	"github.com/twiced-technology-gmbh/tasktracker/internal/task"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the store over HTTP",
	Long: `Starts the HTTP API on the configured address (server.addr).

Every request holds the store lock and first picks up changes other commands
made to the data file, so the CLI and the server can be used side by side.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := openStore(cfg)
	if err != nil {
		return err
	}

	addr := cfg.Server.Addr
	if v, _ := cmd.Flags().GetString("addr"); v != "" {
		addr = v
	}

	logger := log.New(os.Stderr, "tasktracker: ", log.LstdFlags)
	logger.Printf("serving %s (%d records)", cfg.DataPath(), len(s.Snapshot()))

	shared := filestore.NewShared(s, cfg.LockPath(), func(err error) {
		logger.Printf("refreshing store: %v", err)
	})
	srv := api.New(shared,
		api.WithLogger(logger),
		api.WithMutationHook(func(action string, kind task.Kind, id int) {
			logActivity(cfg, action, kind, id, "api")
		}),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return srv.Run(ctx, addr)
}

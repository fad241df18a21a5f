package cli

import (
	"context"
	"fmt"

	"github.com/glorpus-work/gamekeep/internal/logger"
	"github.com/glorpus-work/gamekeep/pkg/guard"
	"github.com/glorpus-work/gamekeep/pkg/server"
	"github.com/spf13/cobra"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the engine behind the UI bridge",
		Long: `Serve the HTTP and websocket bridge a front end uses to trigger
operations and follow their progress. On interrupt the process waits for
active operations to finish before exiting.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), address)
		},
	}

	cmd.Flags().StringVar(&address, "listen", "", "Listen address (defaults to config)")

	return cmd
}

func runServe(ctx context.Context, address string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if address == "" {
		address = cfg.Settings.ListenAddress
	}

	rt, err := newRuntime(cfg)
	if err != nil {
		return err
	}

	engineCtx, stopEngine := context.WithCancel(context.Background())
	defer stopEngine()
	unregister := rt.engine.Register(engineCtx, rt.bus)
	defer unregister()

	srv := server.New(rt.bus, rt.engine, rt.store)

	serveCtx, stopServe := context.WithCancel(context.Background())
	defer stopServe()
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(serveCtx, address) }()

	exited := make(chan struct{})
	shutdown := guard.NewShutdownHandler(rt.engine.Guard(), nil, func() { close(exited) })

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	if !shutdown.RequestExit(context.Background()) {
		logger.Info("Waiting for active operations", logger.Fields{"operations": rt.engine.Guard().ActiveIDs()})
		<-exited
	}
	stopServe()
	unregister()
	rt.engine.Close()

	if err := <-errCh; err != nil {
		return fmt.Errorf("bridge stopped: %w", err)
	}
	return nil
}

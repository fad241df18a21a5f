package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/glorpus-work/gamekeep/internal/cli"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}

	cancel()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gamekeep",
		Short: "Install, update, repair and preload game builds",
		Long: `gamekeep keeps versioned game installs current with:
- CLI: install, update, repair, preload
- Bridge: serve the engine to a front end over HTTP and websocket
- Store: track installs and the manifests they follow`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default: auto-detect)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	cli.ConfigPath = &configPath
	cli.Verbose = &verbose

	cmd.AddCommand(
		cli.NewInstallCmd(),
		cli.NewUpdateCmd(),
		cli.NewRepairCmd(),
		cli.NewPreloadCmd(),
		cli.NewServeCmd(),
		cli.NewInstallsCmd(),
		cli.NewManifestsCmd(),
		cli.NewStagingCmd(),
		cli.NewConfigCmd(),
		cli.NewVersionCmd(),
	)

	return cmd
}

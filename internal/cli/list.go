package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/glorpus-work/gamekeep/internal/logger"
	"github.com/glorpus-work/gamekeep/pkg/errors"
	"github.com/glorpus-work/gamekeep/pkg/manifest"
	"github.com/glorpus-work/gamekeep/pkg/model"
	"github.com/glorpus-work/gamekeep/pkg/store"
	"github.com/spf13/cobra"
)

// NewInstallsCmd creates the installs command with subcommands.
func NewInstallsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "installs",
		Short: "Manage tracked installs",
		Long:  "Add, remove and list the game installs gamekeep operates on",
	}

	cmd.AddCommand(
		newInstallsAddCmd(),
		newInstallsListCmd(),
		newInstallsRemoveCmd(),
	)

	return cmd
}

func newInstallsAddCmd() *cobra.Command {
	var inst model.Install

	cmd := &cobra.Command{
		Use:   "add ID DIRECTORY",
		Short: "Track a new install",
		Long: `Track a game install. DIRECTORY is where the game lives or will be
installed; it is made absolute before it is stored.`,
		Args: cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			inst.ID = args[0]
			inst.Directory = args[1]
			return runInstallsAdd(inst)
		},
	}

	cmd.Flags().StringVar(&inst.ManifestID, "manifest", "", "Manifest record the install follows")
	cmd.Flags().StringVar(&inst.Version, "version", "", "Installed version, empty when not installed yet")
	cmd.Flags().StringVar(&inst.Name, "name", "", "Display name")
	cmd.Flags().BoolVar(&inst.SkipHashValidation, "skip-hash", false, "Skip hash validation of existing files")
	cmd.Flags().BoolVar(&inst.SkipVersionUpdate, "skip-version-update", false, "Keep the recorded version after updates")
	_ = cmd.MarkFlagRequired("manifest")

	return cmd
}

func runInstallsAdd(inst model.Install) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	dir, err := filepath.Abs(inst.Directory)
	if err != nil {
		return fmt.Errorf("%w: %w", errors.ErrInvalidPath, err)
	}
	inst.Directory = dir
	if inst.Name == "" {
		inst.Name = inst.ID
	}

	if _, err := st.GetManifestByID(inst.ManifestID); err != nil {
		return err
	}
	if err := st.AddInstall(inst); err != nil {
		return err
	}

	logger.Success("Install added", logger.Fields{"id": inst.ID, "directory": inst.Directory})
	return nil
}

func newInstallsListCmd() *cobra.Command {
	var nameFilter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tracked installs",
		Long: `List every tracked install with its version and directory.
Use --name to filter installs by name.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInstallsList(cmd, nameFilter)
		},
	}

	cmd.Flags().StringVar(&nameFilter, "name", "", "Filter installs by name (partial match)")

	return cmd
}

func runInstallsList(cmd *cobra.Command, nameFilter string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	var installs []model.Install
	for _, inst := range st.ListInstalls() {
		if nameFilter == "" || strings.Contains(strings.ToLower(inst.Name), strings.ToLower(nameFilter)) {
			installs = append(installs, inst)
		}
	}

	out := cmd.OutOrStdout()
	if len(installs) == 0 {
		_, _ = fmt.Fprintln(out, "No installs tracked")
		return nil
	}

	loader := manifest.NewLoader(cfg.GetManifestsDir())
	_, _ = fmt.Fprintf(out, "%-20s %-*s %-12s %-12s %s\n", "ID", MaxNameLength, "NAME", "VERSION", "UPDATE", "DIRECTORY")
	_, _ = fmt.Fprintln(out, strings.Repeat("-", 113))
	for _, inst := range installs {
		version := inst.Version
		if version == "" {
			version = "-"
		}
		_, _ = fmt.Fprintf(out, "%-20s %-*s %-12s %-12s %s\n",
			inst.ID, MaxNameLength, truncate(inst.Name, MaxNameLength), version, availableUpdate(st, loader, inst), inst.Directory)
	}

	return nil
}

func newInstallsRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove ID",
		Short: "Stop tracking an install",
		Long:  "Remove an install from the store. Game files are left on disk.",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runInstallsRemove(args[0])
		},
	}
}

func runInstallsRemove(id string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	removed, err := st.RemoveInstall(id)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("%w: %s", errors.ErrInstallNotFound, id)
	}

	logger.Success("Install removed", logger.Fields{"id": id})
	return nil
}

// availableUpdate returns the version an update would move inst to, or "-".
func availableUpdate(st *store.Store, loader *manifest.Loader, inst model.Install) string {
	if inst.Version == "" {
		return "-"
	}
	rec, err := st.GetManifestByID(inst.ManifestID)
	if err != nil {
		return "-"
	}
	gm, err := loader.LoadGameManifest(rec.Filename)
	if err != nil {
		logger.Debug("Manifest unavailable", logger.Fields{"id": inst.ID, "error": err})
		return "?"
	}
	if !gm.UpdateAvailable(inst.Version) {
		return "-"
	}
	return gm.LatestVersion
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

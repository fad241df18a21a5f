package cli

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/glorpus-work/gamekeep/internal/logger"
	"github.com/glorpus-work/gamekeep/pkg/errors"
	"github.com/glorpus-work/gamekeep/pkg/fsutil"
	"github.com/glorpus-work/gamekeep/pkg/model"
	"github.com/glorpus-work/gamekeep/pkg/postprocess"
	"github.com/spf13/cobra"
)

// NewStagingCmd creates the staging command with subcommands.
func NewStagingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "staging",
		Short: "Inspect staged patches",
		Long:  "Show and clean the patching directories preloads and diff updates stage into",
	}

	cmd.AddCommand(
		newStagingInfoCmd(),
		newStagingCleanCmd(),
	)

	return cmd
}

func newStagingInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show staged data per install",
		RunE:  runStagingInfo,
	}
}

func newStagingCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean INSTALL_ID",
		Short: "Discard the staged data of an install",
		Long: `Remove the patching directory of an install, including a staged
preload. The next update downloads its diffs again.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runStagingClean(args[0])
		},
	}
}

type stagingInfo struct {
	install model.Install
	preload bool
	size    uint64
	files   int
}

func inspectStaging(inst model.Install) (stagingInfo, error) {
	info := stagingInfo{install: inst}
	dir := postprocess.PatchingDir(inst.Directory)

	err := filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if d.Name() == postprocess.MarkerName {
			info.preload = true
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		info.size += uint64(fi.Size())
		info.files++
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return info, err
	}
	return info, nil
}

func runStagingInfo(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "%-20s %-8s %-10s %s\n", "INSTALL", "PRELOAD", "SIZE", "FILES")
	_, _ = fmt.Fprintln(out, strings.Repeat("-", 50))
	for _, inst := range st.ListInstalls() {
		info, err := inspectStaging(inst)
		if err != nil {
			logger.Warn("Failed to inspect staging directory", logger.Fields{"install": inst.ID, "error": err})
			continue
		}
		if info.files == 0 && !info.preload {
			continue
		}
		preload := "no"
		if info.preload {
			preload = "yes"
		}
		_, _ = fmt.Fprintf(out, "%-20s %-8s %-10s %d\n", inst.ID, preload, humanize.Bytes(info.size), info.files)
	}
	return nil
}

func runStagingClean(id string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	inst, err := st.GetInstallByID(id)
	if err != nil {
		return err
	}
	if !filepath.IsAbs(inst.Directory) {
		return fmt.Errorf("%w: %s", errors.ErrInvalidPath, inst.Directory)
	}

	empty, err := fsutil.IsEmptyDir(postprocess.PatchingDir(inst.Directory))
	if os.IsNotExist(err) || (err == nil && empty) {
		_ = postprocess.RemovePatchingDir(inst.Directory)
		logger.Info("Nothing staged", logger.Fields{"install": id})
		return nil
	}

	info, err := inspectStaging(*inst)
	if err != nil {
		return err
	}
	if err := postprocess.RemovePatchingDir(inst.Directory); err != nil {
		return fmt.Errorf("failed to remove staging directory: %w", err)
	}

	logger.Success("Staging cleaned", logger.Fields{"install": id, "freed": humanize.Bytes(info.size)})
	return nil
}

package cli

import (
	"fmt"
	"strconv"

	"github.com/glorpus-work/gamekeep/pkg/model"
	"github.com/spf13/cobra"
)

type operationFlags struct {
	biz    string
	lang   string
	region string
	latest bool
}

// NewInstallCmd creates the install command.
func NewInstallCmd() *cobra.Command {
	return newOperationCmd(model.OpInstall, "Install a game",
		`Download and extract a game into the install's directory.
The version is the latest one listed by the install's manifest.`)
}

// NewUpdateCmd creates the update command.
func NewUpdateCmd() *cobra.Command {
	return newOperationCmd(model.OpUpdate, "Update an installed game",
		`Bring an install to the latest version, applying a staged preload
when one is present.`)
}

// NewRepairCmd creates the repair command.
func NewRepairCmd() *cobra.Command {
	return newOperationCmd(model.OpRepair, "Repair an installed game",
		`Re-verify and re-download the files of the installed version.`)
}

// NewPreloadCmd creates the preload command.
func NewPreloadCmd() *cobra.Command {
	return newOperationCmd(model.OpPreload, "Preload the next game version",
		`Stage the diffs of an announced version so the next update only
has to apply them.`)
}

func newOperationCmd(kind model.OperationKind, short, long string) *cobra.Command {
	var flags operationFlags

	cmd := &cobra.Command{
		Use:   string(kind) + " INSTALL_ID",
		Short: short,
		Long:  long,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOperation(cmd, kind, args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.biz, "biz", "", "Business id used to pick the manifest entry")
	cmd.Flags().StringVar(&flags.lang, "lang", "", "Audio language to fetch")
	cmd.Flags().StringVar(&flags.region, "region", "", "Region code for filtered downloads")
	cmd.Flags().BoolVar(&flags.latest, "latest", false, "Target the latest version")

	return cmd
}

func (f operationFlags) payload(installID string) model.DownloadPayload {
	p := model.DownloadPayload{
		Install: installID,
		Biz:     f.biz,
		Lang:    f.lang,
		Region:  f.region,
	}
	if f.latest {
		latest := strconv.FormatBool(true)
		p.IsLatest = &latest
	}
	return p
}

func runOperation(cmd *cobra.Command, kind model.OperationKind, installID string, flags operationFlags) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	rt, err := newRuntime(cfg)
	if err != nil {
		return err
	}

	r := newRenderer(cmd.OutOrStdout(), kind)
	detach := r.attach(rt.bus)
	defer detach()

	if err := rt.engine.Run(cmd.Context(), kind, flags.payload(installID)); err != nil {
		return fmt.Errorf("%s %s: %w", kind, installID, err)
	}
	return nil
}

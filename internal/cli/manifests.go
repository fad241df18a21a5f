package cli

import (
	"fmt"
	"strings"

	"github.com/glorpus-work/gamekeep/internal/logger"
	"github.com/glorpus-work/gamekeep/pkg/manifest"
	"github.com/glorpus-work/gamekeep/pkg/model"
	"github.com/spf13/cobra"
)

// NewManifestsCmd creates the manifests command with subcommands.
func NewManifestsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "manifests",
		Short: "Manage manifest records",
		Long:  "Register and list the game manifest documents installs point at",
	}

	cmd.AddCommand(
		newManifestsAddCmd(),
		newManifestsListCmd(),
	)

	return cmd
}

func newManifestsAddCmd() *cobra.Command {
	var rec model.ManifestRecord

	cmd := &cobra.Command{
		Use:   "add ID FILENAME",
		Short: "Register a manifest document",
		Long: `Register FILENAME, relative to the manifests directory, under ID.
The document is parsed first so broken manifests are rejected early.`,
		Args: cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			rec.ID = args[0]
			rec.Filename = args[1]
			rec.Enabled = true
			return runManifestsAdd(rec)
		},
	}

	cmd.Flags().StringVar(&rec.DisplayName, "name", "", "Display name")

	return cmd
}

func runManifestsAdd(rec model.ManifestRecord) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	gm, err := manifest.NewLoader(cfg.GetManifestsDir()).LoadGameManifest(rec.Filename)
	if err != nil {
		return err
	}
	if rec.DisplayName == "" {
		rec.DisplayName = gm.DisplayName
	}

	if err := st.PutManifest(rec); err != nil {
		return err
	}

	logger.Success("Manifest registered", logger.Fields{"id": rec.ID, "versions": len(gm.GameVersions)})
	return nil
}

func newManifestsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List manifest records",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			st, err := openStore(cfg)
			if err != nil {
				return err
			}

			loader := manifest.NewLoader(cfg.GetManifestsDir())
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "%-20s %-30s %-30s %s\n", "ID", "FILENAME", "NAME", "VERSIONS")
			_, _ = fmt.Fprintln(out, strings.Repeat("-", 100))
			for _, rec := range st.ListManifests() {
				versions := "unavailable"
				if gm, err := loader.LoadGameManifest(rec.Filename); err == nil {
					versions = strings.Join(gm.VersionsDescending(), ", ")
				}
				_, _ = fmt.Fprintf(out, "%-20s %-30s %-30s %s\n", rec.ID, rec.Filename, rec.DisplayName, versions)
			}
			return nil
		},
	}
}

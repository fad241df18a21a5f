package cli

import (
	"fmt"
	"path/filepath"

	"github.com/glorpus-work/gamekeep/internal/logger"
	"github.com/glorpus-work/gamekeep/pkg/backend"
	"github.com/glorpus-work/gamekeep/pkg/config"
	"github.com/glorpus-work/gamekeep/pkg/events"
	"github.com/glorpus-work/gamekeep/pkg/manifest"
	"github.com/glorpus-work/gamekeep/pkg/orchestrator"
	"github.com/glorpus-work/gamekeep/pkg/postprocess"
	"github.com/glorpus-work/gamekeep/pkg/store"
	"github.com/glorpus-work/gamekeep/pkg/transfer/archive"
	"github.com/glorpus-work/gamekeep/pkg/transfer/raw"
	"github.com/glorpus-work/gamekeep/pkg/transfer/sophon"
)

// These variables will be set by the main package
var (
	ConfigPath *string
	Verbose    *bool
)

// loadConfig loads the configuration, applies the global flags and
// initializes logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(getConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if Verbose != nil && *Verbose {
		cfg.Settings.LogLevel = "debug"
	}
	logger.InitLogger(cfg.Settings.LogLevel, logger.OutputFormat(cfg.Settings.LogFormat))
	return cfg, nil
}

func openStore(cfg *config.Config) (*store.Store, error) {
	path, err := filepath.Abs(cfg.GetStorePath())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve store path: %w", err)
	}
	return store.Open(path)
}

// runtime is the wired engine with its collaborators.
type runtime struct {
	cfg    *config.Config
	store  *store.Store
	bus    *events.Bus
	engine *orchestrator.Engine
}

func newRuntime(cfg *config.Config) (*runtime, error) {
	st, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	s := cfg.Settings
	files := archive.NewDownloader(archive.Options{
		Concurrency:  s.FileConcurrency,
		Timeout:      s.HTTPTimeout,
		UserAgent:    s.UserAgent,
		TickInterval: s.ProgressInterval,
	})
	chunks := sophon.NewDownloader(sophon.Options{
		Concurrency: s.ChunkConcurrency,
		Retries:     s.ChunkRetries,
		Timeout:     s.HTTPTimeout,
		UserAgent:   s.UserAgent,
	})
	resources := raw.NewDownloader(files, s.HTTPTimeout, s.UserAgent)
	patcher := postprocess.NewPatcher(cfg.GetPatcherDir())

	bus := events.NewBus()
	engine := orchestrator.New(orchestrator.Deps{
		Store:     st,
		Loader:    manifest.NewLoader(cfg.GetManifestsDir()),
		Publisher: bus,
		Notifier:  events.NewNotifier(bus),
		Dialog:    events.NewDialog(bus),
		Backends: backend.NewDispatcher(
			backend.NewFileBackend(files, postprocess.NewExtractor(), cfg.RegionFiltered),
			backend.NewChunkBackend(chunks, patcher),
			backend.NewRawBackend(resources, patcher, postprocess.NewFixups(cfg.GetFixupsDir())),
		),
		Hooks: orchestrator.Hooks{OnEvent: func(e orchestrator.Event) {
			logger.Debug("Operation state", logger.Fields{"op": e.ID, "state": e.State, "msg": e.Msg})
		}},
	})

	return &runtime{cfg: cfg, store: st, bus: bus, engine: engine}, nil
}

// Command ragpipe ingests documents into pipelines and searches them.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/custodia-labs/ragpipe/internal/adapters/driven/ai"
	"github.com/custodia-labs/ragpipe/internal/adapters/driven/config/env"
	"github.com/custodia-labs/ragpipe/internal/adapters/driven/config/file"
	"github.com/custodia-labs/ragpipe/internal/adapters/driven/eventbus"
	"github.com/custodia-labs/ragpipe/internal/adapters/driven/filestore/local"
	"github.com/custodia-labs/ragpipe/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/ragpipe/internal/adapters/driving/cli"
	"github.com/custodia-labs/ragpipe/internal/core/domain"
	"github.com/custodia-labs/ragpipe/internal/core/services"
	"github.com/custodia-labs/ragpipe/internal/logger"
	"github.com/custodia-labs/ragpipe/internal/normalisers"
	"github.com/custodia-labs/ragpipe/internal/postprocessors"
)

// version is set at build time with -ldflags "-X main.version=...".
var version string

func main() {
	os.Exit(run())
}

func run() int {
	if err := env.Load("."); err != nil {
		logger.Warn("%v", err)
	}

	configStore, err := file.NewConfigStore("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open configuration: %v\n", err)
		return 1
	}
	settingsService := services.NewSettingsService(configStore, services.LookupEnv(env.OS()))

	// Fall back to defaults so 'config' can still repair invalid values.
	settings, err := settingsService.Get()
	if err != nil {
		logger.Warn("Using default settings: %v", err)
		defaults := domain.DefaultAppSettings()
		settings = &defaults
	}

	store, err := sqlite.NewStore(settings.Storage.DataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open database: %v\n", err)
		return 1
	}
	defer store.Close()

	files, err := local.New(settings.Storage.UploadDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open upload directory: %v\n", err)
		return 1
	}

	ctx := context.Background()
	bus, err := eventbus.New(ctx, settings.Events)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to start event bus: %v\n", err)
		return 1
	}
	defer bus.Close()

	embedder := ai.NewRegistry(func() (domain.EmbeddingSettings, error) {
		current, err := settingsService.Get()
		if err != nil {
			return domain.EmbeddingSettings{}, err
		}
		return current.Embedding, nil
	})
	registry := normalisers.NewDefaultRegistry()

	processor := services.NewDocumentProcessor(
		store.DocumentStore(), store.MetricStore(), store.ActivityStore(),
		files, registry, postprocessors.NewChunker, embedder, bus,
	)
	defer processor.Wait()

	sweeper := services.NewSweeper(store.DocumentStore(), store.PipelineStore(), processor, settings.Worker.SweepInterval)

	cli.SetServices(cli.Services{
		Pipelines: services.NewPipelineService(
			store.PipelineStore(), store.DocumentStore(), store.MetricStore(), store.ActivityStore(), files, sweeper,
		),
		Documents: services.NewDocumentService(
			store.PipelineStore(), store.DocumentStore(), store.ActivityStore(),
			files, registry, processor, bus, settings.Upload.MaxBytes,
		),
		Processor: processor,
		Search:    services.NewSearchService(store.PassageSearcher(), store.PipelineStore(), embedder),
		Dashboard: services.NewDashboardService(store.StatsStore(), store.ActivityStore()),
		Settings:  settingsService,
		Models:    services.NewModelService(ai.ModelCatalog, embedder),
		Events:    bus,
		Sweeper:   sweeper,
	})
	cli.SetVersion(version)

	return cli.Execute()
}

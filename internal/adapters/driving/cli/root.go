// Package cli provides the ragpipe command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driven"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driving"
	"github.com/custodia-labs/ragpipe/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// verbose enables debug logging for every command.
var verbose bool

// Sweeper runs the pending document sweep in the background.
type Sweeper interface {
	Start(ctx context.Context) error
	Stop()
	SweepOnce(ctx context.Context) (int, error)
}

// Services groups the ports the commands depend on.
type Services struct {
	Pipelines driving.PipelineService
	Documents driving.DocumentService
	Processor driving.DocumentProcessor
	Search    driving.SearchService
	Dashboard driving.DashboardService
	Settings  driving.SettingsService
	Models    ModelLister
	Events    driven.EventBus
	Sweeper   Sweeper
}

// ModelLister lists the embedding model catalog and the active provider.
type ModelLister interface {
	driving.ModelCatalog
	Providers() []domain.AIProvider
	Active() (name, defaultModel string)
}

// Service instances, set by SetServices before Execute.
var (
	pipelineService   driving.PipelineService
	documentService   driving.DocumentService
	documentProcessor driving.DocumentProcessor
	searchService     driving.SearchService
	dashboardService  driving.DashboardService
	settingsService   driving.SettingsService
	modelService      ModelLister
	eventBus          driven.EventBus
	sweeper           Sweeper
)

var rootCmd = &cobra.Command{
	Use:   "ragpipe",
	Short: "Document ingestion and semantic search pipelines",
	Long: `ragpipe turns uploaded documents into embedded passages and answers
natural-language queries with the most relevant ones.

Create a pipeline, upload documents into it, start it, then search.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// SetServices injects the services used by the commands.
func SetServices(s Services) {
	pipelineService = s.Pipelines
	documentService = s.Documents
	documentProcessor = s.Processor
	searchService = s.Search
	dashboardService = s.Dashboard
	settingsService = s.Settings
	modelService = s.Models
	eventBus = s.Events
	sweeper = s.Sweeper
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", friendlyError(err))
		return 1
	}
	return 0
}

// friendlyError maps domain sentinels to operator-facing hints.
func friendlyError(err error) string {
	switch {
	case errors.Is(err, domain.ErrProviderNotConfigured):
		return err.Error() + "\nSet OPENAI_API_KEY or VOYAGE_API_KEY, or run 'ragpipe config set-key <provider>'."
	case errors.Is(err, domain.ErrNotFound):
		return err.Error() + "\nUse the matching 'list' command to see valid IDs."
	case errors.Is(err, domain.ErrUnsupportedType):
		return err.Error() + "\nSupported types: " + supportedTypesHint()
	default:
		return err.Error()
	}
}

func supportedTypesHint() string {
	if documentService == nil {
		return "text/plain, text/markdown, application/pdf, application/json"
	}
	return strings.Join(documentService.SupportedMIMETypes(), ", ")
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragpipe/internal/adapters/driving/watcher"
)

var (
	watchPatterns []string
	watchExisting bool
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch [pipeline-id] [directory]",
	Short: "Upload files dropped into a directory",
	Long: `Watches a directory and uploads every file created or changed there
into the pipeline. Subdirectories are not watched.`,
	Args: cobra.ExactArgs(2),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringSliceVar(&watchPatterns, "pattern", nil, "only upload file names matching these patterns")
	watchCmd.Flags().BoolVar(&watchExisting, "existing", false, "also upload files already in the directory")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watcher.DefaultDebounce, "quiet period before a changed file is uploaded")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	pipelineID, dir := args[0], args[1]
	if pipelineService != nil {
		if _, err := pipelineService.Get(context.Background(), pipelineID); err != nil {
			return fmt.Errorf("failed to get pipeline: %w", err)
		}
	}

	out := &lockedPrinter{cmd: cmd}
	opts := []watcher.Option{
		watcher.WithDebounce(watchDebounce),
		watcher.WithPatterns(watchPatterns...),
		watcher.WithResults(func(r watcher.Result) {
			if r.Err != nil {
				out.Printf("%s %v\n", styles.Error.Render("failed"), r.Err)
				return
			}
			out.Printf("Uploaded %s as %s (%s)\n", r.Document.Name, r.Document.ID, statusBadge(string(r.Document.Status)))
		}),
	}
	if watchExisting {
		opts = append(opts, watcher.WithExisting())
	}

	w, err := watcher.New(dir, pipelineID, documentService, opts...)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out.Printf("Watching %s. Press Ctrl+C to stop.\n", dir)
	err = w.Run(ctx)
	waitForProcessing()

	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("watch stopped: %w", err)
	}
	return nil
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragpipe/internal/logger"
)

var workerOnce bool

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Process pending documents in the background",
	Long: `Periodically picks up pending documents of active pipelines and
processes them. Runs until interrupted; in-flight documents finish first.`,
	Args: cobra.NoArgs,
	RunE: runWorker,
}

func init() {
	workerCmd.Flags().BoolVar(&workerOnce, "once", false, "sweep once, wait for processing, and exit")
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, _ []string) error {
	if sweeper == nil {
		return errors.New("sweeper not configured")
	}

	if workerOnce {
		started, err := sweeper.SweepOnce(context.Background())
		if err != nil {
			return fmt.Errorf("sweep failed: %w", err)
		}
		waitForProcessing()
		cmd.Printf("Processed %d pending documents.\n", started)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.Println("Worker running. Press Ctrl+C to stop.")
	err := sweeper.Start(ctx)

	logger.Info("Waiting for in-flight documents")
	waitForProcessing()

	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("worker stopped: %w", err)
	}
	cmd.Println("Worker stopped.")
	return nil
}

func waitForProcessing() {
	if documentProcessor != nil {
		documentProcessor.Wait()
	}
}

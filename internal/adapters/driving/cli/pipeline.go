package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
)

var pipelineCmd = &cobra.Command{
	Use:     "pipeline",
	Aliases: []string{"pipelines"},
	Short:   "Manage pipelines",
	Long:    `Create, inspect, update, start, stop, or delete document pipelines.`,
}

var pipelineCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a paused pipeline",
	Args:  cobra.ExactArgs(1),
	RunE:  runPipelineCreate,
}

var pipelineListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pipelines",
	Args:  cobra.NoArgs,
	RunE:  runPipelineList,
}

var pipelineGetCmd = &cobra.Command{
	Use:   "get [pipeline-id]",
	Short: "Show pipeline details",
	Args:  cobra.ExactArgs(1),
	RunE:  runPipelineGet,
}

var pipelineUpdateCmd = &cobra.Command{
	Use:   "update [pipeline-id]",
	Short: "Update a pipeline",
	Long:  `Updates only the fields whose flags are given.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runPipelineUpdate,
}

var pipelineDeleteCmd = &cobra.Command{
	Use:   "delete [pipeline-id]",
	Short: "Delete a pipeline with its documents and passages",
	Args:  cobra.ExactArgs(1),
	RunE:  runPipelineDelete,
}

var pipelineStartCmd = &cobra.Command{
	Use:   "start [pipeline-id]",
	Short: "Activate a pipeline and process its pending documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runPipelineStart,
}

var pipelineStopCmd = &cobra.Command{
	Use:   "stop [pipeline-id]",
	Short: "Pause a pipeline",
	Args:  cobra.ExactArgs(1),
	RunE:  runPipelineStop,
}

var pipelineMetricsCmd = &cobra.Command{
	Use:   "metrics [pipeline-id]",
	Short: "Show pipeline metrics",
	Args:  cobra.ExactArgs(1),
	RunE:  runPipelineMetrics,
}

// Flags shared by create and update.
var (
	pipelineDescription string
	pipelineChunkSize   int
	pipelineOverlap     int
	pipelineModel       string
	pipelineSource      string
	pipelineS3Bucket    string
	pipelineS3Prefix    string
	pipelineName        string
	pipelineMetricHours int
)

func init() {
	defaults := domain.DefaultPipelineConfig()

	for _, c := range []*cobra.Command{pipelineCreateCmd, pipelineUpdateCmd} {
		c.Flags().StringVarP(&pipelineDescription, "description", "d", "", "pipeline description")
		c.Flags().IntVar(&pipelineChunkSize, "chunk-size", defaults.ChunkSize, "maximum passage length in characters")
		c.Flags().IntVar(&pipelineOverlap, "chunk-overlap", defaults.ChunkOverlap, "characters shared by consecutive passages")
		c.Flags().StringVarP(&pipelineModel, "model", "m", defaults.EmbeddingModel, "embedding model")
		c.Flags().StringVar(&pipelineSource, "source", string(defaults.SourceType), "document source (file, url, s3)")
		c.Flags().StringVar(&pipelineS3Bucket, "s3-bucket", "", "bucket name for s3 sources")
		c.Flags().StringVar(&pipelineS3Prefix, "s3-prefix", "", "key prefix for s3 sources")
	}
	pipelineUpdateCmd.Flags().StringVar(&pipelineName, "name", "", "new pipeline name")
	pipelineMetricsCmd.Flags().IntVar(&pipelineMetricHours, "hours", 24, "time window in hours")

	pipelineCmd.AddCommand(pipelineCreateCmd)
	pipelineCmd.AddCommand(pipelineListCmd)
	pipelineCmd.AddCommand(pipelineGetCmd)
	pipelineCmd.AddCommand(pipelineUpdateCmd)
	pipelineCmd.AddCommand(pipelineDeleteCmd)
	pipelineCmd.AddCommand(pipelineStartCmd)
	pipelineCmd.AddCommand(pipelineStopCmd)
	pipelineCmd.AddCommand(pipelineMetricsCmd)
	rootCmd.AddCommand(pipelineCmd)
}

func runPipelineCreate(cmd *cobra.Command, args []string) error {
	if pipelineService == nil {
		return errors.New("pipeline service not configured")
	}

	cfg := domain.PipelineConfig{
		ChunkSize:      pipelineChunkSize,
		ChunkOverlap:   pipelineOverlap,
		EmbeddingModel: pipelineModel,
		SourceType:     domain.SourceType(pipelineSource),
		S3Bucket:       pipelineS3Bucket,
		S3Prefix:       pipelineS3Prefix,
	}

	pipeline, err := pipelineService.Create(context.Background(), args[0], pipelineDescription, cfg)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}

	cmd.Printf("Pipeline created: %s\n", pipeline.ID)
	cmd.Printf("  Name:   %s\n", pipeline.Name)
	cmd.Printf("  Status: %s\n", statusBadge(string(pipeline.Status)))
	cmd.Printf("\nRun 'ragpipe pipeline start %s' to process uploads.\n", pipeline.ID)
	return nil
}

func runPipelineList(cmd *cobra.Command, _ []string) error {
	if pipelineService == nil {
		return errors.New("pipeline service not configured")
	}

	pipelines, err := pipelineService.List(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list pipelines: %w", err)
	}

	if len(pipelines) == 0 {
		cmd.Println("No pipelines configured.")
		cmd.Println("Use 'ragpipe pipeline create [name]' to add one.")
		return nil
	}

	cmd.Println("Pipelines:")
	cmd.Println()
	for i := range pipelines {
		p := &pipelines[i]
		cmd.Printf("  %s\n", p.ID)
		cmd.Printf("    Name:      %s\n", p.Name)
		cmd.Printf("    Status:    %s\n", statusBadge(string(p.Status)))
		cmd.Printf("    Documents: %d\n", p.DocumentCount)
		cmd.Println()
	}
	cmd.Printf("Total: %d pipelines\n", len(pipelines))
	return nil
}

func runPipelineGet(cmd *cobra.Command, args []string) error {
	if pipelineService == nil {
		return errors.New("pipeline service not configured")
	}

	pipeline, err := pipelineService.Get(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get pipeline: %w", err)
	}

	printPipeline(cmd, pipeline)
	return nil
}

func printPipeline(cmd *cobra.Command, p *domain.Pipeline) {
	cmd.Printf("Pipeline: %s\n\n", p.ID)
	cmd.Printf("  Name:          %s\n", p.Name)
	if p.Description != "" {
		cmd.Printf("  Description:   %s\n", p.Description)
	}
	cmd.Printf("  Status:        %s\n", statusBadge(string(p.Status)))
	cmd.Printf("  Documents:     %d\n", p.DocumentCount)
	cmd.Printf("  Chunk size:    %d\n", p.Config.ChunkSize)
	cmd.Printf("  Chunk overlap: %d\n", p.Config.ChunkOverlap)
	cmd.Printf("  Model:         %s\n", p.Config.EmbeddingModel)
	cmd.Printf("  Source:        %s\n", p.Config.SourceType)
	if p.Config.SourceType == domain.SourceS3 {
		cmd.Printf("  S3 bucket:     %s\n", p.Config.S3Bucket)
		cmd.Printf("  S3 prefix:     %s\n", p.Config.S3Prefix)
	}
	cmd.Printf("  Created:       %s\n", p.CreatedAt.Format("2006-01-02 15:04:05"))
	cmd.Printf("  Updated:       %s\n", p.UpdatedAt.Format("2006-01-02 15:04:05"))
}

func runPipelineUpdate(cmd *cobra.Command, args []string) error {
	if pipelineService == nil {
		return errors.New("pipeline service not configured")
	}

	update := pipelineUpdateFromFlags(cmd)
	if update.IsEmpty() {
		return errors.New("nothing to update: pass at least one flag")
	}

	pipeline, err := pipelineService.Update(context.Background(), args[0], update)
	if err != nil {
		return fmt.Errorf("failed to update pipeline: %w", err)
	}

	cmd.Println("Pipeline updated.")
	cmd.Println()
	printPipeline(cmd, pipeline)
	return nil
}

// pipelineUpdateFromFlags builds a partial update from the flags that were set.
func pipelineUpdateFromFlags(cmd *cobra.Command) domain.PipelineUpdate {
	var update domain.PipelineUpdate
	flags := cmd.Flags()

	if flags.Changed("name") {
		update.Name = &pipelineName
	}
	if flags.Changed("description") {
		update.Description = &pipelineDescription
	}

	var patch domain.PipelineConfigPatch
	changed := false
	if flags.Changed("chunk-size") {
		patch.ChunkSize = &pipelineChunkSize
		changed = true
	}
	if flags.Changed("chunk-overlap") {
		patch.ChunkOverlap = &pipelineOverlap
		changed = true
	}
	if flags.Changed("model") {
		patch.EmbeddingModel = &pipelineModel
		changed = true
	}
	if flags.Changed("source") {
		source := domain.SourceType(pipelineSource)
		patch.SourceType = &source
		changed = true
	}
	if flags.Changed("s3-bucket") {
		patch.S3Bucket = &pipelineS3Bucket
		changed = true
	}
	if flags.Changed("s3-prefix") {
		patch.S3Prefix = &pipelineS3Prefix
		changed = true
	}
	if changed {
		update.Config = &patch
	}
	return update
}

func runPipelineDelete(cmd *cobra.Command, args []string) error {
	if pipelineService == nil {
		return errors.New("pipeline service not configured")
	}

	if err := pipelineService.Delete(context.Background(), args[0]); err != nil {
		return fmt.Errorf("failed to delete pipeline: %w", err)
	}

	cmd.Printf("Pipeline %s deleted.\n", args[0])
	return nil
}

func runPipelineStart(cmd *cobra.Command, args []string) error {
	if pipelineService == nil {
		return errors.New("pipeline service not configured")
	}

	pipeline, err := pipelineService.Start(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to start pipeline: %w", err)
	}

	cmd.Printf("Pipeline %s is %s.\n", pipeline.Name, statusBadge(string(pipeline.Status)))

	// Pending documents are processed in the background; finish them
	// before the process exits.
	if documentProcessor != nil {
		documentProcessor.Wait()
	}
	return nil
}

func runPipelineStop(cmd *cobra.Command, args []string) error {
	if pipelineService == nil {
		return errors.New("pipeline service not configured")
	}

	pipeline, err := pipelineService.Stop(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to stop pipeline: %w", err)
	}

	cmd.Printf("Pipeline %s is %s.\n", pipeline.Name, statusBadge(string(pipeline.Status)))
	return nil
}

func runPipelineMetrics(cmd *cobra.Command, args []string) error {
	if pipelineService == nil {
		return errors.New("pipeline service not configured")
	}

	metrics, err := pipelineService.Metrics(context.Background(), args[0], pipelineMetricHours)
	if err != nil {
		return fmt.Errorf("failed to get metrics: %w", err)
	}

	cmd.Printf("Metrics for %s (last %dh)\n\n", args[0], pipelineMetricHours)
	printMetricSeries(cmd, "Documents processed", metrics.DocumentsProcessed, "%.0f")
	printMetricSeries(cmd, "Latency (ms)", metrics.AvgLatency, "%.0f")
	printMetricSeries(cmd, "Error rate", metrics.ErrorRate, "%.2f")
	return nil
}

func printMetricSeries(cmd *cobra.Command, title string, points []domain.MetricPoint, format string) {
	cmd.Printf("[%s]\n", title)
	if len(points) == 0 {
		cmd.Println("  (no samples)")
		cmd.Println()
		return
	}

	var sum float64
	for _, p := range points {
		sum += p.Value
	}
	cmd.Printf("  Samples: %d\n", len(points))
	cmd.Printf("  Average: "+format+"\n", sum/float64(len(points)))
	last := points[len(points)-1]
	cmd.Printf("  Last:    "+format+" at %s\n", last.Value, last.Timestamp.Format("2006-01-02 15:04:05"))
	cmd.Println()
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
	"github.com/custodia-labs/ragpipe/internal/logger"
	"github.com/custodia-labs/ragpipe/internal/normalisers"
)

var (
	uploadMIMEType string
	uploadWait     bool
)

var uploadCmd = &cobra.Command{
	Use:   "upload [pipeline-id] [file|pattern]...",
	Short: "Upload documents into a pipeline",
	Long: `Uploads files into a pipeline. Patterns such as "docs/**/*.md" are
expanded before upload. Documents uploaded to an active pipeline are
processed immediately; otherwise they stay pending until the pipeline starts.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVar(&uploadMIMEType, "type", "", "MIME type for every file (default: from extension)")
	uploadCmd.Flags().BoolVarP(&uploadWait, "wait", "w", false, "follow processing until it finishes")
	rootCmd.AddCommand(uploadCmd)
}

// expandUploadPatterns resolves plain paths and glob patterns into a
// sorted, de-duplicated list of regular files.
func expandUploadPatterns(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string

	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, pattern := range patterns {
		if !hasGlobMeta(pattern) {
			info, err := os.Stat(pattern)
			if err != nil {
				return nil, fmt.Errorf("stat %s: %w", pattern, err)
			}
			if info.IsDir() {
				return nil, fmt.Errorf("%s is a directory; use a pattern such as %s", pattern, filepath.Join(pattern, "**", "*"))
			}
			add(pattern)
			continue
		}

		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("expand %s: %w", pattern, err)
		}
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
			add(m)
		}
	}

	sort.Strings(files)
	return files, nil
}

func hasGlobMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

func runUpload(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	pipelineID := args[0]
	files, err := expandUploadPatterns(args[1:])
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return errors.New("no files match the given patterns")
	}

	ctx := context.Background()
	out := &lockedPrinter{cmd: cmd}

	var stopFollowing func()
	if uploadWait && eventBus != nil {
		stopFollowing, err = followPipelineEvents(ctx, out, pipelineID)
		if err != nil {
			logger.Warn("Live updates unavailable: %v", err)
		}
	}

	bar := newUploadBar(cmd, len(files))
	var uploaded []*domain.Document
	var failures int

	for i, path := range files {
		doc, err := uploadFile(ctx, pipelineID, path)
		if bar != nil {
			_ = bar.Set(i + 1)
		}
		if err != nil {
			if len(files) == 1 {
				return fmt.Errorf("failed to upload %s: %w", path, err)
			}
			logger.Warn("Upload of %s failed: %v", path, err)
			failures++
			continue
		}
		uploaded = append(uploaded, doc)
	}

	for _, doc := range uploaded {
		out.Printf("Uploaded %s as %s (%s)\n", doc.Name, doc.ID, statusBadge(string(doc.Status)))
	}

	if uploadWait {
		if documentProcessor != nil {
			documentProcessor.Wait()
		}
		if stopFollowing != nil {
			stopFollowing()
		}
		printFinalStatus(ctx, out, uploaded)
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d uploads failed", failures, len(files))
	}
	return nil
}

func uploadFile(ctx context.Context, pipelineID, path string) (*domain.Document, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path comes from the operator
	if err != nil {
		return nil, err
	}
	defer f.Close()

	mimeType := uploadMIMEType
	if mimeType == "" {
		mimeType = normalisers.DetectMIMEType(path)
	}

	return documentService.Upload(ctx, pipelineID, filepath.Base(path), mimeType, f)
}

// newUploadBar returns a progress bar for multi-file uploads, or nil.
func newUploadBar(cmd *cobra.Command, total int) *progressbar.ProgressBar {
	if total < 2 {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]Uploading[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(cmd.ErrOrStderr())
		}),
	)
}

// followPipelineEvents prints live document events of a pipeline until
// the returned stop function is called.
func followPipelineEvents(ctx context.Context, out *lockedPrinter, pipelineID string) (func(), error) {
	events, cancel, err := eventBus.Subscribe(ctx, domain.PipelineTopic(pipelineID))
	if err != nil {
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range events {
			out.Printf("  %s %s\n", styles.Muted.Render(string(ev.Type)), ev.DocumentID)
		}
	}()

	return func() {
		cancel()
		<-done
	}, nil
}

func printFinalStatus(ctx context.Context, out *lockedPrinter, docs []*domain.Document) {
	for _, doc := range docs {
		current, err := documentService.Get(ctx, doc.ID)
		if err != nil {
			logger.Warn("Could not read status of %s: %v", doc.ID, err)
			continue
		}
		line := fmt.Sprintf("%s: %s", current.Name, statusBadge(string(current.Status)))
		switch {
		case current.ChunkCount != nil:
			line += fmt.Sprintf(" (%d passages)", *current.ChunkCount)
		case current.ErrorMessage != "":
			line += " - " + current.ErrorMessage
		}
		out.Printf("%s\n", line)
	}
}

// lockedPrinter serialises writes from the event follower and the command.
type lockedPrinter struct {
	mu  sync.Mutex
	cmd *cobra.Command
}

func (p *lockedPrinter) Printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.cmd.OutOrStdout(), format, args...)
}

package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
	"github.com/custodia-labs/ragpipe/internal/postprocessors/chunker"
)

var documentCmd = &cobra.Command{
	Use:     "document",
	Aliases: []string{"documents", "doc"},
	Short:   "Manage uploaded documents",
	Long:    `List, view, or delete uploaded documents and their passages.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list [pipeline-id]",
	Short: "List documents, optionally for one pipeline",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDocumentList,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Show document info",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentPassagesCmd = &cobra.Command{
	Use:   "passages [doc-id]",
	Short: "Print a document's passages in order",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentPassages,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document and its passages",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

var documentPendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "Show documents waiting to be processed",
	Long:  `Shows up to 10 pending documents of active pipelines, oldest first.`,
	Args:  cobra.NoArgs,
	RunE:  runDocumentPending,
}

func init() {
	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentPassagesCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	documentCmd.AddCommand(documentPendingCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentList(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	pipelineID := ""
	if len(args) == 1 {
		pipelineID = args[0]
	}

	docs, err := documentService.List(context.Background(), pipelineID)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		if pipelineID != "" {
			cmd.Printf("No documents found for pipeline: %s\n", pipelineID)
		} else {
			cmd.Println("No documents found.")
		}
		return nil
	}

	if pipelineID != "" {
		cmd.Printf("Documents for pipeline %s:\n\n", pipelineID)
	} else {
		cmd.Println("Documents:")
		cmd.Println()
	}
	printDocuments(cmd, docs)
	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func printDocuments(cmd *cobra.Command, docs []domain.Document) {
	for i := range docs {
		d := &docs[i]
		cmd.Printf("  %s\n", d.ID)
		cmd.Printf("    Name:   %s\n", d.Name)
		cmd.Printf("    Status: %s\n", statusBadge(string(d.Status)))
		if d.ChunkCount != nil {
			cmd.Printf("    Chunks: %d\n", *d.ChunkCount)
		}
		if d.ErrorMessage != "" {
			cmd.Printf("    Error:  %s\n", d.ErrorMessage)
		}
		cmd.Println()
	}
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	doc, err := documentService.Get(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  Name:      %s\n", doc.Name)
	cmd.Printf("  Pipeline:  %s\n", doc.PipelineID)
	cmd.Printf("  Type:      %s\n", doc.MimeType)
	cmd.Printf("  Size:      %d bytes\n", doc.Size)
	cmd.Printf("  Status:    %s\n", statusBadge(string(doc.Status)))
	if doc.ChunkCount != nil {
		cmd.Printf("  Chunks:    %d\n", *doc.ChunkCount)
	}
	if doc.ErrorMessage != "" {
		cmd.Printf("  Error:     %s\n", doc.ErrorMessage)
	}
	cmd.Printf("  Uploaded:  %s\n", doc.UploadedAt.Format("2006-01-02 15:04:05"))
	if doc.ProcessedAt != nil {
		cmd.Printf("  Processed: %s\n", doc.ProcessedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func runDocumentPassages(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	passages, err := documentService.Passages(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get passages: %w", err)
	}

	if len(passages) == 0 {
		cmd.Println("No passages. The document may not be processed yet.")
		return nil
	}

	for i := range passages {
		p := &passages[i]
		header := fmt.Sprintf("[%d] chars %v-%v",
			p.ChunkIndex, p.Metadata[chunker.MetaStartChar], p.Metadata[chunker.MetaEndChar])
		cmd.Println(styles.Label.Render(header))
		cmd.Println(p.Content)
		cmd.Println()
	}
	cmd.Printf("Total: %d passages\n", len(passages))
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	if err := documentService.Delete(context.Background(), args[0]); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	cmd.Printf("Document %s deleted.\n", args[0])
	return nil
}

func runDocumentPending(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docs, err := documentService.Pending(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list pending documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No pending documents.")
		return nil
	}

	cmd.Println("Pending documents:")
	cmd.Println()
	printDocuments(cmd, docs)
	return nil
}

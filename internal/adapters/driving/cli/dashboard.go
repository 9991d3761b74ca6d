package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
)

var dashboardLimit int

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Aliases: []string{"status"},
	Short:   "Show totals and recent activity",
	Args:    cobra.NoArgs,
	RunE:    runDashboard,
}

var activityCmd = &cobra.Command{
	Use:   "activity [pipeline-id]",
	Short: "Show the activity feed, optionally for one pipeline",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runActivity,
}

func init() {
	dashboardCmd.Flags().IntVarP(&dashboardLimit, "limit", "n", 10, "number of activity entries")
	activityCmd.Flags().IntVarP(&dashboardLimit, "limit", "n", 10, "number of activity entries")
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(activityCmd)
}

func runDashboard(cmd *cobra.Command, _ []string) error {
	if dashboardService == nil {
		return errors.New("dashboard service not configured")
	}

	ctx := context.Background()
	stats, err := dashboardService.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}

	activity, err := dashboardService.RecentActivity(ctx, dashboardLimit)
	if err != nil {
		return fmt.Errorf("failed to get activity: %w", err)
	}

	cmd.Println(styles.Title.Render("ragpipe"))
	cmd.Println(renderStats(stats))
	cmd.Println()
	cmd.Println(styles.Label.Render("Recent activity"))
	printActivity(cmd, activity)
	return nil
}

// renderStats lays the totals out as a row of bordered panels.
func renderStats(stats *domain.DashboardStats) string {
	panel := func(label, value string) string {
		return styles.Panel.Render(styles.Muted.Render(label) + "\n" + styles.Title.Render(value))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top,
		panel("Pipelines", fmt.Sprintf("%d (%d active)", stats.TotalPipelines, stats.ActivePipelines)),
		panel("Documents", fmt.Sprintf("%d", stats.TotalDocuments)),
		panel("Passages", fmt.Sprintf("%d", stats.TotalPassages)),
		panel("Processed 24h", fmt.Sprintf("%d", stats.DocumentsProcessedToday)),
		panel("Avg latency", fmt.Sprintf("%.0f ms", stats.AvgProcessingTime)),
	)
}

func runActivity(cmd *cobra.Command, args []string) error {
	if dashboardService == nil {
		return errors.New("dashboard service not configured")
	}

	ctx := context.Background()
	var (
		entries []domain.Activity
		err     error
	)
	if len(args) == 1 {
		entries, err = dashboardService.PipelineActivity(ctx, args[0], dashboardLimit)
	} else {
		entries, err = dashboardService.RecentActivity(ctx, dashboardLimit)
	}
	if err != nil {
		return fmt.Errorf("failed to get activity: %w", err)
	}

	printActivity(cmd, entries)
	return nil
}

func printActivity(cmd *cobra.Command, entries []domain.Activity) {
	if len(entries) == 0 {
		cmd.Println("  No activity yet.")
		return
	}
	for i := range entries {
		a := &entries[i]
		kind := strings.ReplaceAll(string(a.Type), "_", " ")
		if a.Type == domain.ActivityError {
			kind = styles.Error.Render(kind)
		} else {
			kind = styles.Muted.Render(kind)
		}
		cmd.Printf("  %s  %s  %s\n", a.Timestamp.Format("2006-01-02 15:04:05"), kind, a.Message)
	}
}

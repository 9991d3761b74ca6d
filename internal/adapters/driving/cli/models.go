package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List embedding models by provider",
	Args:  cobra.NoArgs,
	RunE:  runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

func runModels(cmd *cobra.Command, _ []string) error {
	if modelService == nil {
		return errors.New("model catalog not configured")
	}

	active, defaultModel := modelService.Active()
	if active == "" {
		cmd.Println("Active provider: (not configured)")
	} else {
		cmd.Printf("Active provider: %s (default model %s)\n", active, defaultModel)
	}
	cmd.Println()

	models := modelService.Models()
	for _, provider := range modelService.Providers() {
		marker := ""
		if string(provider) == active {
			marker = " " + styles.Success.Render("*")
		}
		cmd.Printf("[%s]%s %s\n", provider, marker, styles.Muted.Render(provider.Description()))
		for _, m := range models[provider] {
			cmd.Printf("  %-28s %5d dims  %s\n", m.ID, m.Dimension, m.Description)
		}
		cmd.Println()
	}
	return nil
}

package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
)

var configUseProvider bool

var configCmd = &cobra.Command{
	Use:     "config",
	Aliases: []string{"settings"},
	Short:   "View and edit configuration",
	Long: `Shows and edits the configuration file. Environment variables
override file values; 'config show' reports where each value comes from.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective settings and their sources",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print the effective value of a key",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Store a value in the configuration file",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset [key]",
	Short: "Remove a key from the configuration file",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigUnset,
}

var configSetKeyCmd = &cobra.Command{
	Use:   "set-key [openai|voyage|anthropic]",
	Short: "Store a provider API key read from the terminal",
	Long:  `Prompts for an API key without echoing it and stores it in the configuration file.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigSetKey,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

// apiKeySettings maps set-key targets to configuration keys.
var apiKeySettings = map[string]struct {
	key      string
	provider domain.AIProvider
}{
	"openai":    {key: "embedding.openai_api_key", provider: domain.AIProviderOpenAI},
	"voyage":    {key: "embedding.voyage_api_key", provider: domain.AIProviderVoyage},
	"anthropic": {key: "embedding.anthropic_api_key", provider: domain.AIProviderVoyage},
}

func init() {
	configSetKeyCmd.Flags().BoolVar(&configUseProvider, "use", false, "also select this provider")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
	configCmd.AddCommand(configSetKeyCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	entries, err := settingsService.Describe()
	if err != nil {
		return fmt.Errorf("failed to get settings (fix with 'ragpipe config set' or 'ragpipe config unset'): %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")

	section := ""
	for _, e := range entries {
		if s, _, _ := strings.Cut(e.Key, "."); s != section {
			section = s
			cmd.Printf("\n[%s]\n", section)
		}

		value := e.Value
		if value == "" {
			value = styles.Muted.Render("(not set)")
		}
		source := string(e.Source)
		if e.Source == domain.SettingSourceEnv {
			source = "env " + e.Env
		}
		cmd.Printf("  %-32s %s %s\n", e.Key, value, styles.Muted.Render("("+source+")"))
	}
	cmd.Println()
	cmd.Println("Configuration is valid.")
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	entries, err := settingsService.Describe()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	for _, e := range entries {
		if e.Key == args[0] {
			cmd.Println(e.Value)
			return nil
		}
	}
	return fmt.Errorf("%w: unknown key %q", domain.ErrInvalidInput, args[0])
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}

	cmd.Printf("Set %s in %s\n", args[0], settingsService.Path())
	return nil
}

func runConfigUnset(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.Set(args[0], ""); err != nil {
		return fmt.Errorf("failed to unset %s: %w", args[0], err)
	}

	cmd.Printf("Removed %s from %s\n", args[0], settingsService.Path())
	return nil
}

func runConfigSetKey(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	target, ok := apiKeySettings[strings.ToLower(args[0])]
	if !ok {
		return fmt.Errorf("%w: unknown provider %q (use openai, voyage or anthropic)", domain.ErrInvalidInput, args[0])
	}

	cmd.Printf("API key for %s: ", args[0])
	key := readPassword(cmd.InOrStdin())
	cmd.Println()
	if key == "" {
		return errors.New("no key entered")
	}

	if err := settingsService.Set(target.key, key); err != nil {
		return fmt.Errorf("failed to store key: %w", err)
	}
	if configUseProvider {
		if err := settingsService.Set("embedding.provider", string(target.provider)); err != nil {
			return fmt.Errorf("failed to select provider: %w", err)
		}
	}

	cmd.Printf("Stored %s (%s) in %s\n", target.key, maskAPIKey(key), settingsService.Path())
	return nil
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	cmd.Println(settingsService.Path())
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword(in io.Reader) string {
	// Try to read password without echo
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(in)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

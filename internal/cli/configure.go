package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hollis/cradle/internal/config"
)

var (
	configureAPIKey   string
	configureEmail    string
	configurePassword string
	configureTimezone string
	configurePort     int
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Write the configuration file",
	Long: `Write the Cradle configuration file from flags.
Secrets can also be provided at runtime through CRADLE_ environment
variables instead of being stored on disk.`,
	RunE: runConfigure,
}

func init() {
	configureCmd.Flags().StringVar(&configureAPIKey, "anthropic-api-key", "", "Anthropic API key")
	configureCmd.Flags().StringVar(&configureEmail, "huckleberry-email", "", "Huckleberry account email")
	configureCmd.Flags().StringVar(&configurePassword, "huckleberry-password", "", "Huckleberry account password")
	configureCmd.Flags().StringVar(&configureTimezone, "timezone", "", "IANA timezone for the household")
	configureCmd.Flags().IntVar(&configurePort, "port", 0, "HTTP listen port")
	rootCmd.AddCommand(configureCmd)
}

func runConfigure(cmd *cobra.Command, args []string) error {
	loader := config.NewLoader(cfgFile)

	// Start from the existing file when present so configure is additive.
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load existing config: %w", err)
	}

	if configureAPIKey != "" {
		cfg.Anthropic.APIKey = configureAPIKey
	}
	if configureEmail != "" {
		cfg.Huckleberry.Email = configureEmail
	}
	if configurePassword != "" {
		cfg.Huckleberry.Password = configurePassword
	}
	if configureTimezone != "" {
		cfg.Huckleberry.Timezone = configureTimezone
	}
	if configurePort != 0 {
		cfg.Server.Port = configurePort
	}

	if err := loader.Save(cfg); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Printf("Configuration saved to: %s\n", loader.GetConfigPath())
	fmt.Println("You can now start Cradle with: cradle start")

	return nil
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/facturaIA/invoice-ai-service/api"
	"github.com/facturaIA/invoice-ai-service/internal/config"
)

var (
	cfgFile string
	cfg     *config.Config
	version = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "invoice-ai",
	Short: "Invoicing API with AI-assisted data entry",
	Long: `invoice-ai serves the invoicing HTTP API: accounts, invoice CRUD,
PDF export and AI assistance for extracting invoices from free text,
drafting payment reminders and summarizing the dashboard.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "invoice-ai %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(calcCmd)
	rootCmd.AddCommand(versionCmd)
}

func SetVersion(v string) {
	version = v
	api.Version = v
}

func Execute() error {
	return rootCmd.Execute()
}

func Root() *cobra.Command {
	return rootCmd
}

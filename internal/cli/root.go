package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfg    *Config
	client *Client
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "moonfall",
		Short: "CLI tool for the Moonfall API",
		Long: `moonfall is a CLI tool for playing and moderating Moonfall games through
the JSON API.

Creating or joining a game stores the session in the session file so later
commands act on that game without repeating the code and token.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load token and game from file if not provided via flag/env
			if err := cfg.LoadSession(); err != nil {
				return err
			}

			// Create HTTP client
			client = NewClient(cfg.ServerURL, cfg.Token)
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL (env: MOONFALL_SERVER)")
	rootCmd.PersistentFlags().StringVar(&cfg.Token, "token", cfg.Token, "Session token (env: MOONFALL_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&cfg.GameCode, "game", cfg.GameCode, "Game code (env: MOONFALL_GAME)")
	rootCmd.PersistentFlags().StringVar(&cfg.SessionFile, "session-file", cfg.SessionFile, "Session file path (env: MOONFALL_SESSION_FILE)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output")

	// Add subcommands
	rootCmd.AddCommand(newLobbyCmd())
	rootCmd.AddCommand(newBotsCmd())
	rootCmd.AddCommand(newGameCmd())
	rootCmd.AddCommand(newVoteCmd())
	rootCmd.AddCommand(newPowerCmd())
	rootCmd.AddCommand(newShopCmd())
	rootCmd.AddCommand(newEventsCmd())
	rootCmd.AddCommand(newCatalogCmd())
	rootCmd.AddCommand(newHealthCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

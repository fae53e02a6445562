package cli

import (
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pezhmanazar/phoenix-admin/internal/config"
	"github.com/pezhmanazar/phoenix-admin/internal/observability"
)

// Version is overridden at build time.
var Version = "dev"

type Dependencies struct {
	Profile *config.Profile
	Logger  *zap.Logger
	// Show prints the refreshed ticket thread after a successful reply.
	Show bool
}

func NewRootCmd(deps *Dependencies) *cobra.Command {
	var (
		configPath string
		baseURL    string
		verbose    bool
	)

	rootCmd := &cobra.Command{
		Use:           "phoenix-reply",
		Short:         "Reply to Phoenix support tickets",
		Long:          "Compose and send admin replies to Phoenix support tickets: plain text, a file attachment, or a recorded voice message.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			profile, err := config.LoadProfile(configPath)
			if err != nil {
				return err
			}
			if baseURL != "" {
				profile.BaseURL = strings.TrimRight(baseURL, "/")
			}
			if verbose {
				profile.Logger.Level = "debug"
			}
			logger, err := observability.NewLogger(profile.Logger)
			if err != nil {
				return err
			}
			deps.Profile = profile
			deps.Logger = logger
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Profile file (default $XDG_CONFIG_HOME/phoenix/config.toml)")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Admin API base URL, e.g. https://admin.example.com/api")
	rootCmd.PersistentFlags().BoolVar(&deps.Show, "show", false, "Print the ticket thread after sending")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging on stderr")

	rootCmd.AddCommand(NewTextCmd(deps))
	rootCmd.AddCommand(NewFileCmd(deps))
	rootCmd.AddCommand(NewVoiceCmd(deps))
	rootCmd.AddCommand(NewShowCmd(deps))

	return rootCmd
}

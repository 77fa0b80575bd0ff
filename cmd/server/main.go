package main

import (
	"os"

	applog "github.com/fardannozami/wa-session-gateway/internal/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		applog.Base().Error().Err(err).Msg("exit")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:           "wa-gateway",
		Short:         "Multi-session WhatsApp gateway",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configFile, "config", os.Getenv("CONFIG_FILE"), "optional YAML config file")

	serve := newServeCmd(&configFile)
	root.AddCommand(serve, newUsersCmd(&configFile))
	root.RunE = serve.RunE

	return root
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"authrelay/internal/config"
)

func main() {
	var envFile string

	rootCmd := &cobra.Command{
		Use:   "auth-relay",
		Short: "Cookie-based auth relay with an edge guard",
		Long: `auth-relay sits in front of a web frontend and an identity API.

It relays login, register, logout and session calls to the identity API,
owns the accessToken/refreshToken cookies, and guards page navigations:
protected pages require a session, sign-in pages require its absence, and
an expired access token is refreshed transparently when a refresh token exists.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "load configuration from this env file instead of .env")

	loadConfig := func() (*config.Config, error) {
		if envFile != "" {
			return config.LoadFile(envFile)
		}
		return config.Load(), nil
	}

	rootCmd.AddCommand(
		serveCmd(loadConfig),
		sessionCmd(),
		classifyCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

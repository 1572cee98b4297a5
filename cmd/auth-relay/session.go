package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/spf13/cobra"

	"authrelay/internal/authclient"
	"authrelay/internal/domain"
)

func sessionCmd() *cobra.Command {
	var (
		relayURL     string
		path         string
		accessToken  string
		refreshToken string
		timeout      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "session",
		Short: "Synchronize auth state against a running relay and print it",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := authclient.New(relayURL)
			if err != nil {
				return err
			}

			base, _ := url.Parse(relayURL)
			var seed []*http.Cookie
			if accessToken != "" {
				seed = append(seed, &http.Cookie{Name: domain.AccessTokenCookie, Value: accessToken, Path: "/"})
			}
			if refreshToken != "" {
				seed = append(seed, &http.Cookie{Name: domain.RefreshTokenCookie, Value: refreshToken, Path: "/"})
			}
			client.Jar().SetCookies(base, seed)

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			st, syncErr := client.Sync(ctx, path)

			out := map[string]any{
				"status": st.Status.String(),
				"path":   st.Path,
				"user":   st.User,
			}
			if syncErr != nil {
				out["error"] = authclient.Message(syncErr)
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(out); err != nil {
				return err
			}
			if syncErr != nil {
				return fmt.Errorf("session sync failed: %w", syncErr)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&relayURL, "relay", "http://localhost:8080", "relay base URL")
	cmd.Flags().StringVar(&path, "path", "/", "navigation path the sync is for")
	cmd.Flags().StringVar(&accessToken, "access-token", "", "accessToken cookie value")
	cmd.Flags().StringVar(&refreshToken, "refresh-token", "", "refreshToken cookie value")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "overall timeout")

	return cmd
}

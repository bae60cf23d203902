package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/naestech/newNoise/internal/server"
	"github.com/naestech/newNoise/internal/services"
	"github.com/naestech/newNoise/internal/shared"
	"github.com/urfave/cli/v3"
)

const defaultAuthTimeout = 2 * time.Minute

// Auth performs the OAuth2 authorization code flow for Spotify.
//
// Starts a local HTTP server on the redirect address, opens the browser for consent, and
// saves the exchanged token to the config file.
func (r *Runner) Auth(ctx context.Context, cmd *cli.Command) error {
	creds := r.config.Credentials.Spotify
	svc, err := services.NewSpotifyService(creds.Map(), services.WithLogger(r.logger))
	if err != nil {
		return fmt.Errorf("%w: set client_id and client_secret in %s", err, r.configPathOrDefault())
	}

	state, err := shared.GenerateState()
	if err != nil {
		return fmt.Errorf("failed to generate state token: %w", err)
	}

	addr, err := r.callbackAddr()
	if err != nil {
		return err
	}

	handler := server.NewOAuthHandler(svc, state)
	authURL := svc.GetAuthURL(state)

	results := make(chan error, 1)
	go func() {
		_, err := server.AwaitToken(ctx, addr, handler, cmd.Duration("timeout"), r.logger)
		results <- err
	}()

	if cmd.Bool("no-browser") {
		r.writePlain("Open this URL in your browser:\n%s\n\n", authURL)
	} else {
		r.writePlain("→ Opening browser for Spotify authorization...\n")
		if err := shared.OpenBrowser(authURL); err != nil {
			r.logger.Warnf("failed to open browser automatically %v", err)
			r.writePlainln("⚠ Could not open browser automatically.")
			r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
		}
	}

	r.writePlain("→ Waiting for authorization (%s timeout)...\n", cmd.Duration("timeout"))
	if err := <-results; err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	token, err := svc.Token()
	if err != nil {
		return err
	}
	if err := r.saveTokens(token); err != nil {
		return err
	}

	user, err := svc.CurrentUserID(ctx)
	if err != nil {
		r.logger.Warn("authorized but could not read the current user", "error", err)
	}

	r.writePlainln("✓ Authorization successful")
	if user != "" {
		r.writePlain("✓ Connected as %s\n", user)
	}
	r.writePlain("✓ Tokens saved to %s\n", r.configPathOrDefault())
	return nil
}

// callbackAddr is the host and port of the redirect URI, falling back to the server section.
func (r *Runner) callbackAddr() (string, error) {
	redirect := r.config.Credentials.Spotify.RedirectURI
	if redirect == "" {
		return fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port), nil
	}

	u, err := url.Parse(redirect)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("%w: redirect_uri %q", shared.ErrInvalidConfig, redirect)
	}
	return u.Host, nil
}

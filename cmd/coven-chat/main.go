// ABOUTME: Entry point for coven-chat, a terminal client for the conversation backend
// ABOUTME: Loads config and identity, then runs the interactive chat, list or export command

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/2389/coven-chat/internal/backend"
	"github.com/2389/coven-chat/internal/config"
	"github.com/2389/coven-chat/internal/identity"
)

// app holds what every command needs once config is loaded.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	client *backend.Client
	email  string
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	a := &app{}

	setup := func(cmd *cobra.Command, args []string) error {
		return a.load(cmd.Context(), configPath)
	}

	root := &cobra.Command{
		Use:               "coven-chat",
		Short:             "Chat with the coven conversation backend from the terminal",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), a)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $COVEN_CHAT_CONFIG or $XDG_CONFIG_HOME/coven/chat.yaml)")

	root.AddCommand(
		&cobra.Command{
			Use:   "chat",
			Short: "Start an interactive chat session (default)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runChat(cmd.Context(), a)
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List stored conversations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runList(cmd.Context(), a, cmd.OutOrStdout())
			},
		},
		newExportCmd(a),
	)

	return root
}

// load reads .env, the config file and the identity, and builds the backend client.
func (a *app) load(ctx context.Context, configPath string) error {
	// .env is optional
	_ = godotenv.Load()

	if configPath == "" {
		configPath = config.DefaultPath()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	a.cfg = cfg
	a.logger = setupLogger(cfg.Logging, os.Stderr)
	slog.SetDefault(a.logger)

	email, token, err := resolveIdentity(ctx, cfg.Identity)
	if err != nil {
		return fmt.Errorf("resolving identity: %w", err)
	}
	a.email = email

	a.client = backend.New(backend.Config{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: cfg.Backend.Timeout,
		Token:   token,
	}, a.logger)

	a.logger.Debug("config loaded",
		"path", configPath,
		"backend", cfg.Backend.BaseURL,
		"email", email)
	return nil
}

// resolveIdentity returns the user's email and, when an ID token is
// configured, the token to forward as a bearer credential. A configured
// email takes precedence over the token's email claim.
func resolveIdentity(ctx context.Context, cfg config.IdentityConfig) (email, token string, err error) {
	var tok *identity.IDToken
	switch {
	case cfg.IDTokenFile != "":
		tok = identity.NewIDTokenFile(cfg.IDTokenFile)
	case cfg.IDToken != "":
		tok = identity.NewIDToken(cfg.IDToken)
	}

	var provider identity.Provider = identity.Static(cfg.Email)
	if cfg.Email == "" && tok != nil {
		provider = tok
	}

	email, err = provider.Email(ctx)
	if err != nil {
		return "", "", err
	}
	if tok != nil {
		token, err = tok.Token(ctx)
		if err != nil {
			return "", "", err
		}
	}
	return email, token, nil
}

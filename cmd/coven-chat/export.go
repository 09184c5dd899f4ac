// ABOUTME: Non-interactive commands: list stored conversations and export one as HTML
// ABOUTME: Both read through the sync engine so titles and messages match the chat view

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/2389/coven-chat/internal/backend"
	"github.com/2389/coven-chat/internal/conversation"
	"github.com/2389/coven-chat/internal/transcript"
)

func runList(ctx context.Context, a *app, w io.Writer) error {
	engine := conversation.NewSyncEngine(a.client, a.logger)
	convs, err := engine.LoadConversationList(ctx, a.email)
	if err != nil {
		return fmt.Errorf("listing conversations: %w", err)
	}

	if len(convs) == 0 {
		fmt.Fprintln(w, "No conversations")
		return nil
	}
	for i, c := range convs {
		fmt.Fprintf(w, "%3d  %s  %s\n", i+1, c.Title, color.HiBlackString(backend.StripPrefix(c.ID)))
	}
	return nil
}

func newExportCmd(a *app) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "export <conversation-id>",
		Short: "Export a conversation as an HTML transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if outPath != "" && outPath != "-" {
				f, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("creating output file: %w", err)
				}
				defer f.Close()
				w = f
			}
			return runExport(cmd.Context(), a, backend.WithPrefix(args[0]), w)
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func runExport(ctx context.Context, a *app, id string, w io.Writer) error {
	engine := conversation.NewSyncEngine(a.client, a.logger)

	title := conversation.DefaultTitle(id)
	if convs, err := engine.LoadConversationList(ctx, a.email); err == nil {
		for _, c := range convs {
			if c.ID == id {
				title = c.Title
				break
			}
		}
	}

	msgs, err := engine.LoadConversation(ctx, a.email, id)
	if err != nil {
		return fmt.Errorf("loading conversation: %w", err)
	}
	return transcript.RenderHTML(w, title, msgs, time.Now())
}

package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/localcorpus/ragengine/internal/core"
	"github.com/localcorpus/ragengine/internal/sample"
	"github.com/localcorpus/ragengine/internal/tui"
)

func tuiCmd() *cobra.Command {
	var mode string
	var chat bool

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Launch the interactive browsing terminal UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, _ := cmd.Flags().GetString("db")
			eng, st, err := buildEngine(dbPath)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(exitConfigError)
			}
			defer st.Close()

			if err := sample.SeedIfEmpty(context.Background(), st, eng); err != nil {
				fmt.Fprintln(os.Stderr, "warning: sample seeding failed:", err)
			}

			retrievalMode, err := parseMode(mode)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(exitConfigError)
			}
			chatMode := core.ChatModeSearch
			if chat {
				chatMode = core.ChatModeChat
			}

			m := tui.New(eng, retrievalMode, chatMode)
			p := tea.NewProgram(m, tea.WithAltScreen())
			if _, err := p.Run(); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(exitQueryFailed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "hybrid", "retrieval mode: lexical, semantic, hybrid")
	cmd.Flags().BoolVar(&chat, "chat", false, "generate answers instead of bare retrieval")

	return cmd
}

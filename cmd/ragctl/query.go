package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/localcorpus/ragengine/internal/core"
	"github.com/localcorpus/ragengine/internal/sample"
)

func queryCmd() *cobra.Command {
	var mode string
	var topK int
	var alpha float64
	var alphaSet bool
	var polish bool
	var polishSet bool
	var chat bool

	cmd := &cobra.Command{
		Use:   "query [text]",
		Short: "Run a single retrieval (or chat) query against the corpus",
		Args:  cobra.ExactArgs(1),
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

			req := core.QueryRequest{
				Text:      args[0],
				Mode:      retrievalMode,
				TopK:      topK,
				ChatMode:  chatMode,
				Alpha:     alpha,
				AlphaSet:  alphaSet,
				Polish:    polish,
				PolishSet: polishSet,
			}

			result, err := eng.Query(context.Background(), req)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(exitCodeFor(err, exitQueryFailed))
			}

			if result.HasAnswer {
				fmt.Println(result.GeneratedAnswer)
				fmt.Println()
			}
			for i, c := range result.Citations {
				fmt.Printf("[%d] %s p.%d score=%.3f\n    %s\n", i+1, c.DocName, c.Page, c.Score, c.Text)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "hybrid", "retrieval mode: lexical, semantic, hybrid")
	cmd.Flags().IntVar(&topK, "top-k", 0, "number of results to return (0 = use config default)")
	cmd.Flags().Float64Var(&alpha, "alpha", 0, "hybrid fusion weight override")
	cmd.Flags().BoolVar(&polish, "polish", false, "enable post-generation polish override")
	cmd.Flags().BoolVar(&chat, "chat", false, "generate an answer instead of returning citations only")

	cmd.PreRun = func(cmd *cobra.Command, args []string) {
		alphaSet = cmd.Flags().Changed("alpha")
		polishSet = cmd.Flags().Changed("polish")
	}

	return cmd
}

func parseMode(mode string) (core.RetrievalMode, error) {
	switch mode {
	case "lexical":
		return core.ModeLexical, nil
	case "semantic":
		return core.ModeSemantic, nil
	case "hybrid":
		return core.ModeHybrid, nil
	default:
		return "", fmt.Errorf("unknown retrieval mode %q", mode)
	}
}

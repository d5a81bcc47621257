package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/localcorpus/ragengine/internal/core"
)

func ingestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest [files...]",
		Short: "Ingest one or more documents into the corpus",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, _ := cmd.Flags().GetString("db")
			eng, st, err := buildEngine(dbPath)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(exitConfigError)
			}
			defer st.Close()

			for _, path := range args {
				blob, err := os.ReadFile(path)
				if err != nil {
					fmt.Fprintln(os.Stderr, err)
					os.Exit(exitIngestFailed)
				}
				kind := docKindOf(path)
				doc, err := eng.Ingest(context.Background(), filepath.Base(path), kind, blob, func(frac float64) {
					fmt.Fprintf(os.Stderr, "\r%s: %.0f%%", path, frac*100)
				})
				fmt.Fprintln(os.Stderr)
				if err != nil {
					fmt.Fprintln(os.Stderr, err)
					os.Exit(exitCodeFor(err, exitIngestFailed))
				}
				fmt.Printf("ingested %s (id=%s, chunks indexed)\n", doc.Name, doc.ID)
				if doc.Summary != "" {
					fmt.Printf("  summary: %s\n", doc.Summary)
				}
			}
			return nil
		},
	}
	return cmd
}

func docKindOf(path string) core.DocKind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return core.DocKindPDF
	case ".md":
		return core.DocKindMD
	default:
		return core.DocKindTXT
	}
}

// Command ragctl is the reference CLI spec §6 recommends: ingest/query/
// reset library entry points plus a minimal set of flags, wired as a
// cobra application (grounded on compozy-compozy's cli/root.go subcommand
// tree) rather than the teacher's bare stdlib flag parsing in
// cmd/rag/main.go, since cobra is already a dependency the broader
// example pack reaches for.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Exit codes per spec §6.
const (
	exitOK           = 0
	exitConfigError  = 2
	exitIngestFailed = 3
	exitQueryFailed  = 4
)

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "ragctl",
		Short: "Local retrieval-augmented QA engine",
	}
	root.PersistentFlags().String("db", "ragengine.db", "Path to the object store database file")

	root.AddCommand(ingestCmd(), queryCmd(), resetCmd(), tuiCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitConfigError)
	}
	os.Exit(exitOK)
}

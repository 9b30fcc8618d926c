// Package cli implements the openclaw-mem CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kjaylee/openclaw-mem/internal/config"
	"github.com/kjaylee/openclaw-mem/internal/embedding"
	"github.com/kjaylee/openclaw-mem/internal/indexer"
	"github.com/kjaylee/openclaw-mem/internal/vectordb"
)

var rootFlag string

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "openclaw-mem",
	Short: "Markdown memory with semantic search for AI agents",
	Long: "openclaw-mem indexes a markdown memory workspace into a vector store,\n" +
		"answers semantic queries with progressive disclosure, and mines session\n" +
		"transcripts for observations worth keeping.",
}

func init() {
	RootCmd.PersistentFlags().StringVar(&rootFlag, "root", "", "Workspace root (default: $OPENCLAW_MEM_ROOT or cwd)")
}

func loadConfig() config.Config {
	return config.Load(rootFlag)
}

func openStore(cfg config.Config) (vectordb.Store, error) {
	return vectordb.Open(cfg)
}

func openEmbedder(cfg config.Config) (embedding.Embedder, error) {
	return embedding.New(cfg)
}

// openIndexer wires the store and embedder into an indexer. The returned
// closer shuts down the store.
func openIndexer(cfg config.Config) (*indexer.Indexer, func() error, error) {
	store, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	emb, err := openEmbedder(cfg)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return indexer.New(cfg, store, emb), store.Close, nil
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}

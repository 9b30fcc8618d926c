package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kjaylee/openclaw-mem/internal/config"
	"github.com/kjaylee/openclaw-mem/internal/searcher"
)

var errMissingQuery = errors.New("query required (or use --detail ID)")

func init() {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Semantic search over indexed memory",
		Long: "Search memory with an embedding query. Default output is compact summaries\n" +
			"(progressive disclosure); use --detail ID to expand one result, or --raw for\n" +
			"full content inline.",
		Args: cobra.ArbitraryArgs,
		Run:  runSearch,
	}

	cmd.Flags().IntP("top-k", "k", config.DefaultTopK, "Max results")
	cmd.Flags().StringP("source", "s", "", "Filter by source path substring")
	cmd.Flags().StringP("tag", "t", "", "Filter by observation tag")
	cmd.Flags().Float64("min-score", config.DefaultMinScore, "Drop results scoring below this")
	cmd.Flags().BoolP("raw", "r", false, "Return full chunk content instead of summaries")
	cmd.Flags().Bool("index", false, "Alias for the default summary mode")
	cmd.Flags().String("detail", "", "Fetch full content for one result ID")

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	topK, _ := cmd.Flags().GetInt("top-k")
	source, _ := cmd.Flags().GetString("source")
	tag, _ := cmd.Flags().GetString("tag")
	minScore, _ := cmd.Flags().GetFloat64("min-score")
	raw, _ := cmd.Flags().GetBool("raw")
	detailID, _ := cmd.Flags().GetString("detail")

	cfg := loadConfig()
	store, err := openStore(cfg)
	if err != nil {
		exitErr("open store", err)
	}
	defer store.Close()
	emb, err := openEmbedder(cfg)
	if err != nil {
		exitErr("open embedder", err)
	}

	s := searcher.New(store, emb)

	if detailID != "" {
		result, err := s.GetDetail(cmd.Context(), detailID)
		if err != nil {
			exitErr("get detail", err)
		}
		printJSON(result)
		return
	}

	if len(args) == 0 {
		exitErr("search", errMissingQuery)
	}
	params := searcher.Params{
		Query:    strings.Join(args, " "),
		TopK:     topK,
		Source:   source,
		Tag:      tag,
		MinScore: minScore,
	}

	if raw {
		results, err := s.Search(cmd.Context(), params)
		if err != nil {
			exitErr("search", err)
		}
		printJSON(results)
		return
	}

	summaries, err := s.SearchIndex(cmd.Context(), params)
	if err != nil {
		exitErr("search", err)
	}
	printJSON(summaries)
}

package cli

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/minerva-ai/minerva/internal/engine"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search memories by relevance",
		Long: "Rank memories against a query using embedding similarity plus relevance\n" +
			"boosts. Each result carries a score breakdown by contributing factor.",
		Args: cobra.MinimumNArgs(1),
		Run:  runSearch,
	}

	cmd.Flags().String("context", "", "Current conversation context")
	cmd.Flags().StringSlice("history", nil, "Prior conversation turn, most recent first (repeatable)")
	cmd.Flags().IntP("limit", "l", 0, "Max results (default from config)")
	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	contextText, _ := cmd.Flags().GetString("context")
	history, _ := cmd.Flags().GetStringSlice("history")
	limit, _ := cmd.Flags().GetInt("limit")

	// The flag takes turns most recent first; the engine wants them in
	// conversation order.
	slices.Reverse(history)

	cfg := loadConfig()
	store := openStore(cfg)
	defer store.Close()

	eng := newRetrieval(cfg, store)
	results, err := eng.Search(cmd.Context(), strings.Join(args, " "), engine.SearchRequest{
		Context:    contextText,
		History:    history,
		MaxResults: limit,
	})
	if err != nil {
		exitErr("search", err)
	}

	if len(results) == 0 {
		fmt.Println("[]")
		return
	}

	b, _ := json.MarshalIndent(results, "", "  ")
	fmt.Println(string(b))
}

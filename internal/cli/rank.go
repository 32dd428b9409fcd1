package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/minerva-ai/minerva/internal/storage"
)

func init() {
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank memories by retention score",
		Long: "Score every memory independent of any query: importance, recency,\n" +
			"frequency, age, and context alignment. Expired memories score 0.",
		Run: runRank,
	}

	cmd.Flags().String("context", "", "Context reference for the context factor")
	cmd.Flags().IntP("limit", "l", 10, "Max results")
	RootCmd.AddCommand(cmd)
}

func runRank(cmd *cobra.Command, args []string) {
	contextRef, _ := cmd.Flags().GetString("context")
	limit, _ := cmd.Flags().GetInt("limit")

	cfg := loadConfig()
	store := openStore(cfg)
	defer store.Close()

	all, err := store.Search(cmd.Context(), storage.SearchFilter{MaxResults: 1 << 20})
	if err != nil {
		exitErr("list memories", err)
	}

	ranked := newRanker(cfg).Rank(all, contextRef, limit, time.Now())
	if len(ranked) == 0 {
		fmt.Println("[]")
		return
	}

	b, _ := json.MarshalIndent(ranked, "", "  ")
	fmt.Println(string(b))
}

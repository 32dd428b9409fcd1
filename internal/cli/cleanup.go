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
		Use:   "cleanup",
		Short: "List or delete low-priority memories",
		Long: "Identify memories whose retention score fell below the cleanup\n" +
			"threshold. Expired memories always qualify. Dry-run by default.",
		Run: runCleanup,
	}

	cmd.Flags().Bool("apply", false, "Delete the candidates instead of listing them")
	RootCmd.AddCommand(cmd)
}

func runCleanup(cmd *cobra.Command, args []string) {
	apply, _ := cmd.Flags().GetBool("apply")

	cfg := loadConfig()
	store := openStore(cfg)
	defer store.Close()

	all, err := store.Search(cmd.Context(), storage.SearchFilter{
		MaxResults:     1 << 20,
		IncludeExpired: true,
	})
	if err != nil {
		exitErr("list memories", err)
	}

	ranker := newRanker(cfg)
	candidates := ranker.IdentifyCleanupCandidates(all, time.Now())

	if !apply {
		b, _ := json.MarshalIndent(candidates, "", "  ")
		fmt.Println(string(b))
		fmt.Printf("%d candidates (dry run, use --apply to delete)\n", len(candidates))
		return
	}

	deleted := 0
	for _, candidate := range candidates {
		existed, err := store.Delete(cmd.Context(), candidate.ID)
		if err != nil {
			exitErr("delete candidate", err)
		}
		if existed {
			deleted++
		}
	}
	fmt.Printf("deleted %d of %d candidates\n", deleted, len(candidates))
}

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "suggest [content]",
		Short: "Suggest an importance for content",
		Long:  "Run the importance heuristic over content without storing anything.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSuggest,
	}

	cmd.Flags().String("category", "", "Assumed category")
	cmd.Flags().String("source", "user_explicit", "Assumed provenance")
	RootCmd.AddCommand(cmd)
}

func runSuggest(cmd *cobra.Command, args []string) {
	category, _ := cmd.Flags().GetString("category")
	source, _ := cmd.Flags().GetString("source")

	ranker := newRanker(loadConfig())
	fmt.Println(ranker.SuggestImportance(strings.Join(args, " "), source, category))
}

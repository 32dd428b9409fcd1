package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "rm [id | --query text]",
		Short: "Delete memories",
		Long: "Delete a memory by ID, or every memory whose content matches a query\n" +
			"(normalized substring match; --exact requires full equality).",
		Run: runRm,
	}

	cmd.Flags().String("query", "", "Delete by content match instead of ID")
	cmd.Flags().String("category", "", "Restrict query deletion to a category")
	cmd.Flags().Bool("exact", false, "Require full normalized-content equality")
	RootCmd.AddCommand(cmd)
}

func runRm(cmd *cobra.Command, args []string) {
	query, _ := cmd.Flags().GetString("query")
	category, _ := cmd.Flags().GetString("category")
	exact, _ := cmd.Flags().GetBool("exact")

	if query == "" && len(args) == 0 {
		exitErr("rm", fmt.Errorf("an ID or --query is required"))
	}

	cfg := loadConfig()
	store := openStore(cfg)
	defer store.Close()

	if query != "" {
		deleted, err := store.DeleteByQuery(cmd.Context(), query, category, exact)
		if err != nil {
			exitErr("delete by query", err)
		}
		fmt.Printf("deleted %d\n", deleted)
		return
	}

	id := strings.TrimSpace(args[0])
	existed, err := store.Delete(cmd.Context(), id)
	if err != nil {
		exitErr("delete memory", err)
	}
	if !existed {
		fmt.Println("not found")
		return
	}
	fmt.Println("deleted 1")
}

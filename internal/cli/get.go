package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "get [id]",
		Short: "Retrieve a memory by ID",
		Long:  "Retrieve a single memory. The read counts as an access.",
		Args:  cobra.ExactArgs(1),
		Run:   runGet,
	}
	RootCmd.AddCommand(cmd)
}

func runGet(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	store := openStore(cfg)
	defer store.Close()

	record, err := store.GetByID(cmd.Context(), args[0])
	if err != nil {
		exitErr("get memory", err)
	}

	b, _ := json.MarshalIndent(record, "", "  ")
	fmt.Println(string(b))
}

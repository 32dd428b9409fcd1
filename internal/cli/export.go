package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/minerva-ai/minerva/internal/storage"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Export all memories to a JSON snapshot",
		Long:  "Write every memory, expired included, to a JSON snapshot file.",
		Args:  cobra.ExactArgs(1),
		Run:   runExport,
	}
	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	store := openStore(cfg)
	defer store.Close()

	count, err := storage.WriteSnapshot(cmd.Context(), store, args[0])
	if err != nil {
		exitErr("export", err)
	}
	fmt.Printf("exported %d memories to %s\n", count, args[0])
}

package cli

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/minerva-ai/minerva/internal/importer"
	"github.com/minerva-ai/minerva/internal/storage"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import [path]",
		Short: "Import memories from a snapshot or Markdown notes",
		Long: "Restore memories from a JSON snapshot file, preserving IDs, timestamps,\n" +
			"and access stats. With --markdown, ingest a Markdown file or a directory\n" +
			"of notes instead: each list item or paragraph becomes one memory.\n" +
			"Content that already exists is skipped either way.",
		Args: cobra.ExactArgs(1),
		Run:  runImport,
	}

	cmd.Flags().Bool("markdown", false, "Treat path as Markdown notes instead of a snapshot")
	RootCmd.AddCommand(cmd)
}

func runImport(cmd *cobra.Command, args []string) {
	markdown, _ := cmd.Flags().GetBool("markdown")

	cfg := loadConfig()
	store := openStore(cfg)
	defer store.Close()

	if markdown {
		count, files, err := importMarkdown(cmd.Context(), store, args[0])
		if err != nil {
			exitErr("import markdown", err)
		}
		fmt.Printf("imported %d memories from %d files\n", count, files)
		return
	}

	count, err := storage.RestoreSnapshot(cmd.Context(), store, args[0])
	if err != nil {
		exitErr("import", err)
	}
	fmt.Printf("imported %d memories from %s\n", count, args[0])
}

// importMarkdown ingests one .md file or every .md file under a directory.
func importMarkdown(ctx context.Context, store storage.MemoryStore, path string) (int, int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, 0, err
	}

	var paths []string
	if info.IsDir() {
		err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.EqualFold(filepath.Ext(p), ".md") {
				paths = append(paths, p)
			}
			return nil
		})
		if err != nil {
			return 0, 0, err
		}
	} else {
		paths = []string{path}
	}

	imported := 0
	for _, p := range paths {
		content, err := os.ReadFile(p)
		if err != nil {
			return imported, len(paths), err
		}
		file, err := importer.ParseNoteFile(content)
		if err != nil {
			return imported, len(paths), fmt.Errorf("%s: %w", p, err)
		}
		for _, params := range file.AddParams() {
			before, err := store.Add(ctx, params)
			if err != nil {
				return imported, len(paths), fmt.Errorf("%s: %w", p, err)
			}
			// A brand-new record comes back with the creation access only;
			// a duplicate comes back with a bumped count.
			if before.AccessCount == 1 {
				imported++
			}
		}
	}
	return imported, len(paths), nil
}

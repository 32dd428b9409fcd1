package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/minerva-ai/minerva/internal/storage"
)

func init() {
	cmd := &cobra.Command{
		Use:   "add [content]",
		Short: "Store a memory",
		Long: "Store a memory with optional category, source, importance, and tags.\n" +
			"Content that duplicates an existing memory bumps its access count instead.",
		Args: cobra.MinimumNArgs(1),
		Run:  runAdd,
	}

	cmd.Flags().String("category", "", "Memory category (e.g. preference, fact, temporary)")
	cmd.Flags().String("source", "user_explicit", "Provenance (e.g. user_explicit, conversation_auto)")
	cmd.Flags().Int("importance", 0, "Importance 1-10 (0 = suggest from content)")
	cmd.Flags().Float64("confidence", 0.5, "Confidence 0.0-1.0")
	cmd.Flags().StringSlice("tag", nil, "Tag (repeatable)")
	cmd.Flags().StringToString("context", nil, "Context relevance as key=value (repeatable)")
	cmd.Flags().Duration("ttl", 0, "Expiry relative to now (e.g. 72h; 0 = never)")
	RootCmd.AddCommand(cmd)
}

func runAdd(cmd *cobra.Command, args []string) {
	category, _ := cmd.Flags().GetString("category")
	source, _ := cmd.Flags().GetString("source")
	importance, _ := cmd.Flags().GetInt("importance")
	confidence, _ := cmd.Flags().GetFloat64("confidence")
	tags, _ := cmd.Flags().GetStringSlice("tag")
	contextStrs, _ := cmd.Flags().GetStringToString("context")
	ttl, _ := cmd.Flags().GetDuration("ttl")

	params := storage.AddParams{
		Content:    strings.Join(args, " "),
		Category:   category,
		Source:     source,
		Confidence: &confidence,
		Tags:       tags,
	}
	if importance > 0 {
		params.Importance = &importance
	}
	if ttl > 0 {
		expiry := time.Now().Add(ttl)
		params.ExpiresAt = &expiry
	}
	if len(contextStrs) > 0 {
		params.Contexts = make(map[string]float64, len(contextStrs))
		for key, value := range contextStrs {
			var rel float64
			if _, err := fmt.Sscanf(value, "%f", &rel); err != nil {
				exitErr("parse context relevance", fmt.Errorf("%s=%s: %w", key, value, err))
			}
			params.Contexts[key] = rel
		}
	}

	cfg := loadConfig()
	store := openStore(cfg)
	defer store.Close()

	record, err := store.Add(cmd.Context(), params)
	if err != nil {
		exitErr("add memory", err)
	}

	b, _ := json.MarshalIndent(record, "", "  ")
	fmt.Println(string(b))
}

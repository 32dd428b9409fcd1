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
		Use:   "update [id]",
		Short: "Update fields of a memory",
		Long: "Update only the provided fields. Changing content recomputes the\n" +
			"deduplication hash and invalidates any cached embedding.",
		Args: cobra.ExactArgs(1),
		Run:  runUpdate,
	}

	cmd.Flags().String("content", "", "New content")
	cmd.Flags().String("category", "", "New category")
	cmd.Flags().Int("importance", 0, "New importance 1-10")
	cmd.Flags().Float64("confidence", -1, "New confidence 0.0-1.0")
	cmd.Flags().StringSlice("tag", nil, "Replacement tag list (repeatable)")
	cmd.Flags().Duration("ttl", 0, "New expiry relative to now")
	cmd.Flags().Bool("clear-expiry", false, "Remove the expiry")
	RootCmd.AddCommand(cmd)
}

func runUpdate(cmd *cobra.Command, args []string) {
	var fields storage.UpdateFields

	if cmd.Flags().Changed("content") {
		content, _ := cmd.Flags().GetString("content")
		fields.Content = &content
	}
	if cmd.Flags().Changed("category") {
		category, _ := cmd.Flags().GetString("category")
		fields.Category = &category
	}
	if cmd.Flags().Changed("importance") {
		importance, _ := cmd.Flags().GetInt("importance")
		fields.Importance = &importance
	}
	if cmd.Flags().Changed("confidence") {
		confidence, _ := cmd.Flags().GetFloat64("confidence")
		fields.Confidence = &confidence
	}
	if cmd.Flags().Changed("tag") {
		tags, _ := cmd.Flags().GetStringSlice("tag")
		fields.Tags = &tags
	}
	if cmd.Flags().Changed("ttl") {
		ttl, _ := cmd.Flags().GetDuration("ttl")
		expiry := time.Now().Add(ttl)
		fields.ExpiresAt = &expiry
	}
	fields.ClearExpiry, _ = cmd.Flags().GetBool("clear-expiry")

	if fields.Empty() {
		exitErr("update memory", fmt.Errorf("no fields to update"))
	}

	cfg := loadConfig()
	store := openStore(cfg)
	defer store.Close()

	record, err := store.Update(cmd.Context(), args[0], fields)
	if err != nil {
		exitErr("update memory", err)
	}

	b, _ := json.MarshalIndent(record, "", "  ")
	fmt.Println(string(b))
}

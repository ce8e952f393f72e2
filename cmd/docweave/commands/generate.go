// ABOUTME: Generate command runs the full pipeline for one channel
// ABOUTME: Handles source selection, existing-document lookup, and output
package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/docweave/docweave/internal/config"
	"github.com/docweave/docweave/internal/core"
	"github.com/docweave/docweave/internal/llm"
	"github.com/docweave/docweave/internal/merge"
	"github.com/docweave/docweave/internal/models"
	"github.com/docweave/docweave/internal/source"
)

var (
	generateKind     string
	generateSource   string
	generateChannel  string
	generateDays     int
	generateFormat   string
	generateMerge    string
	generateExisting string
	generateOut      string
	generateDir      string
)

// NewGenerateCmd creates the generate command
func NewGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a document from a channel's conversations",
		Long: `Generate an FAQ, debrief, or glossary from recent conversations.

When a previous version of the document exists (in the archive or via
--existing), the new render is merged with it so hand edits survive.

Examples:
  docweave generate --kind faq --source slack --channel support
  docweave generate --kind debrief --source file --dir ./exports --channel standup --days 1
  docweave generate --kind faq --source slack --channel support --existing docs/faq.md --out docs/faq.md`,
		RunE: runGenerate,
	}

	cmd.Flags().StringVar(&generateKind, "kind", "faq", "Document kind: faq, debrief, or glossary")
	cmd.Flags().StringVar(&generateSource, "source", "", "Conversation source: slack, notion, or file")
	cmd.Flags().StringVar(&generateChannel, "channel", "", "Channel name, page ID, or file base name")
	cmd.Flags().IntVar(&generateDays, "days", 7, "How many days back to fetch")
	cmd.Flags().StringVar(&generateFormat, "format", "markdown", "Output markup: markdown or html")
	cmd.Flags().StringVar(&generateMerge, "merge", "intelligent", "Merge strategy: deterministic or intelligent")
	cmd.Flags().StringVar(&generateExisting, "existing", "", "Path to an existing document to merge with (overrides the archive)")
	cmd.Flags().StringVar(&generateOut, "out", "", "Write the document to this path instead of stdout")
	cmd.Flags().StringVar(&generateDir, "dir", ".", "Directory holding <channel>.json exports (file source only)")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("channel")

	return cmd
}

func runGenerate(cmd *cobra.Command, args []string) error {
	// Load .env for API keys
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	kind, ok := models.ParseDocumentKind(generateKind)
	if !ok {
		return fmt.Errorf("unknown document kind %q (want faq, debrief, or glossary)", generateKind)
	}
	mergeMode, ok := merge.ParseMode(generateMerge)
	if !ok {
		return fmt.Errorf("unknown merge mode %q (want deterministic or intelligent)", generateMerge)
	}
	if generateDays <= 0 {
		return fmt.Errorf("--days must be positive, got %d", generateDays)
	}

	src, err := newSource(cfg, generateSource, generateDir)
	if err != nil {
		return err
	}

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	extractions, err := llm.NewOpenAIClient(cfg, cfg.ChatModel)
	if err != nil {
		return fmt.Errorf("initializing extraction client: %w", err)
	}
	merges, err := llm.NewOpenAIClient(cfg, cfg.MergeModel)
	if err != nil {
		return fmt.Errorf("initializing merge client: %w", err)
	}

	req := core.Request{
		Kind:      kind,
		Source:    src,
		Channel:   generateChannel,
		Window:    source.LastDays(generateDays),
		Format:    generateFormat,
		MergeMode: mergeMode,
	}

	switch {
	case generateExisting != "":
		data, err := os.ReadFile(generateExisting)
		if err != nil {
			return fmt.Errorf("reading existing document: %w", err)
		}
		req.ExistingDoc = string(data)
	default:
		if prev, err := db.GetDocument(kind, generateChannel, generateFormat); err == nil && prev != nil {
			req.ExistingDoc = prev.Body
		}
	}

	pipeline := core.New(cfg, db, extractions, merges)
	summary, err := pipeline.Generate(cmd.Context(), req)
	if err != nil {
		return err
	}

	if generateOut != "" {
		if err := os.WriteFile(generateOut, []byte(summary.Body), 0o644); err != nil {
			return fmt.Errorf("writing document: %w", err)
		}
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), summary.Body)
	}

	if !quiet {
		printSummary(cmd, summary)
	}
	return nil
}

func printSummary(cmd *cobra.Command, s *core.Summary) {
	out := cmd.ErrOrStderr()
	fmt.Fprintf(out, "Threads: %d  Units: %d new, %d already known\n",
		s.ThreadsSeen, s.UnitsExtracted-s.UnitsDeduplicated, s.UnitsDeduplicated)
	if s.Merge != nil {
		fmt.Fprintf(out, "Merge: %s\n", strings.ToLower(string(s.Merge.Status)))
		if s.Merge.Degraded {
			fmt.Fprintf(out, "  intelligent merge fell back: %s\n", s.Merge.Reason)
		}
	}
	if len(s.Failures) > 0 {
		fmt.Fprintf(out, "Warning: %d thread(s) failed extraction:\n", len(s.Failures))
		for _, f := range s.Failures {
			fmt.Fprintf(out, "  %s: %v\n", f.ThreadID, f.Err)
		}
	}
}

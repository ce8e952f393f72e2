// ABOUTME: Units command lists the deduplicated semantic knowledge base
// ABOUTME: Supports kind and category filters over the local store
package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/docweave/docweave/internal/config"
	"github.com/docweave/docweave/internal/models"
	"github.com/docweave/docweave/internal/store"
)

var (
	unitsKind     string
	unitsCategory string
	unitsSince    string
	unitsLimit    int
)

// NewUnitsCmd creates the units command
func NewUnitsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "units",
		Short: "List stored semantic units",
		Long: `List the semantic units accumulated across generation runs.

Examples:
  docweave units
  docweave units --kind qa --category Account
  docweave units --since 2026-08-01 --limit 50`,
		RunE: runUnits,
	}

	cmd.Flags().StringVar(&unitsKind, "kind", "", "Filter by unit kind: qa, insight, or action_item")
	cmd.Flags().StringVar(&unitsCategory, "category", "", "Filter by category (exact match)")
	cmd.Flags().StringVar(&unitsSince, "since", "", "Only units extracted on or after this date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&unitsLimit, "limit", 20, "Maximum number of units to show")

	return cmd
}

func runUnits(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	var filter store.Filter
	if unitsKind != "" {
		kind, ok := models.ParseUnitKind(unitsKind)
		if !ok {
			return fmt.Errorf("unknown unit kind %q (want qa, insight, or action_item)", unitsKind)
		}
		filter.Kind = kind
	}
	filter.Category = unitsCategory
	if unitsSince != "" {
		since, err := time.Parse("2006-01-02", unitsSince)
		if err != nil {
			return fmt.Errorf("parsing --since: %w", err)
		}
		filter.Since = since
	}
	if unitsLimit <= 0 {
		return fmt.Errorf("--limit must be positive, got %d", unitsLimit)
	}

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	units, err := db.ListUnits(filter)
	if err != nil {
		return fmt.Errorf("listing units: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(units) == 0 {
		fmt.Fprintln(out, "No units stored yet. Run 'docweave generate' first.")
		return nil
	}

	total := len(units)
	if total > unitsLimit {
		units = units[:unitsLimit]
	}

	for _, u := range units {
		fmt.Fprintf(out, "%s  %-11s %-16s %s  (%s)\n",
			u.Fingerprint[:12], u.Kind, truncate(u.Category, 16),
			truncate(u.Body(), 60), formatTime(u.ExtractedAt))
	}
	if total > len(units) {
		fmt.Fprintf(out, "... and %d more (raise --limit to see them)\n", total-len(units))
	}
	return nil
}

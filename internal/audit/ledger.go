package audit

import (
	"fmt"
	"log/slog"
	"strings"

	"taxicli/internal/exporter"
	"taxicli/internal/pipeline"
)

// Ledger column layout, matching the excluded_data_log table the
// cleaned dataset is loaded alongside.
var ledgerHeaders = []string{
	"issue_type",
	"trip_identifier",
	"field_name",
	"issue_description",
	"action_taken",
}

const (
	// ledgerIdentifier marks entries as run-level aggregates rather
	// than single-trip records.
	ledgerIdentifier = "bulk_cleaning"
	ledgerAction     = "excluded"
)

// WriteLedger writes one ledger row per rule with a non-zero count, in
// rule order. If no rule rejected anything, no file is produced.
func (r *Reporter) WriteLedger(path string, c *pipeline.Counters) error {
	var records [][]string
	for _, name := range pipeline.RuleNames {
		count := c.Violations(name)
		if count == 0 {
			continue
		}
		records = append(records, []string{
			name,
			ledgerIdentifier,
			fieldNameHint(name),
			r.printer.Sprintf("%d records excluded due to %s", count, strings.ReplaceAll(name, "_", " ")),
			ledgerAction,
		})
	}

	if len(records) == 0 {
		r.logger.Info("No exclusions recorded, skipping ledger")
		return nil
	}

	writer := exporter.NewCSVWriter()
	if err := writer.WriteSimpleCSV(path, ledgerHeaders, records); err != nil {
		return fmt.Errorf("failed to write exclusion ledger: %w", err)
	}

	r.logger.Info("Exclusion ledger written",
		slog.String("path", path),
		slog.Int("entries", len(records)))
	return nil
}

// fieldNameHint is the best-effort field hint for a rule: the first
// token of its name ("negative_fare" -> "negative").
func fieldNameHint(rule string) string {
	if i := strings.Index(rule, "_"); i > 0 {
		return rule[:i]
	}
	return rule
}

// Package audit renders the end-of-run accounting: the plain-text
// cleaning summary and the CSV exclusion ledger.
package audit

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"taxicli/internal/pipeline"
)

const bannerWidth = 70

// Reporter writes the human-readable summary log and the exclusion
// ledger from the frozen run counters.
type Reporter struct {
	logger  *slog.Logger
	printer *message.Printer
	titler  cases.Caser
}

// NewReporter creates a reporter. A nil logger falls back to the default.
func NewReporter(logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{
		logger:  logger,
		printer: message.NewPrinter(language.English),
		titler:  cases.Title(language.English),
	}
}

// WriteSummary writes the cleaning summary log. Only rules with a
// non-zero count are listed; with zero rows scanned every percentage
// is reported as zero.
func (r *Reporter) WriteSummary(path, sourceFile, outputFile string, c *pipeline.Counters) error {
	var b strings.Builder
	banner := strings.Repeat("=", bannerWidth)

	b.WriteString(banner + "\n")
	b.WriteString("NYC TAXI DATA CLEANING LOG\n")
	b.WriteString("City Planning & Urban Mobility Analysis\n")
	b.WriteString(banner + "\n\n")

	b.WriteString(fmt.Sprintf("Source File: %s\n", sourceFile))
	b.WriteString(fmt.Sprintf("Output File: %s\n\n", outputFile))

	b.WriteString(fmt.Sprintf("Total Rows Scanned:    %12s\n", r.group(c.TotalIn)))
	b.WriteString(fmt.Sprintf("Total Rows Kept:       %12s\n", r.group(c.TotalOut)))
	b.WriteString(fmt.Sprintf("Total Rows Excluded:   %12s\n", r.group(c.TotalIn-c.TotalOut)))
	b.WriteString(fmt.Sprintf("Success Rate:          %11.1f%%\n\n", percent(c.TotalOut, c.TotalIn)))

	b.WriteString(banner + "\n")
	b.WriteString("ISSUES FOUND\n")
	b.WriteString(banner + "\n")

	for _, name := range pipeline.RuleNames {
		count := c.Violations(name)
		if count == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("%-30s %10s  (%5.2f%%)\n",
			r.ruleLabel(name), r.group(count), percent(count, c.TotalIn)))
	}

	b.WriteString("\n" + banner + "\n")
	b.WriteString("CLEANING RULES APPLIED\n")
	b.WriteString(banner + "\n")
	b.WriteString("1. Removed empty rows\n")
	b.WriteString("2. Removed rows with missing critical fields\n")
	b.WriteString("3. Removed rows with invalid dates\n")
	b.WriteString("4. Removed duplicate trips\n")
	b.WriteString("5. Distance: Must be 0-100 miles\n")
	b.WriteString("6. Passengers: Must be 1-6\n")
	b.WriteString("7. Fare: Must be $0-$500\n")
	b.WriteString("8. Duration: Must be 0-6 hours\n")
	b.WriteString("9. Speed: Must be 0.5-80 mph\n")
	b.WriteString("10. Locations: Must exist in taxi zone lookup\n")
	b.WriteString("11. Dropoff must be after pickup\n\n")

	b.WriteString("CONGESTION LEVEL LOGIC:\n")
	b.WriteString("  High:   Speed < 10 mph (severe gridlock)\n")
	b.WriteString("  Medium: Speed 10-25 mph (typical urban traffic)\n")
	b.WriteString("  Low:    Speed > 25 mph (free flow)\n")

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write summary log: %w", err)
	}

	r.logger.Info("Summary log written", slog.String("path", path))
	return nil
}

// group renders n with thousands separators.
func (r *Reporter) group(n int64) string {
	return r.printer.Sprintf("%d", n)
}

// ruleLabel turns a rule name into its report label ("empty_rows" ->
// "Empty Rows").
func (r *Reporter) ruleLabel(name string) string {
	return r.titler.String(strings.ReplaceAll(name, "_", " "))
}

func percent(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

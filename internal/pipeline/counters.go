package pipeline

// Counters holds the run-wide exclusion accounting. It is created at
// run start, written only by the single pipeline goroutine, and frozen
// once the reporter takes over. Counts only ever grow.
//
// Removals and violations are tracked separately: removals drive the
// conservation identity TotalIn == TotalOut + TotalRemoved, while the
// reported per-rule counts are violations, which can exceed removals
// for rules that count each failing field on a row.
type Counters struct {
	TotalIn  int64
	TotalOut int64

	removed    map[string]int64
	violations map[string]int64
}

// NewCounters creates zeroed counters for every rule.
func NewCounters() *Counters {
	c := &Counters{
		removed:    make(map[string]int64, len(RuleNames)),
		violations: make(map[string]int64, len(RuleNames)),
	}
	for _, name := range RuleNames {
		c.removed[name] = 0
		c.violations[name] = 0
	}
	return c
}

// Record accumulates one rule application's result.
func (c *Counters) Record(rule string, removed, violations int) {
	c.removed[rule] += int64(removed)
	c.violations[rule] += int64(violations)
}

// Removed returns the number of rows a rule has removed so far.
func (c *Counters) Removed(rule string) int64 {
	return c.removed[rule]
}

// Violations returns the number of violations a rule has counted so far.
func (c *Counters) Violations(rule string) int64 {
	return c.violations[rule]
}

// TotalRemoved sums row removals across all rules.
func (c *Counters) TotalRemoved() int64 {
	var total int64
	for _, name := range RuleNames {
		total += c.removed[name]
	}
	return total
}

// Reconciles reports whether every scanned row is accounted for as
// either kept or removed by exactly one rule.
func (c *Counters) Reconciles() bool {
	return c.TotalIn == c.TotalOut+c.TotalRemoved()
}

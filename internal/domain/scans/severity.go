package scans

import "github.com/bryanwahyu/automaton-diag/internal/domain/dtc"

// CountFindings tallies findings per severity. Informational codes count
// towards the total only.
func CountFindings(findings []Finding) SeverityCounts {
	var c SeverityCounts
	for _, f := range findings {
		switch f.Severity {
		case dtc.SeverityCritical:
			c.Critical++
		case dtc.SeverityHigh:
			c.High++
		case dtc.SeverityMedium:
			c.Medium++
		case dtc.SeverityLow:
			c.Low++
		}
		c.Total++
	}
	return c
}

// StatusFromCounts derives the overall scan status.
func StatusFromCounts(c SeverityCounts) Status {
	switch {
	case c.Critical > 0:
		return StatusFailed
	case c.High > 0 || c.Medium > 0:
		return StatusAttention
	default:
		return StatusPassed
	}
}

package dtc

import (
	"regexp"
	"strings"
)

// System is the vehicle system a trouble code belongs to.
type System string

const (
	SystemPowertrain System = "powertrain"
	SystemChassis    System = "chassis"
	SystemBody       System = "body"
	SystemNetwork    System = "network"
)

// Severity enum
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// FilterKeys are the list filters recognised for the fault code catalog.
var FilterKeys = []string{"code", "system", "severity", "q"}

// CodePattern matches an OBD-II diagnostic trouble code such as P0301.
var CodePattern = regexp.MustCompile(`^[PCBU][0-3][0-9A-F]{3}$`)

// Definition is one entry of the fault code catalog.
type Definition struct {
	Code        string   `json:"code" validate:"required,len=5"`
	Description string   `json:"description" validate:"required,max=255"`
	System      System   `json:"system" validate:"required,oneof=powertrain chassis body network"`
	Severity    Severity `json:"severity" validate:"required,oneof=critical high medium low info"`
}

func (d Definition) Key() string { return d.Code }

// NormalizeCode upper-cases and trims a code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// SystemOf derives the system from the code's first letter.
func SystemOf(code string) System {
	if code == "" {
		return ""
	}
	switch strings.ToUpper(code[:1]) {
	case "P":
		return SystemPowertrain
	case "C":
		return SystemChassis
	case "B":
		return SystemBody
	case "U":
		return SystemNetwork
	}
	return ""
}

// ParseSeverity normalises severity labels used by workshops and the
// diagnostics service. Unknown labels map to info.
func ParseSeverity(s string) Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "critical", "crit", "severe":
		return SeverityCritical
	case "high", "error", "major":
		return SeverityHigh
	case "medium", "moderate", "warning", "warn":
		return SeverityMedium
	case "low", "minor", "note":
		return SeverityLow
	}
	return SeverityInfo
}

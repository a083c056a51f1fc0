package ledger

import "strings"

// Canonical condition grades. Conditions arrive as free-form strings at the
// API boundary; these constants cover the grades the engine itself assigns.
const (
	ConditionNew          = "new"
	ConditionUsed         = "used"
	ConditionRefurbished  = "refurbished"
	ConditionDamaged      = "damaged"
	ConditionDisassembled = "disassembled"
)

// conditionStatus is the single place a condition grade decides a lifecycle
// status. Grades not listed here map to AVAILABLE.
var conditionStatus = map[string]UnitStatus{
	ConditionNew:          StatusAvailable,
	ConditionUsed:         StatusAvailable,
	ConditionRefurbished:  StatusAvailable,
	ConditionDisassembled: StatusAvailable,
	ConditionDamaged:      StatusDamaged,
}

// StatusForCondition returns the lifecycle status a unit receives when it
// enters stock with the given condition grade. Matching is case-insensitive;
// unknown grades default to AVAILABLE.
func StatusForCondition(condition string) UnitStatus {
	if status, ok := conditionStatus[strings.ToLower(strings.TrimSpace(condition))]; ok {
		return status
	}
	return StatusAvailable
}

// NormalizeCondition lowercases and trims a condition grade so lots group
// consistently regardless of caller casing.
func NormalizeCondition(condition string) string {
	c := strings.ToLower(strings.TrimSpace(condition))
	if c == "" {
		return ConditionNew
	}
	return c
}

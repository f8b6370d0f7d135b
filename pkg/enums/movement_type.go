package enums

import (
	"fmt"
	"strings"
)

// MovementType classifies a stock ledger row.
type MovementType string

const (
	MovementTypeIn         MovementType = "IN"
	MovementTypeIssue      MovementType = "ISSUE"
	MovementTypeTransfer   MovementType = "TRANSFER"
	MovementTypeAdjustment MovementType = "ADJUSTMENT"
)

var validMovementTypes = []MovementType{
	MovementTypeIn,
	MovementTypeIssue,
	MovementTypeTransfer,
	MovementTypeAdjustment,
}

// String implements fmt.Stringer.
func (m MovementType) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MovementType.
func (m MovementType) IsValid() bool {
	for _, candidate := range validMovementTypes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMovementType converts raw input into a MovementType. Matching is case
// insensitive.
func ParseMovementType(value string) (MovementType, error) {
	upper := strings.ToUpper(strings.TrimSpace(value))
	for _, candidate := range validMovementTypes {
		if string(candidate) == upper {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid movement type %q", value)
}

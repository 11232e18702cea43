package enums

import "fmt"

// DisputeDecision records how an admin settled a dispute. None until the
// dispute closes.
type DisputeDecision string

const (
	DisputeDecisionNone    DisputeDecision = "none"
	DisputeDecisionRelease DisputeDecision = "release"
	DisputeDecisionRefund  DisputeDecision = "refund"
)

var validDisputeDecisions = []DisputeDecision{
	DisputeDecisionNone,
	DisputeDecisionRelease,
	DisputeDecisionRefund,
}

// String implements fmt.Stringer.
func (d DisputeDecision) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DisputeDecision.
func (d DisputeDecision) IsValid() bool {
	for _, candidate := range validDisputeDecisions {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDisputeDecision converts raw input into a DisputeDecision.
func ParseDisputeDecision(value string) (DisputeDecision, error) {
	for _, candidate := range validDisputeDecisions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid dispute decision %q", value)
}

package enums

import "fmt"

// DealStage describes the pipeline stage of a deal.
type DealStage string

const (
	DealStageLead        DealStage = "lead"
	DealStageQualified   DealStage = "qualified"
	DealStageProposal    DealStage = "proposal"
	DealStageNegotiation DealStage = "negotiation"
	DealStageClosedWon   DealStage = "closed_won"
	DealStageClosedLost  DealStage = "closed_lost"
)

var validDealStages = []DealStage{
	DealStageLead,
	DealStageQualified,
	DealStageProposal,
	DealStageNegotiation,
	DealStageClosedWon,
	DealStageClosedLost,
}

// String implements fmt.Stringer.
func (d DealStage) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DealStage.
func (d DealStage) IsValid() bool {
	for _, candidate := range validDealStages {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDealStage converts the raw string to DealStage.
func ParseDealStage(value string) (DealStage, error) {
	for _, candidate := range validDealStages {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid deal stage %q", value)
}

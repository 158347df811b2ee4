package eligibility

import a "blockballot/modules/aggregate"

type Eligibility interface {
	a.Plugin
	SetStatus(electionID string, contact string, status Status) error
	GetRecord(electionID string, contact string) *EligibilityRecord
	// CountEligible counts records whose status permits voting.
	CountEligible(electionID string) (int64, error)
}

package eligibility

import (
	"blockballot/modules/common"
	eligibilityDb "blockballot/modules/db/ballot/eligibility"
)

// Gate decides whether a contact may vote in an election. Approval is
// written by the admin workflow ahead of time; the gate only reads.
type Gate struct {
	records eligibilityDb.Eligibility
}

func NewGate(records eligibilityDb.Eligibility) *Gate {
	return &Gate{records: records}
}

// Check returns nil when the contact holds a record whose status
// permits voting. A missing record and a denied record are distinct
// failures: the first is unregistered, the second is refused.
func (g *Gate) Check(electionID string, contact string) error {
	record := g.records.GetRecord(electionID, contact)
	if record == nil {
		return common.NotFoundError{Resource: "eligibility record"}
	}
	if !record.Status.CanVote() {
		return common.ForbiddenError{Reason: "voter is not eligible for this election"}
	}
	return nil
}

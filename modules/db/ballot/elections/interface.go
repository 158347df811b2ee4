package elections

import a "blockballot/modules/aggregate"

type Elections interface {
	a.Plugin
	RegisterElection(election Election) error
	GetElection(electionID string) *Election
	GetElectionByCode(code string) *Election
}

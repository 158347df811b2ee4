package voting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"blockballot/lib/logger"
	"blockballot/modules/common"
	electionsDb "blockballot/modules/db/ballot/elections"
	"blockballot/modules/eligibility"
	"blockballot/modules/ledger/client"
	"blockballot/modules/ledger/contract"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

// Voting runs the full gatekeeper pipeline for one ballot: window and
// eligibility checks off-chain, tallying on the ledger, the one-vote
// guarantee in the lock manager.
type Voting struct {
	elections electionsDb.Elections
	gate      *eligibility.Gate
	locks     *LockManager
	ledger    client.LedgerClient
	log       logger.Logger
}

func New(elections electionsDb.Elections, gate *eligibility.Gate, locks *LockManager, ledger client.LedgerClient, log logger.Logger) *Voting {
	return &Voting{
		elections: elections,
		gate:      gate,
		locks:     locks,
		ledger:    ledger,
		log:       log,
	}
}

type CastVoteRequest struct {
	ElectionID string
	VoterID    string
	Votes      []contract.VotePair

	// ContractAddress, when supplied by the caller, must match the
	// election's deployed contract.
	ContractAddress string

	// Legacy single-selection form still sent by older clients.
	Position  string
	Candidate string
}

type CastVoteReceipt struct {
	ElectionID     string    `json:"election_id"`
	VoterID        string    `json:"voter_id"`
	TxHash         string    `json:"tx_hash"`
	VotesProcessed int       `json:"votes_processed"`
	CastAt         time.Time `json:"cast_at"`
}

func (v *Voting) CastVote(ctx context.Context, req CastVoteRequest) (*CastVoteReceipt, error) {
	if req.VoterID == "" {
		return nil, common.ValidationError{Reason: "missing voter identity"}
	}
	votes, err := normalizeVotes(req)
	if err != nil {
		return nil, err
	}

	election := v.elections.GetElection(req.ElectionID)
	if election == nil {
		return nil, common.NotFoundError{Resource: "election"}
	}
	switch election.Status(time.Now()) {
	case electionsDb.StatusDraft:
		return nil, common.ForbiddenError{Reason: "voting has not started"}
	case electionsDb.StatusEnded:
		return nil, common.ForbiddenError{Reason: "voting has ended"}
	}
	if !ethcommon.IsHexAddress(election.ContractAddress) {
		return nil, common.ValidationError{Reason: "election has no deployed contract"}
	}
	if req.ContractAddress != "" && !strings.EqualFold(req.ContractAddress, election.ContractAddress) {
		return nil, common.ValidationError{Reason: "contract address does not match election"}
	}

	if err := v.gate.Check(req.ElectionID, req.VoterID); err != nil {
		return nil, err
	}
	if err := v.locks.Precheck(req.ElectionID, req.VoterID); err != nil {
		return nil, err
	}

	lock, err := v.locks.Acquire(req.ElectionID, req.VoterID)
	if err != nil {
		return nil, err
	}

	txHash, err := v.ledger.CastVotes(ctx, election.ContractAddress, votes)
	if err != nil {
		v.locks.Rollback(lock)
		return nil, err
	}

	if err := v.locks.Finalize(lock, txHash); err != nil {
		return nil, err
	}

	v.log.Debug("vote cast", req.ElectionID, req.VoterID, txHash)
	return &CastVoteReceipt{
		ElectionID:     req.ElectionID,
		VoterID:        req.VoterID,
		TxHash:         txHash,
		VotesProcessed: len(votes),
		CastAt:         time.Now().UTC(),
	}, nil
}

// normalizeVotes folds the legacy single-selection fields into the
// batch form and rejects malformed ballots before any state is touched.
func normalizeVotes(req CastVoteRequest) ([]contract.VotePair, error) {
	votes := req.Votes
	if len(votes) == 0 && (req.Position != "" || req.Candidate != "") {
		votes = []contract.VotePair{{Position: req.Position, Candidate: req.Candidate}}
	}
	if len(votes) == 0 {
		return nil, common.ValidationError{Reason: "no votes submitted"}
	}

	seen := make(map[string]bool, len(votes))
	for _, pair := range votes {
		if pair.Position == "" || pair.Candidate == "" {
			return nil, common.ValidationError{Reason: "vote is missing a position or candidate"}
		}
		if seen[pair.Position] {
			return nil, common.ValidationError{Reason: fmt.Sprintf("duplicate vote for position %s", pair.Position)}
		}
		seen[pair.Position] = true
	}
	return votes, nil
}

package client

import (
	"context"
	"fmt"
	"sync"

	"blockballot/modules/common"
	"blockballot/modules/ledger/contract"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
)

// MockLedgerClient executes contract calls in memory with instant
// confirmation. Deploys and casts go through the real contract state
// machine, so revert reasons match the live ledger.
type MockLedgerClient struct {
	// CastVotesCallback runs before the contract is touched; returning
	// an error aborts the cast. Nil means no hook.
	CastVotesCallback func(contractAddress string, votes []contract.VotePair) error

	mu        sync.Mutex
	submitter ethcommon.Address
	nonce     uint64
	contracts map[string]*contract.BallotContract
}

var _ LedgerClient = &MockLedgerClient{}

func NewMockLedgerClient() *MockLedgerClient {
	return &MockLedgerClient{
		submitter: ethcommon.HexToAddress("0x1000000000000000000000000000000000000001"),
		contracts: make(map[string]*contract.BallotContract),
	}
}

func (m *MockLedgerClient) Deploy(ctx context.Context, positions []contract.PositionSpec) (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ballot, err := contract.NewBallotContract(m.submitter, positions)
	if err != nil {
		return "", "", common.ContractRevertError{Reason: err.Error()}
	}
	addr := crypto.CreateAddress(m.submitter, m.nonce).Hex()
	m.nonce++
	m.contracts[addr] = ballot
	return addr, mockTxHash(), nil
}

func (m *MockLedgerClient) CastVotes(ctx context.Context, contractAddress string, votes []contract.VotePair) (string, error) {
	if !ethcommon.IsHexAddress(contractAddress) {
		return "", common.ValidationError{Reason: fmt.Sprintf("invalid contract address: %s", contractAddress)}
	}
	if m.CastVotesCallback != nil {
		if err := m.CastVotesCallback(contractAddress, votes); err != nil {
			return "", err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ballot, ok := m.contracts[contractAddress]
	if !ok {
		return "", common.NotFoundError{Resource: "contract"}
	}
	if _, err := ballot.CastVotes(m.submitter, votes); err != nil {
		return "", common.ContractRevertError{Reason: err.Error()}
	}
	return mockTxHash(), nil
}

func (m *MockLedgerClient) GetPositionList(ctx context.Context, contractAddress string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ballot, ok := m.contracts[contractAddress]
	if !ok {
		return nil, common.NotFoundError{Resource: "contract"}
	}
	return ballot.PositionList(), nil
}

func (m *MockLedgerClient) GetCandidateList(ctx context.Context, contractAddress string, position string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ballot, ok := m.contracts[contractAddress]
	if !ok {
		return nil, common.NotFoundError{Resource: "contract"}
	}
	return ballot.CandidateList(position)
}

func (m *MockLedgerClient) GetVoteCount(ctx context.Context, contractAddress string, position string, candidate string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ballot, ok := m.contracts[contractAddress]
	if !ok {
		return 0, common.NotFoundError{Resource: "contract"}
	}
	return ballot.VoteCount(position, candidate)
}

func mockTxHash() string {
	return crypto.Keccak256Hash([]byte(uuid.NewString())).Hex()
}

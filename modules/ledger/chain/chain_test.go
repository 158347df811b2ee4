package chain_test

import (
	"testing"

	"blockballot/lib/logger"
	"blockballot/modules/ledger/chain"
	"blockballot/modules/ledger/contract"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
)

var (
	deployer = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	intruder = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
)

func newChain(t *testing.T) *chain.Chain {
	c := chain.New(chain.NewChainConfig(), logger.PrefixedLogger{Prefix: "chain-test"})
	assert.NoError(t, c.Init())
	return c
}

func deployBallot(t *testing.T, c *chain.Chain) common.Address {
	txHash := c.SubmitDeploy(deployer, []contract.PositionSpec{
		{Name: "President", Candidates: []string{"Alice", "Bob"}},
	})

	_, err := c.ProduceBlock()
	assert.NoError(t, err)

	receipt, known := c.GetReceipt(txHash)
	assert.True(t, known)
	assert.NotNil(t, receipt)
	assert.Equal(t, chain.StatusConfirmed, receipt.Status)
	assert.NotEmpty(t, receipt.ContractAddress)
	return common.HexToAddress(receipt.ContractAddress)
}

func TestReceiptLifecycle(t *testing.T) {
	c := newChain(t)

	txHash := c.SubmitDeploy(deployer, []contract.PositionSpec{
		{Name: "President", Candidates: []string{"Alice"}},
	})

	// known but still in the mempool
	receipt, known := c.GetReceipt(txHash)
	assert.True(t, known)
	assert.Nil(t, receipt)

	// never submitted
	_, known = c.GetReceipt("0xdeadbeef")
	assert.False(t, known)

	mined, err := c.ProduceBlock()
	assert.NoError(t, err)
	assert.Equal(t, 1, mined)

	receipt, known = c.GetReceipt(txHash)
	assert.True(t, known)
	assert.NotNil(t, receipt)
	assert.Equal(t, uint64(1), receipt.BlockNumber)
	assert.Equal(t, uint64(1), c.Height())
}

func TestDeployAndCastVotes(t *testing.T) {
	c := newChain(t)
	addr := deployBallot(t, c)

	txHash := c.SubmitCastVotes(deployer, addr, []contract.VotePair{
		{Position: "President", Candidate: "Alice"},
	})
	_, err := c.ProduceBlock()
	assert.NoError(t, err)

	receipt, _ := c.GetReceipt(txHash)
	assert.Equal(t, chain.StatusConfirmed, receipt.Status)
	assert.Len(t, receipt.Events, 1)
	assert.Equal(t, deployer.Hex(), receipt.Events[0].Submitter)

	count, err := c.VoteCount(addr, "President", "Alice")
	assert.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	count, err = c.VoteCount(addr, "President", "Bob")
	assert.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestDeployRevertsOnBadSpec(t *testing.T) {
	c := newChain(t)

	txHash := c.SubmitDeploy(deployer, []contract.PositionSpec{
		{Name: "President", Candidates: nil},
	})
	_, err := c.ProduceBlock()
	assert.NoError(t, err)

	receipt, _ := c.GetReceipt(txHash)
	assert.Equal(t, chain.StatusReverted, receipt.Status)
	assert.Contains(t, receipt.RevertReason, "no candidates")
	assert.Empty(t, receipt.ContractAddress)
}

func TestCastVotesRevertDoesNotTouchTallies(t *testing.T) {
	c := newChain(t)
	addr := deployBallot(t, c)

	txHash := c.SubmitCastVotes(deployer, addr, []contract.VotePair{
		{Position: "President", Candidate: "Alice"},
		{Position: "President", Candidate: "Zorg"},
	})
	_, err := c.ProduceBlock()
	assert.NoError(t, err)

	receipt, _ := c.GetReceipt(txHash)
	assert.Equal(t, chain.StatusReverted, receipt.Status)
	assert.Contains(t, receipt.RevertReason, "unknown candidate")

	count, err := c.VoteCount(addr, "President", "Alice")
	assert.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestCastVotesRevertsForNonSubmitter(t *testing.T) {
	c := newChain(t)
	addr := deployBallot(t, c)

	txHash := c.SubmitCastVotes(intruder, addr, []contract.VotePair{
		{Position: "President", Candidate: "Alice"},
	})
	_, err := c.ProduceBlock()
	assert.NoError(t, err)

	receipt, _ := c.GetReceipt(txHash)
	assert.Equal(t, chain.StatusReverted, receipt.Status)
	assert.Equal(t, "unauthorized submitter", receipt.RevertReason)
}

func TestCastVotesRevertsForUnknownContract(t *testing.T) {
	c := newChain(t)

	txHash := c.SubmitCastVotes(deployer, intruder, []contract.VotePair{
		{Position: "President", Candidate: "Alice"},
	})
	_, err := c.ProduceBlock()
	assert.NoError(t, err)

	receipt, _ := c.GetReceipt(txHash)
	assert.Equal(t, chain.StatusReverted, receipt.Status)
	assert.Contains(t, receipt.RevertReason, "unknown contract")
}

func TestRevertedTxDoesNotHaltBlock(t *testing.T) {
	c := newChain(t)
	addr := deployBallot(t, c)

	bad := c.SubmitCastVotes(intruder, addr, []contract.VotePair{
		{Position: "President", Candidate: "Alice"},
	})
	good := c.SubmitCastVotes(deployer, addr, []contract.VotePair{
		{Position: "President", Candidate: "Bob"},
	})

	mined, err := c.ProduceBlock()
	assert.NoError(t, err)
	assert.Equal(t, 2, mined)

	badReceipt, _ := c.GetReceipt(bad)
	goodReceipt, _ := c.GetReceipt(good)
	assert.Equal(t, chain.StatusReverted, badReceipt.Status)
	assert.Equal(t, chain.StatusConfirmed, goodReceipt.Status)

	count, _ := c.VoteCount(addr, "President", "Bob")
	assert.Equal(t, uint64(1), count)
}

func TestEmptyMempoolProducesNoBlock(t *testing.T) {
	c := newChain(t)

	mined, err := c.ProduceBlock()
	assert.NoError(t, err)
	assert.Equal(t, 0, mined)
	assert.Equal(t, uint64(0), c.Height())
}

func TestStartStop(t *testing.T) {
	c := newChain(t)

	c.Start()
	assert.NoError(t, c.Stop())
	// Stop is idempotent
	assert.NoError(t, c.Stop())
}

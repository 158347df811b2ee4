package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"blockballot/lib/logger"
	a "blockballot/modules/aggregate"
	"blockballot/modules/ledger/contract"

	"github.com/JustinKnueppel/go-result"
	"github.com/chebyrash/promise"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Chain is a single-node ballot ledger. Submitted transactions queue
// in a mempool until the producer loop drains them into the next
// block; execution is strictly ordered, and a transaction that fails
// validation reverts without touching contract state or stopping the
// block.
type Chain struct {
	conf ChainConfig
	log  logger.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.RWMutex
	mempool   []*Transaction
	pending   map[string]bool
	contracts map[common.Address]*contract.BallotContract
	receipts  map[string]*TxReceipt
	blocks    []Block
	nonce     uint64

	stopped      chan struct{}
	stopOnlyOnce sync.Once
}

var _ a.Plugin = &Chain{}

func New(conf ChainConfig, log logger.Logger) *Chain {
	ctx, cancel := context.WithCancel(context.Background())
	return &Chain{
		conf:   conf,
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Init implements aggregate.Plugin.
func (c *Chain) Init() error {
	c.pending = make(map[string]bool)
	c.contracts = make(map[common.Address]*contract.BallotContract)
	c.receipts = make(map[string]*TxReceipt)
	return nil
}

// Start implements aggregate.Plugin. The returned promise settles when
// the producer loop exits.
func (c *Chain) Start() *promise.Promise[any] {
	c.stopped = make(chan struct{})
	go c.produceBlocks()
	return promise.New(func(resolve func(any), reject func(error)) {
		<-c.stopped
		resolve(nil)
	})
}

// Stop implements aggregate.Plugin.
func (c *Chain) Stop() error {
	c.stopOnlyOnce.Do(func() {
		c.cancel()
		if c.stopped != nil {
			<-c.stopped
		}
	})
	return nil
}

func (c *Chain) produceBlocks() {
	defer close(c.stopped)

	interval := time.Duration(c.conf.Get().BlockIntervalMs) * time.Millisecond
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			if _, err := c.ProduceBlock(); err != nil {
				c.log.Error("block production failed", err)
			}
		}
	}
}

// SubmitDeploy queues a contract deployment and returns its tx hash.
// Constructor validation happens at execution; a bad spec reverts on
// the receipt, not here.
func (c *Chain) SubmitDeploy(sender common.Address, specs []contract.PositionSpec) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	tx := &Transaction{
		Kind:      TxDeploy,
		Sender:    sender,
		Positions: specs,
		Nonce:     c.nonce,
	}
	c.enqueue(tx)
	return tx.Hash
}

// SubmitCastVotes queues a vote batch for a deployed contract and
// returns its tx hash.
func (c *Chain) SubmitCastVotes(sender common.Address, contractAddr common.Address, votes []contract.VotePair) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	tx := &Transaction{
		Kind:     TxCastVotes,
		Sender:   sender,
		Contract: contractAddr,
		Votes:    votes,
		Nonce:    c.nonce,
	}
	c.enqueue(tx)
	return tx.Hash
}

// enqueue assigns the hash and mempool slot. Callers hold c.mu.
func (c *Chain) enqueue(tx *Transaction) {
	c.nonce++
	tx.Hash = hashTransaction(tx)
	c.mempool = append(c.mempool, tx)
	c.pending[tx.Hash] = true
}

func hashTransaction(tx *Transaction) string {
	payload, _ := json.Marshal(struct {
		Kind      TxKind                  `json:"kind"`
		Sender    string                  `json:"sender"`
		Contract  string                  `json:"contract"`
		Positions []contract.PositionSpec `json:"positions,omitempty"`
		Votes     []contract.VotePair     `json:"votes,omitempty"`
		Nonce     uint64                  `json:"nonce"`
	}{tx.Kind, tx.Sender.Hex(), tx.Contract.Hex(), tx.Positions, tx.Votes, tx.Nonce})
	return crypto.Keccak256Hash(payload).Hex()
}

// ProduceBlock drains the mempool into one block and executes every
// transaction in order. Returns how many transactions were included.
// No block is appended while the mempool is empty.
func (c *Chain) ProduceBlock() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.mempool) == 0 {
		return 0, nil
	}

	txs := c.mempool
	c.mempool = nil

	block := Block{
		Number:    uint64(len(c.blocks) + 1),
		Timestamp: time.Now().UTC(),
		TxHashes:  make([]string, 0, len(txs)),
	}

	for _, tx := range txs {
		receipt := c.executeTx(tx, block.Number)
		c.receipts[tx.Hash] = receipt
		delete(c.pending, tx.Hash)
		block.TxHashes = append(block.TxHashes, tx.Hash)

		if receipt.Status == StatusReverted {
			c.log.Debug("tx reverted", tx.Hash, receipt.RevertReason)
		}
	}

	c.blocks = append(c.blocks, block)
	c.log.Debug("produced block", block.Number, "txs", len(block.TxHashes))
	return len(txs), nil
}

func (c *Chain) executeTx(tx *Transaction, blockNumber uint64) *TxReceipt {
	return result.MapOrElse(
		c.applyTx(tx),
		func(err error) *TxReceipt {
			return &TxReceipt{
				TxHash:       tx.Hash,
				BlockNumber:  blockNumber,
				Status:       StatusReverted,
				RevertReason: err.Error(),
			}
		},
		func(out txOutcome) *TxReceipt {
			return &TxReceipt{
				TxHash:          tx.Hash,
				BlockNumber:     blockNumber,
				Status:          StatusConfirmed,
				ContractAddress: out.contractAddress,
				Events:          out.events,
			}
		},
	)
}

type txOutcome struct {
	contractAddress string
	events          []contract.VoteCastEvent
}

func (c *Chain) applyTx(tx *Transaction) result.Result[txOutcome] {
	switch tx.Kind {
	case TxDeploy:
		ballot, err := contract.NewBallotContract(tx.Sender, tx.Positions)
		if err != nil {
			return result.Err[txOutcome](err)
		}
		addr := crypto.CreateAddress(tx.Sender, tx.Nonce)
		c.contracts[addr] = ballot
		return result.Ok(txOutcome{contractAddress: addr.Hex()})

	case TxCastVotes:
		ballot, ok := c.contracts[tx.Contract]
		if !ok {
			return result.Err[txOutcome](fmt.Errorf("unknown contract: %s", tx.Contract.Hex()))
		}
		event, err := ballot.CastVotes(tx.Sender, tx.Votes)
		if err != nil {
			return result.Err[txOutcome](err)
		}
		return result.Ok(txOutcome{events: []contract.VoteCastEvent{*event}})

	default:
		return result.Err[txOutcome](fmt.Errorf("unknown tx kind: %s", tx.Kind))
	}
}

// GetReceipt returns the receipt for a mined transaction. The bool
// reports whether the chain knows the hash at all; a known hash with a
// nil receipt is still waiting in the mempool.
func (c *Chain) GetReceipt(txHash string) (*TxReceipt, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if receipt, ok := c.receipts[txHash]; ok {
		return receipt, true
	}
	if c.pending[txHash] {
		return nil, true
	}
	return nil, false
}

func (c *Chain) PositionList(contractAddr common.Address) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ballot, ok := c.contracts[contractAddr]
	if !ok {
		return nil, fmt.Errorf("unknown contract: %s", contractAddr.Hex())
	}
	return ballot.PositionList(), nil
}

func (c *Chain) CandidateList(contractAddr common.Address, position string) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ballot, ok := c.contracts[contractAddr]
	if !ok {
		return nil, fmt.Errorf("unknown contract: %s", contractAddr.Hex())
	}
	return ballot.CandidateList(position)
}

func (c *Chain) VoteCount(contractAddr common.Address, position string, candidate string) (uint64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ballot, ok := c.contracts[contractAddr]
	if !ok {
		return 0, fmt.Errorf("unknown contract: %s", contractAddr.Hex())
	}
	return ballot.VoteCount(position, candidate)
}

func (c *Chain) Height() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return uint64(len(c.blocks))
}

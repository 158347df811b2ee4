package chain

import (
	"time"

	"blockballot/modules/ledger/contract"

	"github.com/ethereum/go-ethereum/common"
)

type TxKind string

const (
	TxDeploy    TxKind = "deploy"
	TxCastVotes TxKind = "cast_votes"
)

type TxStatus string

const (
	StatusConfirmed TxStatus = "confirmed"
	StatusReverted  TxStatus = "reverted"
)

// Transaction is the chain's internal representation of a submitted
// operation. The hash is assigned at submission, the receipt when the
// transaction is included in a block.
type Transaction struct {
	Hash      string
	Kind      TxKind
	Sender    common.Address
	Contract  common.Address
	Positions []contract.PositionSpec
	Votes     []contract.VotePair
	Nonce     uint64
}

// TxReceipt is the durable record of a transaction's execution. A
// reverted receipt carries the contract's rejection reason verbatim
// and changes no state.
type TxReceipt struct {
	TxHash          string                   `json:"tx_hash"`
	BlockNumber     uint64                   `json:"block_number"`
	Status          TxStatus                 `json:"status"`
	RevertReason    string                   `json:"revert_reason,omitempty"`
	ContractAddress string                   `json:"contract_address,omitempty"`
	Events          []contract.VoteCastEvent `json:"events,omitempty"`
}

type Block struct {
	Number    uint64    `json:"number"`
	Timestamp time.Time `json:"timestamp"`
	TxHashes  []string  `json:"tx_hashes"`
}

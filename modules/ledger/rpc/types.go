package rpc

import "blockballot/modules/ledger/contract"

// JSON-RPC 2.0 envelope.

const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeServerError    = -32000
	// CodeRateLimited follows the convention public ledger providers
	// use for per-client throttling.
	CodeRateLimited = -32005
)

const RateLimitMessage = "rate limit exceeded"

type Request struct {
	JsonRpc string `json:"jsonrpc"`
	ID      any    `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type Response struct {
	JsonRpc string `json:"jsonrpc"`
	ID      any    `json:"id"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
}

// Method params. Decoded from the request's params object, then
// validated.

type DeployParams struct {
	From      string                  `json:"from" mapstructure:"from" validate:"required"`
	Positions []contract.PositionSpec `json:"positions" mapstructure:"positions" validate:"required,min=1,dive"`
}

type CastVotesParams struct {
	From     string              `json:"from" mapstructure:"from" validate:"required"`
	Contract string              `json:"contract" mapstructure:"contract" validate:"required"`
	Votes    []contract.VotePair `json:"votes" mapstructure:"votes" validate:"required,min=1,dive"`
}

type ReceiptParams struct {
	TxHash string `json:"tx_hash" mapstructure:"tx_hash" validate:"required"`
}

type PositionListParams struct {
	Contract string `json:"contract" mapstructure:"contract" validate:"required"`
}

type CandidateListParams struct {
	Contract string `json:"contract" mapstructure:"contract" validate:"required"`
	Position string `json:"position" mapstructure:"position" validate:"required"`
}

type VoteCountParams struct {
	Contract  string `json:"contract" mapstructure:"contract" validate:"required"`
	Position  string `json:"position" mapstructure:"position" validate:"required"`
	Candidate string `json:"candidate" mapstructure:"candidate" validate:"required"`
}

// Method results.

type SubmitResult struct {
	TxHash string `json:"tx_hash"`
}

type VoteCountResult struct {
	Count uint64 `json:"count"`
}

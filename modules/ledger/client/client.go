package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"blockballot/lib/logger"
	"blockballot/modules/common"
	"blockballot/modules/ledger/chain"
	"blockballot/modules/ledger/contract"
	"blockballot/modules/ledger/rpc"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// LedgerClient is the gateway's view of the ballot ledger. Writes block
// until the transaction is confirmed or reverted; reads retry transient
// provider throttling before giving up.
type LedgerClient interface {
	Deploy(ctx context.Context, positions []contract.PositionSpec) (contractAddress string, txHash string, err error)
	CastVotes(ctx context.Context, contractAddress string, votes []contract.VotePair) (txHash string, err error)
	GetPositionList(ctx context.Context, contractAddress string) ([]string, error)
	GetCandidateList(ctx context.Context, contractAddress string, position string) ([]string, error)
	GetVoteCount(ctx context.Context, contractAddress string, position string, candidate string) (uint64, error)
}

type RpcLedgerClient struct {
	conf     ClientConfig
	identity common.IdentityConfig
	http     *http.Client
	retry    RetryPolicy
	log      logger.Logger
}

var _ LedgerClient = &RpcLedgerClient{}

func New(conf ClientConfig, identity common.IdentityConfig, log logger.Logger) *RpcLedgerClient {
	return &RpcLedgerClient{
		conf:     conf,
		identity: identity,
		http:     &http.Client{Timeout: 30 * time.Second},
		retry:    DefaultRetryPolicy(),
		log:      log,
	}
}

// SetRetryPolicy replaces the read retry policy. Writes are never
// retried regardless of policy.
func (c *RpcLedgerClient) SetRetryPolicy(p RetryPolicy) {
	c.retry = p
}

// ===== transport =====

// rpcCall posts one JSON-RPC request and returns the raw result. A
// "null" result comes back as nil with no error; envelope errors come
// back as *RPCError for the caller to classify.
func (c *RpcLedgerClient) rpcCall(ctx context.Context, method string, params any) (json.RawMessage, error) {
	body, err := json.Marshal(rpc.Request{
		JsonRpc: "2.0",
		ID:      uuid.NewString(),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.conf.Get().Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, common.NetworkError{Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(res.Body)
		return nil, common.NetworkError{Err: fmt.Errorf("ledger endpoint returned %s: %s", res.Status, string(msg))}
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  *rpc.Error      `json:"error"`
	}
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		return nil, common.NetworkError{Err: err}
	}
	if envelope.Error != nil {
		return nil, &RPCError{Code: envelope.Error.Code, Message: envelope.Error.Message}
	}
	if len(envelope.Result) == 0 || bytes.Equal(envelope.Result, []byte("null")) {
		return nil, nil
	}
	return envelope.Result, nil
}

func (c *RpcLedgerClient) call(ctx context.Context, method string, params any, out any) error {
	raw, err := c.rpcCall(ctx, method, params)
	if err != nil {
		return err
	}
	if out == nil || raw == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

// ===== writes =====

func (c *RpcLedgerClient) Deploy(ctx context.Context, positions []contract.PositionSpec) (string, string, error) {
	submitter, err := c.identity.Submitter()
	if err != nil {
		return "", "", common.ValidationError{Reason: err.Error()}
	}

	var submitted rpc.SubmitResult
	err = c.call(ctx, "ballot_deployContract", rpc.DeployParams{
		From:      submitter.Hex(),
		Positions: positions,
	}, &submitted)
	if err != nil {
		return "", "", mapRPCError(err)
	}

	receipt, err := c.waitForReceipt(ctx, submitted.TxHash)
	if err != nil {
		return "", submitted.TxHash, err
	}
	return receipt.ContractAddress, submitted.TxHash, nil
}

func (c *RpcLedgerClient) CastVotes(ctx context.Context, contractAddress string, votes []contract.VotePair) (string, error) {
	if !ethcommon.IsHexAddress(contractAddress) {
		return "", common.ValidationError{Reason: fmt.Sprintf("invalid contract address: %s", contractAddress)}
	}
	submitter, err := c.identity.Submitter()
	if err != nil {
		return "", common.ValidationError{Reason: err.Error()}
	}

	var submitted rpc.SubmitResult
	err = c.call(ctx, "ballot_castVotes", rpc.CastVotesParams{
		From:     submitter.Hex(),
		Contract: contractAddress,
		Votes:    votes,
	}, &submitted)
	if err != nil {
		return "", mapRPCError(err)
	}

	if _, err := c.waitForReceipt(ctx, submitted.TxHash); err != nil {
		return submitted.TxHash, err
	}
	return submitted.TxHash, nil
}

// waitForReceipt polls until the transaction leaves the mempool. A
// reverted receipt surfaces the contract's reason verbatim and is never
// retried.
func (c *RpcLedgerClient) waitForReceipt(ctx context.Context, txHash string) (*chain.TxReceipt, error) {
	cc := c.conf.Get()
	interval := time.Duration(cc.ConfirmIntervalMs) * time.Millisecond
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	timeout := time.Duration(cc.ConfirmTimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	deadline := time.Now().Add(timeout)

	for {
		raw, err := c.rpcCall(ctx, "ballot_getTransactionReceipt", rpc.ReceiptParams{TxHash: txHash})
		if err != nil {
			return nil, mapRPCError(err)
		}
		if raw != nil {
			var receipt chain.TxReceipt
			if err := json.Unmarshal(raw, &receipt); err != nil {
				return nil, common.NetworkError{Err: err}
			}
			if receipt.Status == chain.StatusReverted {
				return nil, common.ContractRevertError{Reason: receipt.RevertReason}
			}
			return &receipt, nil
		}

		if time.Now().After(deadline) {
			return nil, common.NetworkError{Err: fmt.Errorf("transaction %s not confirmed after %s", txHash, timeout)}
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
}

// ===== reads =====

func (c *RpcLedgerClient) GetPositionList(ctx context.Context, contractAddress string) ([]string, error) {
	positions, err := Retry(ctx, c.retry, func() ([]string, error) {
		var out []string
		err := c.call(ctx, "ballot_getPositionList", rpc.PositionListParams{Contract: contractAddress}, &out)
		return out, err
	})
	return positions, mapRPCError(err)
}

func (c *RpcLedgerClient) GetCandidateList(ctx context.Context, contractAddress string, position string) ([]string, error) {
	candidates, err := Retry(ctx, c.retry, func() ([]string, error) {
		var out []string
		err := c.call(ctx, "ballot_getCandidateList", rpc.CandidateListParams{
			Contract: contractAddress,
			Position: position,
		}, &out)
		return out, err
	})
	return candidates, mapRPCError(err)
}

func (c *RpcLedgerClient) GetVoteCount(ctx context.Context, contractAddress string, position string, candidate string) (uint64, error) {
	count, err := Retry(ctx, c.retry, func() (rpc.VoteCountResult, error) {
		var out rpc.VoteCountResult
		err := c.call(ctx, "ballot_getVoteCount", rpc.VoteCountParams{
			Contract:  contractAddress,
			Position:  position,
			Candidate: candidate,
		}, &out)
		return out, err
	})
	return count.Count, mapRPCError(err)
}

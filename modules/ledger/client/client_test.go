package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"blockballot/lib/logger"
	"blockballot/modules/common"
	"blockballot/modules/config"
	"blockballot/modules/ledger/chain"
	"blockballot/modules/ledger/client"
	"blockballot/modules/ledger/contract"
	"blockballot/modules/ledger/rpc"

	"github.com/stretchr/testify/assert"
)

const submitterAddr = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

func presidentialSpec() []contract.PositionSpec {
	return []contract.PositionSpec{
		{Name: "President", Candidates: []string{"Alice", "Bob"}},
	}
}

// newLedgerStack brings up a full node (chain producer plus rpc
// handler) and a live client pointed at it.
func newLedgerStack(t *testing.T) *client.RpcLedgerClient {
	t.Cleanup(func() { os.RemoveAll(config.DATA_DIR) })

	log := logger.PrefixedLogger{Prefix: "client-test"}

	chainConf := chain.NewChainConfig()
	assert.NoError(t, chainConf.Init())
	assert.NoError(t, chainConf.SetBlockInterval(25))
	c := chain.New(chainConf, log)
	assert.NoError(t, c.Init())
	c.Start()
	t.Cleanup(func() { c.Stop() })

	rpcConf := rpc.NewRpcConfig()
	assert.NoError(t, rpcConf.Init())
	assert.NoError(t, rpcConf.SetRateLimit(1000, 1000))
	s := rpc.New(rpcConf, c, log)
	assert.NoError(t, s.Init())

	server := httptest.NewServer(s.Handler())
	t.Cleanup(server.Close)

	identity := common.NewIdentityConfig()
	assert.NoError(t, identity.Init())
	assert.NoError(t, identity.SetSubmitterAddress(submitterAddr))

	clientConf := client.NewClientConfig()
	assert.NoError(t, clientConf.Init())
	assert.NoError(t, clientConf.SetEndpoint(server.URL))
	assert.NoError(t, clientConf.SetConfirmPolling(10, 5000))

	return client.New(clientConf, identity, log)
}

func TestDeployCastAndCount(t *testing.T) {
	lc := newLedgerStack(t)
	ctx := context.Background()

	addr, txHash, err := lc.Deploy(ctx, presidentialSpec())
	assert.NoError(t, err)
	assert.NotEmpty(t, addr)
	assert.NotEmpty(t, txHash)

	castHash, err := lc.CastVotes(ctx, addr, []contract.VotePair{
		{Position: "President", Candidate: "Alice"},
	})
	assert.NoError(t, err)
	assert.NotEmpty(t, castHash)

	alice, err := lc.GetVoteCount(ctx, addr, "President", "Alice")
	assert.NoError(t, err)
	assert.Equal(t, uint64(1), alice)

	bob, err := lc.GetVoteCount(ctx, addr, "President", "Bob")
	assert.NoError(t, err)
	assert.Equal(t, uint64(0), bob)

	positions, err := lc.GetPositionList(ctx, addr)
	assert.NoError(t, err)
	assert.Equal(t, []string{"President"}, positions)

	candidates, err := lc.GetCandidateList(ctx, addr, "President")
	assert.NoError(t, err)
	assert.Equal(t, []string{"Alice", "Bob"}, candidates)
}

func TestCastVotesRevertCarriesContractReason(t *testing.T) {
	lc := newLedgerStack(t)
	ctx := context.Background()

	addr, _, err := lc.Deploy(ctx, presidentialSpec())
	assert.NoError(t, err)

	_, err = lc.CastVotes(ctx, addr, []contract.VotePair{
		{Position: "President", Candidate: "Zoe"},
	})
	var revert common.ContractRevertError
	assert.ErrorAs(t, err, &revert)
	assert.Equal(t, "unknown candidate Zoe for position President", revert.Reason)

	alice, err := lc.GetVoteCount(ctx, addr, "President", "Alice")
	assert.NoError(t, err)
	assert.Equal(t, uint64(0), alice)
}

func TestDeployRevertsOnDuplicatePosition(t *testing.T) {
	lc := newLedgerStack(t)

	_, _, err := lc.Deploy(context.Background(), []contract.PositionSpec{
		{Name: "President", Candidates: []string{"Alice"}},
		{Name: "President", Candidates: []string{"Bob"}},
	})
	var revert common.ContractRevertError
	assert.ErrorAs(t, err, &revert)
	assert.Equal(t, "duplicate position: President", revert.Reason)
}

func TestDeployRejectsEmptyCandidates(t *testing.T) {
	lc := newLedgerStack(t)

	_, _, err := lc.Deploy(context.Background(), []contract.PositionSpec{
		{Name: "President", Candidates: []string{}},
	})
	var validation common.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestCastVotesRejectsBadAddress(t *testing.T) {
	lc := newLedgerStack(t)

	_, err := lc.CastVotes(context.Background(), "not-an-address", []contract.VotePair{
		{Position: "President", Candidate: "Alice"},
	})
	var validation common.ValidationError
	assert.ErrorAs(t, err, &validation)
}

// stubEndpoint scripts JSON-RPC responses per method so throttle
// behavior is deterministic.
type stubEndpoint struct {
	calls     int
	rateLimit int // respond with the throttle error for the first n calls
	result    any
}

func (s *stubEndpoint) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req rpc.Request
		json.NewDecoder(r.Body).Decode(&req)

		s.calls++
		resp := rpc.Response{JsonRpc: "2.0", ID: req.ID}
		if s.calls <= s.rateLimit {
			resp.Error = &rpc.Error{Code: rpc.CodeRateLimited, Message: rpc.RateLimitMessage}
		} else {
			resp.Result = s.result
		}
		json.NewEncoder(w).Encode(resp)
	}
}

func newStubClient(t *testing.T, stub *stubEndpoint) *client.RpcLedgerClient {
	t.Cleanup(func() { os.RemoveAll(config.DATA_DIR) })

	server := httptest.NewServer(stub.handler())
	t.Cleanup(server.Close)

	identity := common.NewIdentityConfig()
	assert.NoError(t, identity.Init())
	assert.NoError(t, identity.SetSubmitterAddress(submitterAddr))

	clientConf := client.NewClientConfig()
	assert.NoError(t, clientConf.Init())
	assert.NoError(t, clientConf.SetEndpoint(server.URL))

	lc := client.New(clientConf, identity, logger.PrefixedLogger{Prefix: "client-test"})
	lc.SetRetryPolicy(client.RetryPolicy{
		MaxRetries: 3,
		BaseDelay:  time.Millisecond,
		Retryable:  client.IsRateLimited,
	})
	return lc
}

func TestReadRetriesThroughRateLimit(t *testing.T) {
	stub := &stubEndpoint{rateLimit: 2, result: []string{"President"}}
	lc := newStubClient(t, stub)

	positions, err := lc.GetPositionList(context.Background(), "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	assert.NoError(t, err)
	assert.Equal(t, []string{"President"}, positions)
	assert.Equal(t, 3, stub.calls)
}

func TestReadSurfacesRateLimitAfterExhaustion(t *testing.T) {
	stub := &stubEndpoint{rateLimit: 100}
	lc := newStubClient(t, stub)

	_, err := lc.GetPositionList(context.Background(), "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	var limited common.UpstreamRateLimitError
	assert.ErrorAs(t, err, &limited)
	assert.Equal(t, 4, stub.calls)
}

func TestReadDoesNotRetryUnknownContract(t *testing.T) {
	stub := &stubEndpoint{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpc.Request
		json.NewDecoder(r.Body).Decode(&req)
		stub.calls++
		json.NewEncoder(w).Encode(rpc.Response{
			JsonRpc: "2.0",
			ID:      req.ID,
			Error:   &rpc.Error{Code: rpc.CodeServerError, Message: "unknown contract: 0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"},
		})
	}))
	t.Cleanup(server.Close)
	t.Cleanup(func() { os.RemoveAll(config.DATA_DIR) })

	identity := common.NewIdentityConfig()
	assert.NoError(t, identity.Init())

	clientConf := client.NewClientConfig()
	assert.NoError(t, clientConf.Init())
	assert.NoError(t, clientConf.SetEndpoint(server.URL))

	lc := client.New(clientConf, identity, logger.PrefixedLogger{Prefix: "client-test"})

	_, err := lc.GetPositionList(context.Background(), "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	var notFound common.NotFoundError
	assert.ErrorAs(t, err, &notFound)
	assert.Equal(t, 1, stub.calls)
}

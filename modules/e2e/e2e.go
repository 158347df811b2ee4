package e2e

import (
	"net/http/httptest"
	"time"

	"blockballot/lib/logger"
	"blockballot/modules/api"
	"blockballot/modules/common"
	"blockballot/modules/eligibility"
	"blockballot/modules/ledger/chain"
	"blockballot/modules/ledger/client"
	"blockballot/modules/ledger/rpc"
	"blockballot/modules/results"
	"blockballot/modules/voting"
)

const submitterAddress = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

// Runner wires the whole voting flow against a live in-process ledger
// node: gin gateway, voting service, lock manager, rpc client, rpc
// server and chain. Only the mongo collections are mocked.
type Runner struct {
	Elections   *MockElections
	Eligibility *MockEligibility
	VoteLocks   *MockVoteLocks
	FinalVotes  *MockFinalVotes

	Ledger *client.RpcLedgerClient
	Auth   api.AuthConfig

	ApiURL    string
	LedgerURL string

	ledgerNode *chain.Chain
	apiServer  *httptest.Server
	nodeServer *httptest.Server
}

func NewRunner() *Runner {
	return &Runner{
		Elections:   &MockElections{},
		Eligibility: &MockEligibility{},
		VoteLocks:   &MockVoteLocks{},
		FinalVotes:  &MockFinalVotes{},
	}
}

// Init stands the stack up. Callers own the config data directory and
// must call Stop when done.
func (r *Runner) Init() error {
	log := logger.PrefixedLogger{Prefix: "e2e"}

	for _, store := range []interface{ Init() error }{
		r.Elections, r.Eligibility, r.VoteLocks, r.FinalVotes,
	} {
		if err := store.Init(); err != nil {
			return err
		}
	}

	chainConf := chain.NewChainConfig()
	if err := chainConf.Init(); err != nil {
		return err
	}
	if err := chainConf.SetBlockInterval(25); err != nil {
		return err
	}
	r.ledgerNode = chain.New(chainConf, log)
	if err := r.ledgerNode.Init(); err != nil {
		return err
	}
	r.ledgerNode.Start()

	rpcConf := rpc.NewRpcConfig()
	if err := rpcConf.Init(); err != nil {
		return err
	}
	if err := rpcConf.SetRateLimit(1000, 1000); err != nil {
		return err
	}
	node := rpc.New(rpcConf, r.ledgerNode, log)
	if err := node.Init(); err != nil {
		return err
	}
	r.nodeServer = httptest.NewServer(node.Handler())
	r.LedgerURL = r.nodeServer.URL

	identityConf := common.NewIdentityConfig()
	if err := identityConf.Init(); err != nil {
		return err
	}
	if err := identityConf.SetSubmitterAddress(submitterAddress); err != nil {
		return err
	}

	clientConf := client.NewClientConfig()
	if err := clientConf.Init(); err != nil {
		return err
	}
	if err := clientConf.SetEndpoint(r.LedgerURL); err != nil {
		return err
	}
	if err := clientConf.SetConfirmPolling(10, 5000); err != nil {
		return err
	}
	r.Ledger = client.New(clientConf, identityConf, log)

	gate := eligibility.NewGate(r.Eligibility)
	lockManager := voting.NewLockManager(r.VoteLocks, r.FinalVotes, log)
	votes := voting.New(r.Elections, gate, lockManager, r.Ledger, log)

	aggregator := results.New(r.Elections, r.Eligibility, r.FinalVotes, r.Ledger, log)
	aggregator.SetReadDelays(time.Millisecond, 2*time.Millisecond)

	r.Auth = api.NewAuthConfig()
	if err := r.Auth.Init(); err != nil {
		return err
	}
	apiConf := api.NewApiConfig()
	if err := apiConf.Init(); err != nil {
		return err
	}
	gateway := api.New(apiConf, api.NewStaticTokenAuth(r.Auth), votes, aggregator, log)
	if err := gateway.Init(); err != nil {
		return err
	}
	r.apiServer = httptest.NewServer(gateway.Handler())
	r.ApiURL = r.apiServer.URL

	return nil
}

func (r *Runner) Stop() error {
	if r.apiServer != nil {
		r.apiServer.Close()
	}
	if r.nodeServer != nil {
		r.nodeServer.Close()
	}
	if r.ledgerNode != nil {
		return r.ledgerNode.Stop()
	}
	return nil
}

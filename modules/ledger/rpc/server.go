package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"blockballot/lib/logger"
	a "blockballot/modules/aggregate"
	"blockballot/modules/ledger/chain"

	"github.com/chebyrash/promise"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/cors"
)

// ===== constants =====

const shutdownTimeout = 5 * time.Second

// ===== types =====

// rpcServer exposes the chain over JSON-RPC 2.0. Every request spends
// one token from the caller's rate-limit bucket; an empty bucket gets
// the -32005 error the gateway's retry policy keys on.
type rpcServer struct {
	server  *http.Server
	handler http.Handler
	conf    RpcConfig
	chain   *chain.Chain
	limiter *rateLimiter
	valid   *validator.Validate
	log     logger.Logger
}

// ===== interface assertion =====

var _ a.Plugin = &rpcServer{}

// ===== plugin lifecycle =====

func New(conf RpcConfig, c *chain.Chain, log logger.Logger) *rpcServer {
	return &rpcServer{
		conf:  conf,
		chain: c,
		log:   log,
	}
}

func (s *rpcServer) Init() error {
	cfg := s.conf.Get()
	s.limiter = newRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst)
	s.valid = validator.New()

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRPC)
	s.handler = cors.Default().Handler(mux)

	s.server = &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: s.handler,
	}

	return nil
}

func (s *rpcServer) Start() *promise.Promise[any] {
	return promise.New(func(resolve func(any), reject func(error)) {
		s.log.Debug("rpc server listening on", s.server.Addr)

		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			reject(err)
		}

		resolve(nil)
	})
}

func (s *rpcServer) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return s.server.Shutdown(ctx)
}

// Handler exposes the configured handler so tests and embedders can
// serve it without binding the plugin's listen address.
func (s *rpcServer) Handler() http.Handler {
	return s.handler
}

// ===== request handling =====

func (s *rpcServer) handleRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeResponse(w, Response{
			JsonRpc: "2.0",
			Error:   &Error{Code: CodeParseError, Message: "parse error"},
		})
		return
	}

	if !s.limiter.allow(clientKey(r)) {
		writeResponse(w, Response{
			JsonRpc: "2.0",
			ID:      req.ID,
			Error:   &Error{Code: CodeRateLimited, Message: RateLimitMessage},
		})
		return
	}

	result, rpcErr := s.dispatch(&req)
	writeResponse(w, Response{
		JsonRpc: "2.0",
		ID:      req.ID,
		Result:  result,
		Error:   rpcErr,
	})
}

// clientKey buckets callers by remote host, ignoring the port so one
// client's connections share a bucket.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeResponse(w http.ResponseWriter, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *rpcServer) dispatch(req *Request) (any, *Error) {
	switch req.Method {
	case "ballot_deployContract":
		return s.deployContract(req)
	case "ballot_castVotes":
		return s.castVotes(req)
	case "ballot_getTransactionReceipt":
		return s.getTransactionReceipt(req)
	case "ballot_getPositionList":
		return s.getPositionList(req)
	case "ballot_getCandidateList":
		return s.getCandidateList(req)
	case "ballot_getVoteCount":
		return s.getVoteCount(req)
	default:
		return nil, &Error{Code: CodeMethodNotFound, Message: fmt.Sprintf("method not found: %s", req.Method)}
	}
}

// decodeParams maps the request's params object onto out and runs
// struct validation.
func (s *rpcServer) decodeParams(req *Request, out any) *Error {
	if err := mapstructure.Decode(req.Params, out); err != nil {
		return &Error{Code: CodeInvalidParams, Message: "invalid params: " + err.Error()}
	}
	if err := s.valid.Struct(out); err != nil {
		return &Error{Code: CodeInvalidParams, Message: "invalid params: " + err.Error()}
	}
	return nil
}

func parseAddress(addr string) (ethcommon.Address, *Error) {
	if !ethcommon.IsHexAddress(addr) {
		return ethcommon.Address{}, &Error{Code: CodeInvalidParams, Message: "invalid address: " + addr}
	}
	return ethcommon.HexToAddress(addr), nil
}

// ===== methods =====

func (s *rpcServer) deployContract(req *Request) (any, *Error) {
	var params DeployParams
	if rpcErr := s.decodeParams(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	from, rpcErr := parseAddress(params.From)
	if rpcErr != nil {
		return nil, rpcErr
	}

	txHash := s.chain.SubmitDeploy(from, params.Positions)
	return SubmitResult{TxHash: txHash}, nil
}

func (s *rpcServer) castVotes(req *Request) (any, *Error) {
	var params CastVotesParams
	if rpcErr := s.decodeParams(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	from, rpcErr := parseAddress(params.From)
	if rpcErr != nil {
		return nil, rpcErr
	}
	contractAddr, rpcErr := parseAddress(params.Contract)
	if rpcErr != nil {
		return nil, rpcErr
	}

	txHash := s.chain.SubmitCastVotes(from, contractAddr, params.Votes)
	return SubmitResult{TxHash: txHash}, nil
}

func (s *rpcServer) getTransactionReceipt(req *Request) (any, *Error) {
	var params ReceiptParams
	if rpcErr := s.decodeParams(req, &params); rpcErr != nil {
		return nil, rpcErr
	}

	receipt, known := s.chain.GetReceipt(params.TxHash)
	if !known {
		return nil, &Error{Code: CodeServerError, Message: "unknown transaction: " + params.TxHash}
	}
	if receipt == nil {
		// still in the mempool; callers poll until it lands
		return nil, nil
	}
	return receipt, nil
}

func (s *rpcServer) getPositionList(req *Request) (any, *Error) {
	var params PositionListParams
	if rpcErr := s.decodeParams(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	contractAddr, rpcErr := parseAddress(params.Contract)
	if rpcErr != nil {
		return nil, rpcErr
	}

	positions, err := s.chain.PositionList(contractAddr)
	if err != nil {
		return nil, &Error{Code: CodeServerError, Message: err.Error()}
	}
	return positions, nil
}

func (s *rpcServer) getCandidateList(req *Request) (any, *Error) {
	var params CandidateListParams
	if rpcErr := s.decodeParams(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	contractAddr, rpcErr := parseAddress(params.Contract)
	if rpcErr != nil {
		return nil, rpcErr
	}

	candidates, err := s.chain.CandidateList(contractAddr, params.Position)
	if err != nil {
		return nil, &Error{Code: CodeServerError, Message: err.Error()}
	}
	return candidates, nil
}

func (s *rpcServer) getVoteCount(req *Request) (any, *Error) {
	var params VoteCountParams
	if rpcErr := s.decodeParams(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	contractAddr, rpcErr := parseAddress(params.Contract)
	if rpcErr != nil {
		return nil, rpcErr
	}

	count, err := s.chain.VoteCount(contractAddr, params.Position, params.Candidate)
	if err != nil {
		return nil, &Error{Code: CodeServerError, Message: err.Error()}
	}
	return VoteCountResult{Count: count}, nil
}

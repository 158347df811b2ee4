package client

import (
	"errors"
	"fmt"
	"strings"

	"blockballot/modules/common"
	"blockballot/modules/ledger/rpc"
)

// RPCError is a JSON-RPC error returned by the ledger endpoint, kept
// raw so the retry policy can classify it before it is mapped onto the
// domain taxonomy.
type RPCError struct {
	Code    int
	Message string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// IsRateLimited reports whether the error is the provider throttling
// us, by code or by message shape.
func IsRateLimited(err error) bool {
	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		return false
	}
	if rpcErr.Code == rpc.CodeRateLimited {
		return true
	}
	msg := strings.ToLower(rpcErr.Message)
	return strings.Contains(msg, "rate limit") || strings.Contains(msg, "too many requests")
}

// mapRPCError converts a raw endpoint error into the domain taxonomy.
func mapRPCError(err error) error {
	if err == nil {
		return nil
	}
	if IsRateLimited(err) {
		return common.UpstreamRateLimitError{Err: err}
	}

	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		return err
	}
	switch {
	case rpcErr.Code == rpc.CodeInvalidParams:
		return common.ValidationError{Reason: rpcErr.Message}
	case strings.HasPrefix(rpcErr.Message, "unknown contract"):
		return common.NotFoundError{Resource: "contract"}
	case strings.HasPrefix(rpcErr.Message, "unknown transaction"):
		return common.NotFoundError{Resource: "transaction"}
	default:
		return rpcErr
	}
}

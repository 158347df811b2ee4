package common

// Failure taxonomy for the voting pipeline. The HTTP layer maps these
// to statuses; anything unmatched is treated as an internal failure.

type ValidationError struct {
	Reason string
}

func (e ValidationError) Error() string {
	return e.Reason
}

type UnauthorizedError struct {
	Reason string
}

func (e UnauthorizedError) Error() string {
	return e.Reason
}

type ForbiddenError struct {
	Reason string
}

func (e ForbiddenError) Error() string {
	return e.Reason
}

type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	return e.Resource + " not found"
}

// ConflictError means the voter already voted or an attempt is already
// in flight. Never retryable.
type ConflictError struct {
	Reason string
}

func (e ConflictError) Error() string {
	return e.Reason
}

// UpstreamRateLimitError is surfaced once the retry policy has given
// up on a rate-limited ledger endpoint.
type UpstreamRateLimitError struct {
	Err error
}

func (e UpstreamRateLimitError) Error() string {
	return "ledger rate limit: " + e.Err.Error()
}

func (e UpstreamRateLimitError) Unwrap() error {
	return e.Err
}

// ContractRevertError carries the contract's rejection reason verbatim.
type ContractRevertError struct {
	Reason string
}

func (e ContractRevertError) Error() string {
	return e.Reason
}

// NetworkError is a transient transport failure reaching the ledger.
type NetworkError struct {
	Err error
}

func (e NetworkError) Error() string {
	return "ledger unreachable: " + e.Err.Error()
}

func (e NetworkError) Unwrap() error {
	return e.Err
}

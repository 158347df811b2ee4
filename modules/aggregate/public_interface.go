package aggregate

import "github.com/chebyrash/promise"

type Plugin interface {
	// Runs initialization in the order plugins are passed to `Aggregate`
	Init() error
	// Begins background work and must not block
	Start() *promise.Promise[any]
	// Runs cleanup once the `Aggregate` is finished
	Stop() error
}

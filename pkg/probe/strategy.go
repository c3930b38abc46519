package probe

import "context"

type StrategyName string

const (
	TCPStrategy  StrategyName = "tcp"
	MockStrategy StrategyName = "mock"
)

// Strategy performs one attempt against one endpoint and never returns
// later than its own timeout.
type Strategy interface {
	Probe(ctx context.Context, endpoint Endpoint) Result
}

package strategies

import (
	"fmt"
	"time"

	"github.com/Sh00ty/port-prober/pkg/probe"
	"github.com/Sh00ty/port-prober/pkg/strategies/mockhc"
	"github.com/Sh00ty/port-prober/pkg/strategies/tcpconnhc"
)

// NewStrategy builds the named strategy. The mock strategy takes half the
// timeout and connects, which is enough for dry runs.
func NewStrategy(name probe.StrategyName, timeout time.Duration) (probe.Strategy, error) {
	switch name {
	case probe.TCPStrategy, "":
		return tcpconnhc.NewTcpConnStrategy(&tcpconnhc.TcpConnSettings{Timeout: timeout})
	case probe.MockStrategy:
		return mockhc.NewMockStrategy(&mockhc.MockSettings{
			Delay:   timeout / 2,
			Outcome: probe.Connected,
		}), nil
	default:
		return nil, fmt.Errorf("unknown probe strategy: %q", name)
	}
}

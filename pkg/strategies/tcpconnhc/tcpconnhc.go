package tcpconnhc

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Sh00ty/port-prober/pkg/probe"
)

const tcpNetwork = "tcp"

type DialContextFunc func(ctx context.Context, network, address string) (net.Conn, error)

type TcpConnSettings struct {
	Timeout time.Duration `json:"timeout"`
	// Resolver is used for host names, nil means the default resolver.
	Resolver *net.Resolver `json:"-"`
	// Dial replaces the net.Dialer, tests use it to emulate black-holed routes.
	Dial DialContextFunc `json:"-"`
}

type TcpConnStrategy struct {
	timeout time.Duration
	dial    DialContextFunc
}

func NewTcpConnStrategy(settings *TcpConnSettings) (*TcpConnStrategy, error) {
	if settings.Timeout <= 0 {
		return nil, fmt.Errorf("invalid tcp probe timeout: %s", settings.Timeout)
	}
	dial := settings.Dial
	if dial == nil {
		dialer := &net.Dialer{
			Timeout:   settings.Timeout,
			KeepAlive: -1,
			Resolver:  settings.Resolver,
		}
		dial = dialer.DialContext
	}
	return &TcpConnStrategy{
		timeout: settings.Timeout,
		dial:    dial,
	}, nil
}

// Probe only completes the handshake, nothing is written or read.
func (tc *TcpConnStrategy) Probe(ctx context.Context, endpoint probe.Endpoint) probe.Result {
	ctx, cancel := context.WithTimeout(ctx, tc.timeout)
	defer cancel()

	started := time.Now()
	conn, err := tc.dial(ctx, tcpNetwork, endpoint.String())
	elapsed := time.Since(started)
	if err != nil {
		log.Debug().Err(err).Msgf("[tcp-probe]: %s failed after %s", endpoint, elapsed)
		return probe.NewResult(endpoint, elapsed, err)
	}
	_ = conn.Close()
	return probe.NewResult(endpoint, elapsed, nil)
}

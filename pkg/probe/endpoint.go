package probe

import (
	"net"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultTimeout = 500 * time.Millisecond

	minPort = 1
	maxPort = 65535
)

// Endpoint is a single (host, port) pair targeted by a probe.
type Endpoint struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

func (e Endpoint) String() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

func (e Endpoint) Validate() error {
	if strings.TrimSpace(e.Host) == "" {
		return &InputError{Field: "host", Reason: "must not be blank"}
	}
	if e.Port < minPort || e.Port > maxPort {
		return &InputError{Field: "port", Reason: "out of range 1-65535: " + strconv.Itoa(e.Port)}
	}
	return nil
}

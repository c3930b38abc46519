package probe

import (
	"fmt"
	"time"
)

// Run is one probe run: every host is tried on every port with the same timeout.
type Run struct {
	Hosts   []string
	Ports   []int
	Timeout time.Duration
}

func (r Run) Validate() error {
	if len(r.Hosts) == 0 {
		return &InputError{Field: "hosts", Reason: "empty host list"}
	}
	if len(r.Ports) == 0 {
		return &InputError{Field: "ports", Reason: "empty port list"}
	}
	if r.Timeout <= 0 {
		return &InputError{Field: "timeout", Reason: fmt.Sprintf("must be positive, got %s", r.Timeout)}
	}
	for _, host := range r.Hosts {
		if err := (Endpoint{Host: host, Port: minPort}).Validate(); err != nil {
			return err
		}
	}
	for _, port := range r.Ports {
		if err := (Endpoint{Host: "-", Port: port}).Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Endpoints returns the host-major, port-minor cartesian product of the run.
// Duplicate hosts or ports yield duplicate endpoints.
func (r Run) Endpoints() []Endpoint {
	endpoints := make([]Endpoint, 0, len(r.Hosts)*len(r.Ports))
	for _, host := range r.Hosts {
		for _, port := range r.Ports {
			endpoints = append(endpoints, Endpoint{Host: host, Port: port})
		}
	}
	return endpoints
}

// Reorder puts results that were emitted in completion order back into the
// order of endpoints. Duplicate endpoints are matched first come first served.
func Reorder(endpoints []Endpoint, results []Result) []Result {
	positions := make(map[Endpoint][]int, len(endpoints))
	for i, e := range endpoints {
		positions[e] = append(positions[e], i)
	}
	slots := make([]*Result, len(endpoints))
	var extra []Result
	for i := range results {
		queue := positions[results[i].Endpoint]
		if len(queue) == 0 {
			extra = append(extra, results[i])
			continue
		}
		slots[queue[0]] = &results[i]
		positions[results[i].Endpoint] = queue[1:]
	}
	ordered := make([]Result, 0, len(results))
	for _, res := range slots {
		if res != nil {
			ordered = append(ordered, *res)
		}
	}
	return append(ordered, extra...)
}

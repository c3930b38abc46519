package models

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-uuid"

	"github.com/Sh00ty/port-prober/pkg/probe"
)

type RunID string

type RunInfo struct {
	ID         RunID         `json:"run_id"`
	Node       string        `json:"node"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Timeout    time.Duration `json:"timeout"`
}

func NewRunInfo(node string, timeout time.Duration) (RunInfo, error) {
	id, err := uuid.GenerateUUID()
	if err != nil {
		return RunInfo{}, fmt.Errorf("failed to generate run id: %w", err)
	}
	return RunInfo{
		ID:        RunID(id),
		Node:      node,
		StartedAt: time.Now().UTC(),
		Timeout:   timeout,
	}, nil
}

type Summary struct {
	Total     int
	ByOutcome map[probe.Outcome]int
}

func Summarize(results []probe.Result) Summary {
	s := Summary{
		Total:     len(results),
		ByOutcome: make(map[probe.Outcome]int),
	}
	for _, res := range results {
		s.ByOutcome[res.Outcome]++
	}
	return s
}

func (s Summary) Unreachable() int {
	return s.Total - s.ByOutcome[probe.Connected]
}

func (s Summary) String() string {
	str := fmt.Sprintf("%d endpoint(s)", s.Total)
	for _, o := range probe.Outcomes() {
		if n := s.ByOutcome[o]; n > 0 {
			str += fmt.Sprintf(", %s=%d", o, n)
		}
	}
	return str
}

// ResultRecord is the wire and storage shape of one result.
type ResultRecord struct {
	RunID     RunID         `json:"run_id"`
	Node      string        `json:"node,omitempty"`
	Position  int           `json:"position"`
	Host      string        `json:"host"`
	Port      int           `json:"port"`
	Outcome   probe.Outcome `json:"outcome"`
	ElapsedMs float64       `json:"elapsed_ms"`
	Error     string        `json:"error,omitempty"`
	CheckedAt time.Time     `json:"checked_at"`
}

func NewResultRecord(info RunInfo, position int, res probe.Result) ResultRecord {
	return ResultRecord{
		RunID:     info.ID,
		Node:      info.Node,
		Position:  position,
		Host:      res.Endpoint.Host,
		Port:      res.Endpoint.Port,
		Outcome:   res.Outcome,
		ElapsedMs: float64(res.Elapsed.Microseconds()) / 1000,
		Error:     res.Err,
		CheckedAt: info.StartedAt,
	}
}

package probe

import "time"

// Result is produced exactly once per endpoint per run.
// Err carries the OS failure detail and is empty for Connected.
type Result struct {
	Endpoint Endpoint      `json:"endpoint"`
	Outcome  Outcome       `json:"outcome"`
	Elapsed  time.Duration `json:"elapsed"`
	Err      string        `json:"error,omitempty"`
}

func (r Result) OK() bool {
	return r.Outcome == Connected
}

func NewResult(endpoint Endpoint, elapsed time.Duration, err error) Result {
	res := Result{
		Endpoint: endpoint,
		Outcome:  Classify(err),
		Elapsed:  elapsed,
	}
	if err != nil {
		res.Err = err.Error()
	}
	return res
}

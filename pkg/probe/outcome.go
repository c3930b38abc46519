package probe

import "fmt"

type Outcome uint8

const (
	Connected Outcome = iota
	TimedOut
	Refused
	ResolutionFailed
	Error
)

var outcomeNames = [...]string{
	Connected:        "connected",
	TimedOut:         "timed_out",
	Refused:          "refused",
	ResolutionFailed: "resolution_failed",
	Error:            "error",
}

// Outcomes lists every outcome in declaration order.
func Outcomes() []Outcome {
	return []Outcome{Connected, TimedOut, Refused, ResolutionFailed, Error}
}

func (o Outcome) String() string {
	if int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return fmt.Sprintf("outcome(%d)", uint8(o))
}

func (o Outcome) MarshalText() ([]byte, error) {
	if int(o) >= len(outcomeNames) {
		return nil, fmt.Errorf("unknown outcome %d", uint8(o))
	}
	return []byte(outcomeNames[o]), nil
}

func (o *Outcome) UnmarshalText(text []byte) error {
	for i, name := range outcomeNames {
		if name == string(text) {
			*o = Outcome(i)
			return nil
		}
	}
	return fmt.Errorf("unknown outcome %q", text)
}

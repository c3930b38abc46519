package console

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/Sh00ty/port-prober/internal/models"
	"github.com/Sh00ty/port-prober/pkg/probe"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Writer prints results as they are emitted, one per line.
type Writer struct {
	out      io.Writer
	format   Format
	info     models.RunInfo
	position int
	enc      *json.Encoder
}

func NewWriter(out io.Writer, format Format) (*Writer, error) {
	switch format {
	case FormatText, FormatJSON:
	case "":
		format = FormatText
	default:
		return nil, fmt.Errorf("unknown output format: %q", format)
	}
	return &Writer{
		out:    out,
		format: format,
		enc:    json.NewEncoder(out),
	}, nil
}

// Begin resets line numbering for a new run.
func (w *Writer) Begin(info models.RunInfo) {
	w.info = info
	w.position = 0
}

func (w *Writer) Write(res probe.Result) error {
	defer func() { w.position++ }()
	if w.format == FormatJSON {
		return w.enc.Encode(models.NewResultRecord(w.info, w.position, res))
	}
	line := fmt.Sprintf("%-40s %-18s %10s", res.Endpoint, res.Outcome, res.Elapsed.Round(time.Microsecond))
	if res.Err != "" {
		line += "  " + res.Err
	}
	_, err := fmt.Fprintln(w.out, line)
	return err
}

func (w *Writer) Summary(summary models.Summary) error {
	if w.format == FormatJSON {
		return nil
	}
	_, err := fmt.Fprintf(w.out, "run %s: %s\n", w.info.ID, summary)
	return err
}

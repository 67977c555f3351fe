// Package report renders taint.Finding slices to JSON, the only output
// format this module owns; CSV/XML/HTML rendering is out of scope.
package report

import (
	"encoding/json"
	"io"
	"os"

	"github.com/taintwave/phpsentinel/pkg/taint"
)

// JSONExporter exports findings to JSON.
type JSONExporter struct {
	PrettyPrint bool
	Indent      string
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(prettyPrint bool) *JSONExporter {
	return &JSONExporter{
		PrettyPrint: prettyPrint,
		Indent:      "  ",
	}
}

// Finding is the wire shape for a single taint.Finding, with the verdict
// code rendered as its string name rather than a bare integer.
type Finding struct {
	ID         string `json:"id"`
	Verdict    string `json:"verdict"`
	Source     string `json:"source"`
	SourceLine int    `json:"source_line"`
	Sink       string `json:"sink"`
	SinkParam  int    `json:"sink_param"`
	SinkLine   int    `json:"sink_line"`
}

func toWire(findings []taint.Finding) []Finding {
	out := make([]Finding, len(findings))
	for i, f := range findings {
		out[i] = Finding{
			ID:         f.ID,
			Verdict:    f.Code.String(),
			Source:     f.Source,
			SourceLine: f.SourceLine,
			Sink:       f.Sink,
			SinkParam:  f.SinkParam,
			SinkLine:   f.SinkLine,
		}
	}
	return out
}

// Export renders findings to a JSON string.
func (e *JSONExporter) Export(findings []taint.Finding) (string, error) {
	var data []byte
	var err error

	wire := toWire(findings)
	if e.PrettyPrint {
		data, err = json.MarshalIndent(wire, "", e.Indent)
	} else {
		data, err = json.Marshal(wire)
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ExportToWriter renders findings to w.
func (e *JSONExporter) ExportToWriter(findings []taint.Finding, w io.Writer) error {
	encoder := json.NewEncoder(w)
	if e.PrettyPrint {
		encoder.SetIndent("", e.Indent)
	}
	return encoder.Encode(toWire(findings))
}

// ExportToFile renders findings to a file at filePath.
func (e *JSONExporter) ExportToFile(findings []taint.Finding, filePath string) error {
	f, err := os.Create(filePath)
	if err != nil {
		return err
	}
	defer f.Close()

	return e.ExportToWriter(findings, f)
}

// Summary rolls findings up by verdict and by sink.
type Summary struct {
	TotalFindings int            `json:"total_findings"`
	ByVerdict     map[string]int `json:"by_verdict"`
	BySink        map[string]int `json:"by_sink"`
}

// Summarize computes a Summary over findings.
func Summarize(findings []taint.Finding) Summary {
	s := Summary{
		ByVerdict: make(map[string]int),
		BySink:    make(map[string]int),
	}
	for _, f := range findings {
		s.TotalFindings++
		s.ByVerdict[f.Code.String()]++
		s.BySink[f.Sink]++
	}
	return s
}

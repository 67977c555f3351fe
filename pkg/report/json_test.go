package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taintwave/phpsentinel/pkg/taint"
)

func sampleFindings() []taint.Finding {
	return []taint.Finding{
		{ID: "a", Code: taint.Controlled, Source: "$_GET", SourceLine: 2, Sink: "eval", SinkParam: 0, SinkLine: 10},
		{ID: "b", Code: taint.NewRule, Source: "$arg", SourceLine: 1, Sink: "echo", SinkParam: 0, SinkLine: 20},
	}
}

func TestExportRendersVerdictAsName(t *testing.T) {
	e := NewJSONExporter(false)
	out, err := e.Export(sampleFindings())
	assert.NoError(t, err)
	assert.Contains(t, out, `"verdict":"CONTROLLED"`)
	assert.Contains(t, out, `"verdict":"NEW_RULE"`)
}

func TestExportToWriterPrettyPrints(t *testing.T) {
	e := NewJSONExporter(true)
	var sb strings.Builder
	assert.NoError(t, e.ExportToWriter(sampleFindings(), &sb))
	assert.Contains(t, sb.String(), "\n")
}

func TestSummarizeCountsByVerdictAndSink(t *testing.T) {
	s := Summarize(sampleFindings())
	assert.Equal(t, 2, s.TotalFindings)
	assert.Equal(t, 1, s.ByVerdict["CONTROLLED"])
	assert.Equal(t, 1, s.ByVerdict["NEW_RULE"])
	assert.Equal(t, 1, s.BySink["eval"])
	assert.Equal(t, 1, s.BySink["echo"])
}

func TestSummarizeEmptyFindings(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, 0, s.TotalFindings)
}

package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/leakscan/internal/report"
)

func sampleReport() *report.Report {
	return &report.Report{
		ArtifactID: "com.example.app",
		Results: []report.RuleResult{
			{Name: "AWSKey", Matches: []string{"AKIA1234567890ABCD1X"}},
			{Name: "LinkFinder", Matches: []string{"https://example.com/x", "/api/login"}},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "", want: FormatText},
		{in: "TEXT", want: FormatText},
		{in: "json", want: FormatJSON},
		{in: " sarif ", want: FormatSARIF},
		{in: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, "txt", FormatText.Extension())
	assert.Equal(t, "json", FormatJSON.Extension())
	assert.Equal(t, "sarif", FormatSARIF.Extension())
	assert.True(t, FormatText.Streaming())
	assert.False(t, FormatJSON.Streaming())
}

func TestRenderText(t *testing.T) {
	got, err := Render(sampleReport(), FormatText)
	require.NoError(t, err)

	want := "[AWSKey]\n- AKIA1234567890ABCD1X\n\n[LinkFinder]\n- https://example.com/x\n- /api/login\n\n"
	assert.Equal(t, want, string(got))
}

func TestTextStreamMatchesRender(t *testing.T) {
	rep := sampleReport()

	var buf bytes.Buffer
	ts := NewTextStream(&buf)
	for _, rr := range rep.Results {
		ts.Write(rr)
	}
	ts.Write(report.RuleResult{Name: "Empty"})
	require.NoError(t, ts.Err())

	rendered, err := Render(rep, FormatText)
	require.NoError(t, err)
	assert.Equal(t, rendered, buf.Bytes())
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) { return 0, errors.New("disk full") }

func TestTextStreamKeepsFirstError(t *testing.T) {
	ts := NewTextStream(failingWriter{})
	ts.Write(report.RuleResult{Name: "A", Matches: []string{"x"}})
	ts.Write(report.RuleResult{Name: "B", Matches: []string{"y"}})

	require.Error(t, ts.Err())
	assert.Contains(t, ts.Err().Error(), `"A"`)
}

func TestPendingTextHoldsUntilCommit(t *testing.T) {
	rep := sampleReport()

	pending := NewPendingText()
	for _, rr := range rep.Results {
		pending.Write(rr)
	}

	var out bytes.Buffer
	assert.Zero(t, out.Len(), "nothing reaches the output before Commit")
	require.NoError(t, pending.Commit(&out))

	rendered, err := Render(rep, FormatText)
	require.NoError(t, err)
	assert.Equal(t, rendered, out.Bytes())
}

func TestPendingTextCommitError(t *testing.T) {
	pending := NewPendingText()
	pending.Write(report.RuleResult{Name: "A", Matches: []string{"x"}})
	assert.Error(t, pending.Commit(failingWriter{}))
}

func TestRenderJSON(t *testing.T) {
	got, err := Render(sampleReport(), FormatJSON)
	require.NoError(t, err)

	var decoded report.Report
	require.NoError(t, json.Unmarshal(got, &decoded))
	assert.Equal(t, *sampleReport(), decoded)
	assert.Contains(t, string(got), `"artifact_id": "com.example.app"`)

	again, err := Render(sampleReport(), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, got, again, "rendering must be deterministic")
}

func TestRenderSARIF(t *testing.T) {
	got, err := Render(sampleReport(), FormatSARIF)
	require.NoError(t, err)

	var decoded struct {
		Version string `json:"version"`
		Runs    []struct {
			Tool struct {
				Driver struct {
					Name  string `json:"name"`
					Rules []struct {
						ID string `json:"id"`
					} `json:"rules"`
				} `json:"driver"`
			} `json:"tool"`
			Results []struct {
				RuleID  string `json:"ruleId"`
				Message struct {
					Text string `json:"text"`
				} `json:"message"`
			} `json:"results"`
		} `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(got, &decoded))
	require.Len(t, decoded.Runs, 1)

	run := decoded.Runs[0]
	assert.Equal(t, "2.1.0", decoded.Version)
	assert.Equal(t, "leakscan", run.Tool.Driver.Name)
	assert.Len(t, run.Tool.Driver.Rules, 2)
	require.Len(t, run.Results, 3)
	assert.Equal(t, "AWSKey", run.Results[0].RuleID)
	assert.Equal(t, "AKIA1234567890ABCD1X", run.Results[0].Message.Text)
	assert.Equal(t, "/api/login", run.Results[2].Message.Text)
}

func TestRenderNothingFound(t *testing.T) {
	for _, f := range []Format{FormatText, FormatJSON, FormatSARIF} {
		got, err := Render(&report.Report{ArtifactID: "com.example.app"}, f)
		assert.ErrorIs(t, err, ErrNothingToPublish)
		assert.Empty(t, got)
	}
}

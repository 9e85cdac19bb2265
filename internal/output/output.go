// Package output renders scan reports as text, JSON or SARIF.
package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/scan-io-git/leakscan/internal/report"
)

// Format selects how a report is rendered.
type Format string

const (
	FormatText  Format = "text"
	FormatJSON  Format = "json"
	FormatSARIF Format = "sarif"
)

// ErrNothingToPublish is returned when a report has no results.
var ErrNothingToPublish = errors.New("nothing to publish")

const (
	toolName = "leakscan"
	toolURI  = "https://github.com/scan-io-git/leakscan"
)

// ParseFormat validates a user supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatSARIF:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format %q, expected one of: text, json, sarif", s)
	}
}

// Extension is the file extension used for baselines in this format.
func (f Format) Extension() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatSARIF:
		return "sarif"
	default:
		return "txt"
	}
}

// Streaming reports whether results of this format can be written as they arrive.
func (f Format) Streaming() bool {
	return f == FormatText
}

// Render returns the full rendering of rep. When rep has no results the output is
// empty and ErrNothingToPublish is returned.
func Render(rep *report.Report, format Format) ([]byte, error) {
	if !rep.FoundAny() {
		return nil, ErrNothingToPublish
	}

	var buf bytes.Buffer
	switch format {
	case FormatText:
		ts := NewTextStream(&buf)
		for _, rr := range rep.Results {
			ts.Write(rr)
		}
		if err := ts.Err(); err != nil {
			return nil, err
		}
	case FormatJSON:
		if err := writeJSON(&buf, rep); err != nil {
			return nil, err
		}
	case FormatSARIF:
		if err := writeSARIF(&buf, rep); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
	return buf.Bytes(), nil
}

// TextStream writes rule results incrementally in the text format:
//
//	[RuleName]
//	- match
//	- match
//
// It is safe for concurrent use; the first write error is kept and returned by Err.
type TextStream struct {
	mu  sync.Mutex
	w   io.Writer
	err error
}

// NewTextStream creates a TextStream writing to w.
func NewTextStream(w io.Writer) *TextStream {
	return &TextStream{w: w}
}

// Write emits one rule result. Empty results are skipped.
func (s *TextStream) Write(rr report.RuleResult) {
	if len(rr.Matches) == 0 {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s]\n", rr.Name)
	for _, m := range rr.Matches {
		fmt.Fprintf(&b, "- %s\n", m)
	}
	b.WriteString("\n")

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return
	}
	if _, err := io.WriteString(s.w, b.String()); err != nil {
		s.err = fmt.Errorf("failed to write result %q: %w", rr.Name, err)
	}
}

// Err returns the first write error.
func (s *TextStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// PendingText renders rule results in the text format as they are released but
// holds them until Commit. A scan that is aborted after some results were released
// is dropped without any of its text reaching the output.
type PendingText struct {
	buf    bytes.Buffer
	stream *TextStream
}

// NewPendingText creates an empty PendingText.
func NewPendingText() *PendingText {
	p := &PendingText{}
	p.stream = NewTextStream(&p.buf)
	return p
}

// Write renders one rule result into the held buffer.
func (p *PendingText) Write(rr report.RuleResult) {
	p.stream.Write(rr)
}

// Commit writes everything held so far to w.
func (p *PendingText) Commit(w io.Writer) error {
	if err := p.stream.Err(); err != nil {
		return err
	}
	if _, err := w.Write(p.buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func writeJSON(w io.Writer, rep *report.Report) error {
	data, err := json.MarshalIndent(rep, "", "    ")
	if err != nil {
		return fmt.Errorf("error marshaling the report: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("error writing the report: %w", err)
	}
	return nil
}

func writeSARIF(w io.Writer, rep *report.Report) error {
	reportSarif, err := sarif.New(sarif.Version210)
	if err != nil {
		return fmt.Errorf("failed to create SARIF report: %w", err)
	}

	run := sarif.NewRunWithInformationURI(toolName, toolURI)
	artifactURI := rep.ArtifactID
	for _, rr := range rep.Results {
		rule := run.AddRule(rr.Name).
			WithDescription(fmt.Sprintf("Strings matching the %s pattern", rr.Name)).
			WithDefaultConfiguration(&sarif.ReportingConfiguration{Level: "warning"})

		for _, m := range rr.Matches {
			location := sarif.NewLocation().WithPhysicalLocation(
				sarif.NewPhysicalLocation().
					WithArtifactLocation(sarif.NewArtifactLocation().WithUri(artifactURI)),
			)
			result := sarif.NewRuleResult(rule.ID).
				WithMessage(sarif.NewTextMessage(m)).
				WithLevel("warning").
				WithLocations([]*sarif.Location{location})
			run.AddResult(result)
		}
	}
	reportSarif.AddRun(run)

	if err := reportSarif.PrettyWrite(w); err != nil {
		return fmt.Errorf("failed to write SARIF report: %w", err)
	}
	return nil
}

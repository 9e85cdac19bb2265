package report

import (
	"sort"
)

// TaskResult is the outcome of one (rule, pattern) extraction task.
// Index is the launch position of the task and defines report order.
type TaskResult struct {
	Index   int
	Rule    string
	Pattern string
	Matches []string
	Err     error
}

// RuleResult lists the matches of one pattern-spec of a rule.
type RuleResult struct {
	Name    string   `json:"name"`
	Matches []string `json:"matches"`
}

// Report is the deduplicated view of a scan handed to the output writers.
type Report struct {
	ArtifactID string       `json:"artifact_id"`
	Results    []RuleResult `json:"results"`
}

// FoundAny reports whether at least one rule produced a match.
func (r *Report) FoundAny() bool {
	return r != nil && len(r.Results) > 0
}

// TotalMatches counts matches across all results.
func (r *Report) TotalMatches() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, res := range r.Results {
		n += len(res.Matches)
	}
	return n
}

// Assemble orders task results by launch index and keeps those with matches.
// Results of a failed task count as empty.
func Assemble(artifactID string, results []TaskResult) *Report {
	ordered := make([]TaskResult, len(results))
	copy(ordered, results)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Index < ordered[j].Index
	})

	rep := &Report{ArtifactID: artifactID, Results: []RuleResult{}}
	for _, res := range ordered {
		if rr, ok := ToRuleResult(res); ok {
			rep.Results = append(rep.Results, rr)
		}
	}
	return rep
}

// ToRuleResult converts a task result, returning false when it has nothing to report.
func ToRuleResult(res TaskResult) (RuleResult, bool) {
	if res.Err != nil || len(res.Matches) == 0 {
		return RuleResult{}, false
	}
	return RuleResult{Name: res.Rule, Matches: res.Matches}, true
}

// Package scan runs every rule of a catalog against a corpus concurrently and
// assembles the per-rule results into a report.
package scan

import (
	"context"
	"regexp"
	"time"

	"github.com/scan-io-git/leakscan/internal/report"
	"github.com/scan-io-git/leakscan/internal/rules"
	"github.com/scan-io-git/leakscan/internal/search"
	"github.com/scan-io-git/leakscan/pkg/shared"
	"github.com/scan-io-git/leakscan/pkg/shared/errors"
)

// Normalizer post-processes the raw matches of a rule.
type Normalizer interface {
	Normalize(ruleName string, raw []string) []string
}

// ResultSink receives rule results in launch order while the scan is running.
type ResultSink func(report.RuleResult)

// Coordinator fans out one extraction task per (rule, pattern) pair.
type Coordinator struct {
	searcher   search.Searcher
	normalizer Normalizer
	jobs       int
	sink       ResultSink
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithJobs bounds the number of tasks running at once. Zero runs every task at once.
func WithJobs(n int) Option {
	return func(c *Coordinator) { c.jobs = n }
}

// WithResultSink streams results as soon as every earlier task has completed.
// The sink is called from a single goroutine.
func WithResultSink(sink ResultSink) Option {
	return func(c *Coordinator) { c.sink = sink }
}

// New creates a Coordinator.
func New(searcher search.Searcher, normalizer Normalizer, opts ...Option) *Coordinator {
	c := &Coordinator{searcher: searcher, normalizer: normalizer}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type task struct {
	index   int
	rule    string
	pattern string
}

// plan expands rules into tasks in declaration order.
func plan(catalog []rules.Rule) []task {
	tasks := make([]task, 0, rules.CountPatterns(catalog))
	for _, r := range catalog {
		for _, p := range r.Patterns {
			tasks = append(tasks, task{index: len(tasks), rule: r.Name, pattern: p})
		}
	}
	return tasks
}

// Run executes the catalog against sc.CorpusRoot and blocks until every launched
// task has finished. Failed tasks count as empty. When ctx is cancelled no report
// is returned and the error wraps errors.ErrScanAborted.
func (c *Coordinator) Run(ctx context.Context, sc *Context, catalog []rules.Rule) (*report.Report, error) {
	logger := sc.Logger
	tasks := plan(catalog)
	logger.Info("scan starting", "rules", len(catalog), "tasks", len(tasks), "jobs", c.jobs)
	start := time.Now()

	results := make(chan report.TaskResult, len(tasks))
	go func() {
		shared.ForEachBounded(ctx, c.jobs, len(tasks), func(i int) {
			results <- c.runTask(ctx, sc, tasks[i])
		})
		close(results)
	}()

	collected := make([]*report.TaskResult, len(tasks))
	next, failed, completed := 0, 0, 0
	for res := range results {
		res := res
		if res.Err != nil {
			failed++
			if ctx.Err() == nil {
				logger.Warn("extraction task failed", "rule", res.Rule, "pattern", res.Pattern, "error", res.Err)
			}
		} else {
			completed++
			logger.Debug("extraction task finished", "rule", res.Rule, "matches", len(res.Matches))
		}
		collected[res.Index] = &res

		for next < len(collected) && collected[next] != nil {
			if c.sink != nil && ctx.Err() == nil {
				if rr, ok := report.ToRuleResult(*collected[next]); ok {
					c.sink(rr)
				}
			}
			next++
		}
	}

	if err := ctx.Err(); err != nil {
		logger.Warn("scan aborted", "completed", completed, "tasks", len(tasks))
		return nil, errors.Wrap(errors.ErrScanAborted, "%d of %d tasks completed before cancellation: %w", completed, len(tasks), err)
	}

	final := make([]report.TaskResult, 0, len(collected))
	for _, res := range collected {
		final = append(final, *res)
	}
	rep := report.Assemble(sc.ArtifactID, final)
	logger.Info("scan finished", "results", len(rep.Results), "matches", rep.TotalMatches(), "failed_tasks", failed, "duration", time.Since(start))
	return rep, nil
}

// runTask compiles, searches and normalizes one pattern. Any failure, including a
// panic in the searcher or normalizer, is recorded on the result.
func (c *Coordinator) runTask(ctx context.Context, sc *Context, t task) (res report.TaskResult) {
	res = report.TaskResult{Index: t.index, Rule: t.rule, Pattern: t.pattern}
	defer func() {
		if r := recover(); r != nil {
			res.Matches = nil
			res.Err = errors.Wrap(errors.ErrTask, "rule %q: panic: %v", t.rule, r)
		}
	}()

	re, err := regexp.Compile(t.pattern)
	if err != nil {
		res.Err = errors.Wrap(errors.ErrTask, "rule %q: invalid pattern: %w", t.rule, err)
		return res
	}

	raw, err := c.searcher.Search(ctx, re, sc.CorpusRoot)
	if err != nil {
		res.Err = errors.Wrap(errors.ErrTask, "rule %q: search failed: %w", t.rule, err)
		return res
	}

	res.Matches = c.normalizer.Normalize(t.rule, raw)
	return res
}


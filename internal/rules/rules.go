// Package rules loads the catalog of named secret-detection patterns.
//
// A catalog is a mapping of rule name to either a single regular expression or a
// list of them, written as JSON (the historical regexes.json layout) or YAML.
// Declaration order is kept because it drives the order of the final report.
package rules

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"

	yaml "gopkg.in/yaml.v2"

	"github.com/scan-io-git/leakscan/pkg/shared/errors"
	"github.com/scan-io-git/leakscan/pkg/shared/files"
)

// DefaultSource names the embedded catalog in logs and listings.
const DefaultSource = "embedded:regexes.json"

//go:embed regexes.json
var defaultCatalog []byte

// Rule is a named group of pattern-specs. Names may repeat across rules.
type Rule struct {
	Name     string   `json:"name" yaml:"name"`
	Patterns []string `json:"patterns" yaml:"patterns"`
}

// Load reads and parses the catalog at path. An empty path selects the embedded catalog.
func Load(path string) ([]Rule, error) {
	if path == "" {
		return LoadDefault()
	}

	path, err := files.ExpandPath(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCatalog, "failed to expand path %q: %w", path, err)
	}
	if err := files.ValidatePath(path); err != nil {
		return nil, errors.Wrap(errors.ErrCatalog, "invalid catalog %q: %w", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCatalog, "failed to read catalog %q: %w", path, err)
	}

	rules, err := Parse(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCatalog, "failed to parse catalog %q: %w", path, err)
	}
	return rules, nil
}

// LoadDefault parses the catalog shipped with the binary.
func LoadDefault() ([]Rule, error) {
	rules, err := Parse(defaultCatalog)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCatalog, "failed to parse %s: %w", DefaultSource, err)
	}
	return rules, nil
}

// Parse decodes a catalog document. Documents starting with '{' are read as JSON,
// anything else as YAML.
func Parse(data []byte) ([]Rule, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("catalog is empty")
	}

	var (
		rules []Rule
		err   error
	)
	if trimmed[0] == '{' {
		rules, err = parseJSON(trimmed)
	} else {
		rules, err = parseYAML(trimmed)
	}
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("catalog declares no rules")
	}
	return rules, nil
}

// parseJSON walks the top-level object token by token so key order survives.
func parseJSON(data []byte) ([]Rule, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("catalog must be a JSON object")
	}

	var rules []Rule
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
		name, _ := keyTok.(string)

		var value interface{}
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("invalid value for rule %q: %w", name, err)
		}

		rule, err := newRule(name, value)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("invalid JSON: unexpected data after catalog object")
	}
	return rules, nil
}

func parseYAML(data []byte) ([]Rule, error) {
	var doc yaml.MapSlice
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	rules := make([]Rule, 0, len(doc))
	for _, item := range doc {
		name, ok := item.Key.(string)
		if !ok {
			return nil, fmt.Errorf("rule name %v must be a string", item.Key)
		}
		rule, err := newRule(name, item.Value)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// newRule presents a single pattern and a list of patterns uniformly as a list.
func newRule(name string, value interface{}) (Rule, error) {
	if name == "" {
		return Rule{}, fmt.Errorf("rule name must not be empty")
	}

	var patterns []string
	switch v := value.(type) {
	case string:
		patterns = []string{v}
	case []interface{}:
		if len(v) == 0 {
			return Rule{}, fmt.Errorf("rule %q has an empty pattern list", name)
		}
		for i, p := range v {
			s, ok := p.(string)
			if !ok {
				return Rule{}, fmt.Errorf("rule %q: pattern #%d must be a string, got %T", name, i+1, p)
			}
			patterns = append(patterns, s)
		}
	default:
		return Rule{}, fmt.Errorf("rule %q: value must be a pattern or a list of patterns, got %T", name, value)
	}

	for i, p := range patterns {
		if p == "" {
			return Rule{}, fmt.Errorf("rule %q: pattern #%d is empty", name, i+1)
		}
	}
	return Rule{Name: name, Patterns: patterns}, nil
}

// CountPatterns returns the number of pattern-specs, which is the number of scan tasks.
func CountPatterns(rules []Rule) int {
	n := 0
	for _, r := range rules {
		n += len(r.Patterns)
	}
	return n
}

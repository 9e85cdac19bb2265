// Package normalize post-processes raw matches before they are reported.
//
// Policies are looked up by rule name in a Registry; rules without a registered
// policy pass their matches through unchanged.
package normalize

import (
	"regexp"
	"sync"
)

// LinkFinderRule is the rule name conventionally used for URL and path discovery.
const LinkFinderRule = "LinkFinder"

// Policy transforms the raw matches of one rule.
type Policy func(raw []string) []string

// Registry maps rule names to normalization policies. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	policies map[string]Policy
	post     []Policy
}

// NewRegistry returns an empty registry where every rule uses the identity policy.
func NewRegistry() *Registry {
	return &Registry{policies: make(map[string]Policy)}
}

// Default returns a registry with the built-in rule policies registered.
func Default() *Registry {
	r := NewRegistry()
	r.Register(LinkFinderRule, LinkFinder)
	return r
}

// Register sets the policy for ruleName, replacing any previous one.
func (r *Registry) Register(ruleName string, p Policy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.policies[ruleName] = p
}

// Use appends a transform applied to every rule after its own policy.
func (r *Registry) Use(p Policy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.post = append(r.post, p)
}

// Normalize applies the policy registered for ruleName, then every global transform.
// The input slice is never modified.
func (r *Registry) Normalize(ruleName string, raw []string) []string {
	r.mu.RLock()
	policy, ok := r.policies[ruleName]
	post := r.post
	r.mu.RUnlock()

	out := raw
	if ok {
		out = policy(out)
	}
	for _, p := range post {
		out = p(out)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// assetPath matches Android resource and MIME references such as "image/png" or
// "Landroid/os/Bundle;" that LinkFinder picks up but are not endpoints. The leading
// quote is optional so custom catalogs that capture bare values are filtered too.
var assetPath = regexp.MustCompile(`^['"\x60]?(L[a-z]|application|audio|fonts|image|kotlin|layout|multipart|plain|text|video).*/.+`)

// LinkFinder drops asset-path references and unwraps the surrounding quotes.
func LinkFinder(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, m := range raw {
		if assetPath.MatchString(m) {
			continue
		}
		out = append(out, StripQuotes(m))
	}
	return out
}

// StripQuotes removes exactly one pair of matching quote characters wrapping s.
func StripQuotes(s string) string {
	if len(s) < 2 {
		return s
	}
	if isQuote(s[0]) && s[0] == s[len(s)-1] {
		return s[1 : len(s)-1]
	}
	return s
}

func isQuote(c byte) bool {
	return c == '\'' || c == '"' || c == '`'
}

// Dedup removes repeated matches, keeping the first occurrence.
func Dedup(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, m := range raw {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}

package scanner

import (
	"bytes"
	"fmt"
	"os"

	"shadowsafe/pkg/config"
)

// Rule is one compiled byte-pattern detection rule. A rule matches when at
// least MinMatches of its patterns occur anywhere in the file.
type Rule struct {
	Name       string
	patterns   [][]byte
	minMatches int
	noCase     bool
}

// CompileRules converts rule configuration into matchable rules. An empty
// rule set is a valid state: it simply never matches.
func CompileRules(cfgs []config.RuleConfig) []Rule {
	rules := make([]Rule, 0, len(cfgs))
	for _, rc := range cfgs {
		rule := Rule{
			Name:       rc.Name,
			minMatches: rc.MinMatches,
			noCase:     rc.NoCase,
		}
		if rule.minMatches < 1 {
			rule.minMatches = 1
		}
		for _, p := range rc.Patterns {
			pattern := []byte(p)
			if rc.NoCase {
				pattern = bytes.ToLower(pattern)
			}
			rule.patterns = append(rule.patterns, pattern)
		}
		rules = append(rules, rule)
	}
	return rules
}

// MatchRules evaluates every rule against the file contents and returns the
// names of the rules that matched, in rule order.
func MatchRules(path string, rules []Rule) ([]string, error) {
	if len(rules) == 0 {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file for rule matching: %w", err)
	}

	var lowered []byte
	var matched []string
	for _, rule := range rules {
		haystack := data
		if rule.noCase {
			if lowered == nil {
				lowered = bytes.ToLower(data)
			}
			haystack = lowered
		}
		hits := 0
		for _, pattern := range rule.patterns {
			if bytes.Contains(haystack, pattern) {
				hits++
			}
		}
		if hits >= rule.minMatches {
			matched = append(matched, rule.Name)
		}
	}
	return matched, nil
}

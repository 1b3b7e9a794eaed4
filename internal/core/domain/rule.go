package domain

import "regexp"

// Rule is a single entry of a pattern rule set. Exactly one of its fields is set.
type Rule struct {
	// Glob is a shell-style pattern whose wildcards never cross a path separator.
	Glob string
	// Regexp is tested against the full slash-separated relative path.
	Regexp *regexp.Regexp
	// Predicate receives the slash-separated relative path.
	Predicate func(rel string) bool
}

// RuleSet is an ordered list of rules. A path matches the set if any rule matches it.
type RuleSet []Rule

// GlobRule returns a rule matching the glob pattern.
func GlobRule(pattern string) Rule {
	return Rule{Glob: pattern}
}

// RegexpRule returns a rule matching the regular expression.
func RegexpRule(re *regexp.Regexp) Rule {
	return Rule{Regexp: re}
}

// PredicateRule returns a rule delegating to fn.
func PredicateRule(fn func(rel string) bool) Rule {
	return Rule{Predicate: fn}
}

// Globs builds a rule set from glob patterns.
func Globs(patterns ...string) RuleSet {
	rules := make(RuleSet, 0, len(patterns))
	for _, p := range patterns {
		rules = append(rules, GlobRule(p))
	}
	return rules
}

// RegexpPrefix marks a rule string in configuration files as a regular expression.
const RegexpPrefix = "re:"

// String renders the rule the way it is written in configuration files.
func (r Rule) String() string {
	switch {
	case r.Regexp != nil:
		return RegexpPrefix + r.Regexp.String()
	case r.Predicate != nil:
		return "<predicate>"
	default:
		return r.Glob
	}
}

// Strings renders every rule of the set.
func (rs RuleSet) Strings() []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.String()
	}
	return out
}

// Package pattern evaluates rule sets against root-relative paths.
package pattern

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.trai.ch/fsroute/internal/core/domain"
	"go.trai.ch/zerr"
)

// Match reports whether rel matches any rule of rules.
func Match(rules domain.RuleSet, rel string) bool {
	rel = Normalize(rel)
	for _, r := range rules {
		if matchRule(r, rel) {
			return true
		}
	}
	return false
}

// Normalize converts rel to the slash-separated form rules are evaluated on,
// without leading or trailing separators.
func Normalize(rel string) string {
	return strings.Trim(filepath.ToSlash(rel), "/")
}

// HasSegment reports whether any segment of rel equals name.
func HasSegment(rel, name string) bool {
	for seg := range strings.SplitSeq(Normalize(rel), "/") {
		if seg == name {
			return true
		}
	}
	return false
}

func matchRule(r domain.Rule, rel string) bool {
	switch {
	case r.Predicate != nil:
		return r.Predicate(rel)
	case r.Regexp != nil:
		return r.Regexp.MatchString(rel)
	case r.Glob != "":
		return matchGlob(r.Glob, rel)
	default:
		return false
	}
}

// matchGlob matches the glob against as many trailing segments of rel as the glob has.
// A leading slash anchors the glob to the root instead.
func matchGlob(glob, rel string) bool {
	if anchored, ok := strings.CutPrefix(glob, "/"); ok {
		matched, _ := doublestar.Match(anchored, rel)
		return matched
	}

	n := strings.Count(glob, "/") + 1
	segs := strings.Split(rel, "/")
	if n > len(segs) {
		return false
	}
	matched, _ := doublestar.Match(glob, strings.Join(segs[len(segs)-n:], "/"))
	return matched
}

// Parse compiles a rule as written in configuration files. Strings prefixed with
// domain.RegexpPrefix are regular expressions, anything else is a glob.
func Parse(s string) (domain.Rule, error) {
	if expr, ok := strings.CutPrefix(s, domain.RegexpPrefix); ok {
		re, err := regexp.Compile(expr)
		if err != nil {
			return domain.Rule{}, zerr.With(zerr.Wrap(domain.ErrInvalidPattern, err.Error()), "pattern", s)
		}
		return domain.RegexpRule(re), nil
	}

	if s == "" || !doublestar.ValidatePattern(s) {
		return domain.Rule{}, zerr.With(zerr.Wrap(domain.ErrInvalidPattern, "malformed glob"), "pattern", s)
	}
	if strings.Contains(s, "**") && !strings.HasPrefix(s, "/") {
		return domain.Rule{}, zerr.With(
			zerr.Wrap(domain.ErrInvalidPattern, "'**' is only allowed in root-anchored globs"), "pattern", s)
	}
	return domain.GlobRule(s), nil
}

// ParseAll compiles every rule, failing on the first invalid one.
func ParseAll(specs []string) (domain.RuleSet, error) {
	rules := make(domain.RuleSet, 0, len(specs))
	for _, s := range specs {
		r, err := Parse(s)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}

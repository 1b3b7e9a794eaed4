// Package resolution produces the ordered candidate list for a request path.
package resolution

import (
	"path"
	"strings"

	"go.trai.ch/fsroute/internal/core/domain"
	"go.trai.ch/fsroute/internal/engine/pattern"
)

// ConfigSource resolves the effective configuration of a root-relative path.
type ConfigSource interface {
	Resolve(rel string) domain.Effective
}

// NormalizeRequestPath cleans a decoded request path. The result is rooted, contains
// no traversal segments and keeps a trailing separator if the request had one.
func NormalizeRequestPath(p string) string {
	trailing := strings.HasSuffix(p, "/")
	cleaned := path.Clean("/" + p)
	if trailing && cleaned != "/" {
		cleaned += "/"
	}
	return cleaned
}

// Candidates returns the unfiltered candidates for a normalized request path, highest
// precedence first: the path itself, its index files, suffixed ascension, and the
// root fallback handlers.
func Candidates(requestPath string, src ConfigSource) []domain.Candidate {
	candidates := []domain.Candidate{{Path: requestPath, Remainder: "/"}}

	dir := requestPath
	if !strings.HasSuffix(dir, "/") {
		dir += "/"
	}
	for _, name := range src.Resolve(rel(requestPath)).Index {
		candidates = append(candidates, domain.Candidate{Path: dir + name, Remainder: "/"})
	}

	cur := strings.TrimSuffix(requestPath, "/")
	for cur != "" && cur != "/" {
		eff := src.Resolve(rel(cur))
		remainder := "/" + strings.TrimPrefix(strings.TrimPrefix(requestPath, cur), "/")
		for _, suffix := range eff.Suffix {
			candidates = append(candidates, domain.Candidate{Path: cur + suffix, Remainder: remainder})
		}
		if !eff.ExecTryParentDir {
			break
		}
		cur = path.Dir(cur)
	}

	for _, suffix := range src.Resolve("").Suffix {
		candidates = append(candidates, domain.Candidate{
			Path:      "/" + domain.DefaultHandlerName + suffix,
			Remainder: requestPath,
		})
	}
	return candidates
}

// Excluded reports whether the candidate is vetoed by its effective exclude rules or
// by the dependency-directory exclusion. Directory config resources are never served.
func Excluded(c domain.Candidate, src ConfigSource) bool {
	if domain.IsConfigResource(c.Path) {
		return true
	}
	eff := src.Resolve(c.Rel())
	if pattern.Match(eff.Exclude, c.Rel()) {
		return true
	}
	return eff.ExcludeNodeModules && pattern.HasSegment(c.Rel(), domain.NodeModulesDir)
}

// Filter drops excluded candidates, keeping order.
func Filter(candidates []domain.Candidate, src ConfigSource) []domain.Candidate {
	kept := candidates[:0:0]
	for _, c := range candidates {
		if !Excluded(c, src) {
			kept = append(kept, c)
		}
	}
	return kept
}

// IsExec reports whether the candidate is dispatched to a handler rather than served
// statically. A candidate with a trailing separator is never an exec candidate.
func IsExec(c domain.Candidate, src ConfigSource) bool {
	if strings.HasSuffix(c.Path, "/") {
		return false
	}
	return pattern.Match(src.Resolve(c.Rel()).Exec, c.Rel())
}

// Resolve returns the filtered candidates for a normalized request path.
func Resolve(requestPath string, src ConfigSource) []domain.Candidate {
	return Filter(Candidates(requestPath, src), src)
}

// Entry is an annotated candidate, as reported by Explain.
type Entry struct {
	domain.Candidate
	Exec     bool
	Excluded bool
}

// Explain returns every candidate of a normalized request path with its classification,
// including the excluded ones.
func Explain(requestPath string, src ConfigSource) []Entry {
	candidates := Candidates(requestPath, src)
	entries := make([]Entry, 0, len(candidates))
	for _, c := range candidates {
		entries = append(entries, Entry{
			Candidate: c,
			Exec:      IsExec(c, src),
			Excluded:  Excluded(c, src),
		})
	}
	return entries
}

func rel(p string) string {
	return strings.Trim(p, "/")
}

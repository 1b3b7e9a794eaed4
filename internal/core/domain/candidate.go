package domain

// Candidate is one entry of the ordered candidate list for a request path.
type Candidate struct {
	// Path is the slash-separated, root-relative path with a leading slash.
	// It keeps the trailing separator of the original request, if any.
	Path string
	// Remainder is the path the handler sees when this candidate is an exec match.
	Remainder string
}

// Rel returns the candidate path relative to the root, without the leading slash.
func (c Candidate) Rel() string {
	if len(c.Path) > 0 && c.Path[0] == '/' {
		return c.Path[1:]
	}
	return c.Path
}

// MatchKind tells how a request was satisfied.
type MatchKind uint8

const (
	// MatchExec means the request is dispatched to a loaded handler.
	MatchExec MatchKind = iota + 1
	// MatchStatic means the request is served from file content.
	MatchStatic
)

func (k MatchKind) String() string {
	switch k {
	case MatchExec:
		return "exec"
	case MatchStatic:
		return "static"
	default:
		return "none"
	}
}

// Match is the outcome of resolving a request path without serving it.
type Match struct {
	Kind      MatchKind
	Candidate Candidate
	// ID is the resource identifier (absolute path) backing the match.
	ID string
	// Hooks lists the lifecycle hooks of the handler, for exec matches that are loaded.
	Hooks []string
}

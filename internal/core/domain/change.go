package domain

// ChangeKind is the kind of filesystem change observed for a resource.
type ChangeKind uint8

const (
	// ChangeAdd means the resource appeared.
	ChangeAdd ChangeKind = iota + 1
	// ChangeModify means the resource content changed.
	ChangeModify
	// ChangeRemove means the resource disappeared.
	ChangeRemove
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeAdd:
		return "add"
	case ChangeModify:
		return "change"
	case ChangeRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Change is a single filesystem event for an absolute path.
type Change struct {
	Kind ChangeKind
	Path string
}

// PendingChange is a drained entry of the pending change queue.
type PendingChange struct {
	ID           string
	ShouldReload bool
}

package tools

// Kind classifies a tool by how the turn loop should account for it.
type Kind int

const (
	// KindRead covers exploration tools: listing, reading, searching.
	KindRead Kind = iota
	// KindEdit covers tools that change repository state.
	KindEdit
	// KindProbe covers idempotent status checks. Probes are exempt from
	// duplicate suppression because polling the same status is legitimate.
	KindProbe
	// KindLocal covers tools that act on the local machine rather than
	// the repository. They count as neither edits nor searches.
	KindLocal
)

func (k Kind) String() string {
	switch k {
	case KindRead:
		return "read"
	case KindEdit:
		return "edit"
	case KindProbe:
		return "probe"
	case KindLocal:
		return "local"
	default:
		return "unknown"
	}
}

// KindOf returns the classification for a tool name. Unknown names
// classify as reads, the conservative choice for duplicate suppression.
func KindOf(name string) Kind {
	switch name {
	case "write_file", "patch_file", "patch_file_multi", "push_to_github":
		return KindEdit
	case "get_build_status":
		return KindProbe
	case "run_command":
		return KindLocal
	default:
		return KindRead
	}
}

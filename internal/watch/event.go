// Package watch keeps the index in step with the prompt library: an
// fsnotify recursive watcher feeds a coalescing debouncer, and a quiet
// period with no further events triggers one sync pass.
package watch

import "time"

// Op is a file system operation type.
type Op int

const (
	// OpCreate indicates a new file appeared.
	OpCreate Op = iota
	// OpModify indicates an existing file changed.
	OpModify
	// OpDelete indicates a file went away.
	OpDelete
)

// String returns a human-readable operation name.
func (op Op) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpModify:
		return "MODIFY"
	case OpDelete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// Event is one library file event.
type Event struct {
	Path string
	Op   Op
	Time time.Time
}

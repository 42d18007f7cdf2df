package events

import "github.com/kilianp07/logvault/core/category"

// Drop reasons reported in DropEvent.
const (
	DropNoConfig = "no_config"
	DropDisabled = "disabled"
	DropNoPath   = "no_path"
	DropIOError  = "io_error"
	DropClosed   = "closed"
)

// WriteEvent is published after an entry reached disk.
type WriteEvent struct {
	Category category.Category
	Level    string
	Path     string
}

// DropEvent is published when an entry is discarded.
type DropEvent struct {
	Category category.Category
	Reason   string
	Err      error
}

// QueueEvent carries the number of entries waiting to be written.
type QueueEvent struct {
	Depth int
}

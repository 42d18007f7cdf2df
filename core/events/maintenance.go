package events

import (
	"time"

	"github.com/kilianp07/logvault/core/category"
)

// RotationEvent is published when the current file was moved aside.
type RotationEvent struct {
	Category category.Category
	From     string
	To       string
}

// PurgeEvent is published for every file removed by time retention.
type PurgeEvent struct {
	Category category.Category
	Path     string
	Err      error
}

// BackupEvent is published when a backup or restore run ends. Action is
// "backup" or "restore".
type BackupEvent struct {
	Category category.Category
	Action   string
	RunID    string
	Files    int
	Duration time.Duration
	Err      error
}

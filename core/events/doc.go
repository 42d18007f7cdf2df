// Package events defines the lifecycle events emitted on the event bus.
//
// Available event types:
//   - WriteEvent: an entry was appended to a category file
//   - DropEvent: an entry was discarded before reaching disk
//   - QueueEvent: the writer queue depth changed
//   - RotationEvent: an over-size file was rotated
//   - PurgeEvent: an expired file was deleted
//   - BackupEvent: a backup or restore run finished
package events

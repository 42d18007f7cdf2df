package metrics

import (
	"context"

	"github.com/kilianp07/logvault/core/events"
	coremetrics "github.com/kilianp07/logvault/core/metrics"
	"github.com/kilianp07/logvault/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records metrics for events.
// It stops when the context is canceled or the bus is closed. The returned
// channel is closed once the collector has exited.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.Sink) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				record(sink, ev)
			}
		}
	}()
	return done
}

func record(sink coremetrics.Sink, ev eventbus.Event) {
	switch e := ev.(type) {
	case events.WriteEvent:
		_ = sink.RecordWrite(e.Category, e.Level)
	case events.DropEvent:
		_ = sink.RecordDrop(e.Category, e.Reason)
	case events.QueueEvent:
		_ = sink.SetQueueDepth(e.Depth)
	case events.RotationEvent:
		_ = sink.RecordRotation(e.Category)
	case events.PurgeEvent:
		_ = sink.RecordPurge(e.Category, e.Err != nil)
	case events.BackupEvent:
		_ = sink.RecordBackup(e.Category, e.Action, e.Err == nil, e.Files, e.Duration)
	}
}

package eventbus

// Event represents an arbitrary event passed on the bus.
type Event interface{}

// EventBus implements a simple publish/subscribe event bus.
type EventBus interface {
	Publish(Event)
	Subscribe() <-chan Event
	Unsubscribe(<-chan Event)
	Close()
}

// DefaultBuffer is the per-subscriber channel capacity used by New. Writers
// publish one event per entry, so subscribers need headroom for bursts.
const DefaultBuffer = 256

// Bus is the default EventBus implementation, an untyped TypedBus.
type Bus struct {
	*TypedBus[Event]
}

// New creates a Bus with DefaultBuffer capacity per subscriber.
func New() *Bus { return NewWithBuffer(DefaultBuffer) }

// NewWithBuffer creates a Bus whose subscriber channels hold n events.
func NewWithBuffer(n int) *Bus { return &Bus{NewTypedWithBuffer[Event](n)} }

// Publish sends e to every subscriber on a nil-safe bus.
func Publish(b EventBus, e Event) {
	if b != nil {
		b.Publish(e)
	}
}

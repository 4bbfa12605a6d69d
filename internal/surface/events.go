package surface

// Event names a lifecycle notification.
type Event string

const (
	// EventSurfaceCreated fires after a surface is registered, populated and
	// presented. It also fires when a surface is refreshed in place.
	EventSurfaceCreated Event = "surface-created"

	// EventSurfaceClosed fires after a surface has been removed.
	EventSurfaceClosed Event = "surface-closed"

	// EventSubsystemInitialized fires once when a session starts.
	EventSubsystemInitialized Event = "subsystem-initialized"

	// EventSubsystemTornDown fires once when a session ends, after all of
	// its surfaces are closed.
	EventSubsystemTornDown Event = "subsystem-torn-down"
)

// Listener receives lifecycle notifications. s is nil for the subsystem
// events.
type Listener func(ev Event, s *Surface)

type subscription struct {
	id uint64
	fn Listener
}

// Bus fans lifecycle events out to subscribers in subscription order. It
// is not safe for concurrent use; like the registry it is driven by the
// single thread issuing commands.
type Bus struct {
	next uint64
	subs map[Event][]subscription
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[Event][]subscription)}
}

// Subscribe registers fn for ev and returns a function that removes it.
func (b *Bus) Subscribe(ev Event, fn Listener) (unsubscribe func()) {
	b.next++
	id := b.next
	b.subs[ev] = append(b.subs[ev], subscription{id: id, fn: fn})

	return func() {
		subs := b.subs[ev]
		for i, s := range subs {
			if s.id == id {
				b.subs[ev] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Emit delivers ev to its subscribers. Listeners may subscribe or
// unsubscribe during delivery; changes take effect for the next Emit.
func (b *Bus) Emit(ev Event, s *Surface) {
	subs := append([]subscription(nil), b.subs[ev]...)
	for _, sub := range subs {
		sub.fn(ev, s)
	}
}

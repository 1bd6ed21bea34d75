package ecs

// Event is a generic ECS event payload.
type Event struct {
	Type string
	Data any
}

// LifecycleKind identifies entity lifecycle event types.
type LifecycleKind string

const (
	EntitySpawned   LifecycleKind = "spawned"
	EntityDespawned LifecycleKind = "despawned"
)

// LifecycleEvent is pushed when the bridge spawns or despawns an entity.
type LifecycleEvent struct {
	Entity Entity
	Kind   LifecycleKind
	Node   string
}

// EventQueue is a simple FIFO queue.
type EventQueue struct {
	items []Event
}

// Push adds an event.
func (q *EventQueue) Push(evt Event) {
	if q == nil {
		return
	}
	q.items = append(q.items, evt)
}

// PushLifecycle queues a lifecycle event under its kind.
func (q *EventQueue) PushLifecycle(evt LifecycleEvent) {
	q.Push(Event{Type: string(evt.Kind), Data: evt})
}

// Drain returns all events and clears the queue.
func (q *EventQueue) Drain() []Event {
	if q == nil || len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}

// Len returns the number of queued events.
func (q *EventQueue) Len() int {
	if q == nil {
		return 0
	}
	return len(q.items)
}

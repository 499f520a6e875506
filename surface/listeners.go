package surface

// Subscription is returned by every listener registration. Cancel detaches
// the listener and may be called any number of times.
type Subscription struct {
	cancel func()
}

// NewSubscription wraps a detach func. Hosts implementing Session use it to
// hand out their own subscriptions.
func NewSubscription(cancel func()) *Subscription {
	return &Subscription{cancel: cancel}
}

// Cancel detaches the listener. Safe on nil and after a previous Cancel.
func (s *Subscription) Cancel() {
	if s == nil || s.cancel == nil {
		return
	}
	fn := s.cancel
	s.cancel = nil
	fn()
}

// Listeners is an ordered set of callbacks for one event type.
type Listeners[T any] struct {
	nextID  int
	entries []listenerEntry[T]
}

type listenerEntry[T any] struct {
	id int
	fn func(T)
}

// Add registers fn and returns its subscription.
func (l *Listeners[T]) Add(fn func(T)) *Subscription {
	l.nextID++
	id := l.nextID
	l.entries = append(l.entries, listenerEntry[T]{id: id, fn: fn})
	return NewSubscription(func() { l.remove(id) })
}

func (l *Listeners[T]) remove(id int) {
	for i, e := range l.entries {
		if e.id == id {
			l.entries = append(l.entries[:i:i], l.entries[i+1:]...)
			return
		}
	}
}

// Emit calls every listener in registration order. Listeners added or
// removed during Emit take effect on the next call.
func (l *Listeners[T]) Emit(v T) {
	if len(l.entries) == 0 {
		return
	}
	snapshot := make([]listenerEntry[T], len(l.entries))
	copy(snapshot, l.entries)
	for _, e := range snapshot {
		e.fn(v)
	}
}

// Len returns the number of attached listeners.
func (l *Listeners[T]) Len() int {
	return len(l.entries)
}

package core

// maxNotifyDepth is how deep change notifications may nest. A listener may
// override the value it is being notified about once; further nested sets
// still take effect but are not announced.
const maxNotifyDepth = 2

// Subscription detaches a listener.
type Subscription func()

type listener[T any] struct {
	id uint64
	fn func(old, new T)
}

// property is a value with synchronous change notification.
type property[T any] struct {
	name      string
	value     T
	equal     func(a, b T) bool
	listeners []listener[T]
	nextID    uint64
	depth     int
	// version counts stored changes; a notification stops once it is stale.
	version uint64
	// onSuppressed reports a notification dropped because of nesting.
	onSuppressed func(name string)
}

func newProperty[T any](name string, initial T, equal func(a, b T) bool) *property[T] {
	return &property[T]{name: name, value: initial, equal: equal}
}

func (p *property[T]) Get() T { return p.value }

// Set stores v and notifies listeners when it differs from the current value.
// It reports whether the value changed. Listeners not yet notified when one of
// them overrides v hear only about the override.
func (p *property[T]) Set(v T) bool {
	old := p.value
	if p.equal != nil && p.equal(old, v) {
		return false
	}
	p.value = v
	p.version++
	version := p.version
	if p.depth >= maxNotifyDepth {
		if p.onSuppressed != nil {
			p.onSuppressed(p.name)
		}
		return true
	}
	p.depth++
	defer func() { p.depth-- }()
	// snapshot so listeners may unsubscribe while being notified
	ls := append([]listener[T](nil), p.listeners...)
	for _, l := range ls {
		// a listener overrode v; the nested Set owns the remaining delivery
		if p.version != version {
			break
		}
		l.fn(old, v)
	}
	return true
}

func (p *property[T]) Subscribe(fn func(old, new T)) Subscription {
	p.nextID++
	id := p.nextID
	p.listeners = append(p.listeners, listener[T]{id: id, fn: fn})
	return func() {
		for i, l := range p.listeners {
			if l.id == id {
				p.listeners = append(p.listeners[:i], p.listeners[i+1:]...)
				return
			}
		}
	}
}

func comparableEqual[T comparable](a, b T) bool { return a == b }

package ecs

import (
	"fmt"
	"reflect"
)

// Registry owns the entity slots, one dense store per registered component
// type, and the singleton values. It is not safe for concurrent use; the
// simulation facade serializes access.
type Registry struct {
	// slots[i] holds the entity currently associated with slot i. A slot is
	// live iff its index part equals i; otherwise the index part is the next
	// link of the destroyed-slot list (entt-style implicit freelist).
	slots []Entity
	free  uint32

	stores       []erasedStore
	storesByType map[reflect.Type]int

	singletons map[reflect.Type]any
}

// NewRegistry returns an empty registry with no component types registered.
func NewRegistry() *Registry {
	return &Registry{
		free:         nullIndex,
		storesByType: map[reflect.Type]int{},
		singletons:   map[reflect.Type]any{},
	}
}

// Create returns a fresh entity, recycling a destroyed slot when one is
// available.
func (r *Registry) Create() Entity {
	if r.free != nullIndex {
		idx := r.free
		r.free = r.slots[idx].Index()
		e := makeEntity(idx, r.slots[idx].Version())
		r.slots[idx] = e
		return e
	}
	e := makeEntity(uint32(len(r.slots)), 0)
	r.slots = append(r.slots, e)
	return e
}

// Destroy removes every component of e and returns its slot to the freelist
// with a bumped version.
func (r *Registry) Destroy(e Entity) error {
	if !r.Valid(e) {
		return fmt.Errorf("destroy: unknown entity %d", uint64(e))
	}
	for _, s := range r.stores {
		s.remove(e)
	}
	idx := e.Index()
	r.slots[idx] = makeEntity(r.free, e.Version()+1)
	r.free = idx
	return nil
}

// Valid reports whether e refers to a live entity.
func (r *Registry) Valid(e Entity) bool {
	idx := e.Index()
	return uint64(idx) < uint64(len(r.slots)) && r.slots[idx] == e
}

// Slots exposes the raw entity slot array, live and destroyed slots alike.
// Serializing it verbatim preserves the recycling history.
func (r *Registry) Slots() []Entity {
	return r.slots
}

// Alive returns the live entities in slot order.
func (r *Registry) Alive() []Entity {
	out := make([]Entity, 0, len(r.slots))
	for i, e := range r.slots {
		if e.Index() == uint32(i) {
			out = append(out, e)
		}
	}
	return out
}

// RestoreSlots replaces the entity slot array with a serialized one and
// reconstructs the destroyed-slot list from the index links embedded in it.
func (r *Registry) RestoreSlots(slots []Entity) error {
	destroyed := map[uint32]bool{}
	for i, e := range slots {
		if e.Index() != uint32(i) {
			destroyed[uint32(i)] = true
		}
	}
	// The head of the list is the destroyed slot no other destroyed slot
	// links to.
	head := nullIndex
	if len(destroyed) > 0 {
		linked := map[uint32]bool{}
		for i := range destroyed {
			next := slots[i].Index()
			if next != nullIndex {
				linked[next] = true
			}
		}
		for i := range destroyed {
			if !linked[i] {
				if head != nullIndex {
					return fmt.Errorf("restore: entity freelist has multiple heads")
				}
				head = i
			}
		}
		// Walk the chain to reject cycles or links to live slots.
		seen := 0
		for cur := head; cur != nullIndex; cur = slots[cur].Index() {
			if !destroyed[cur] {
				return fmt.Errorf("restore: entity freelist links to live slot %d", cur)
			}
			seen++
			if seen > len(destroyed) {
				return fmt.Errorf("restore: entity freelist is cyclic")
			}
		}
		if seen != len(destroyed) {
			return fmt.Errorf("restore: entity freelist does not cover all destroyed slots")
		}
	}
	r.slots = append(r.slots[:0], slots...)
	r.free = head
	for _, s := range r.stores {
		s.clear()
	}
	return nil
}

// Stamp deep-copies every component of src onto dst.
func (r *Registry) Stamp(dst, src Entity) error {
	if !r.Valid(dst) || !r.Valid(src) {
		return fmt.Errorf("stamp: unknown entity")
	}
	for _, s := range r.stores {
		s.stamp(dst, src)
	}
	return nil
}

// Visit calls fn with the type of every component attached to e, in
// registration order.
func (r *Registry) Visit(e Entity, fn func(reflect.Type)) {
	for _, s := range r.stores {
		if s.has(e) {
			fn(s.typeOf())
		}
	}
}

// SetSingleton stores v as the singleton for its type.
func SetSingleton[T any](r *Registry, v T) {
	r.singletons[reflect.TypeOf((*T)(nil)).Elem()] = &v
}

// Singleton returns the singleton of type T, creating a zero value on first
// access.
func Singleton[T any](r *Registry) *T {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if v, ok := r.singletons[t]; ok {
		return v.(*T)
	}
	v := new(T)
	r.singletons[t] = v
	return v
}

// HasSingleton reports whether a singleton of type T has been set.
func HasSingleton[T any](r *Registry) bool {
	_, ok := r.singletons[reflect.TypeOf((*T)(nil)).Elem()]
	return ok
}

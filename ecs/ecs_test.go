package ecs

import (
	"reflect"
	"testing"
)

type position struct {
	X, Y int32
}

type tag struct{}

type holder struct {
	Values []int
}

func newTestRegistry() *Registry {
	r := NewRegistry()
	RegisterComponent[position](r)
	RegisterComponent[tag](r)
	RegisterComponentFunc(r, func(h holder) holder {
		out := holder{Values: make([]int, len(h.Values))}
		copy(out.Values, h.Values)
		return out
	})
	return r
}

func TestCreateDestroyRecycle(t *testing.T) {
	r := newTestRegistry()

	a := r.Create()
	b := r.Create()
	if a == b {
		t.Fatal("distinct creates returned the same entity")
	}
	if !r.Valid(a) || !r.Valid(b) {
		t.Fatal("fresh entities should be valid")
	}

	if err := r.Destroy(a); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	if r.Valid(a) {
		t.Fatal("destroyed entity still valid")
	}

	c := r.Create()
	if c.Index() != a.Index() {
		t.Errorf("expected slot %d to be recycled, got %d", a.Index(), c.Index())
	}
	if c.Version() != a.Version()+1 {
		t.Errorf("recycled version = %d, want %d", c.Version(), a.Version()+1)
	}
	if r.Valid(a) {
		t.Error("stale handle valid after recycle")
	}
	if !r.Valid(c) {
		t.Error("recycled entity invalid")
	}
}

func TestDestroyUnknownEntity(t *testing.T) {
	r := newTestRegistry()
	e := r.Create()
	r.Destroy(e)

	if err := r.Destroy(e); err == nil {
		t.Error("double destroy should fail")
	}
	if _, err := Get[position](r, e); err == nil {
		t.Error("get on destroyed entity should fail")
	}
	if _, err := Assign(r, e, position{}); err == nil {
		t.Error("assign on destroyed entity should fail")
	}
}

func TestAssignGetRemove(t *testing.T) {
	r := newTestRegistry()
	e := r.Create()

	if Has[position](r, e) {
		t.Fatal("fresh entity should not have position")
	}
	if _, err := Get[position](r, e); err == nil {
		t.Fatal("get of missing component should fail")
	}

	if _, err := Assign(r, e, position{X: 3, Y: 4}); err != nil {
		t.Fatalf("assign: %v", err)
	}
	p, err := Get[position](r, e)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p.X != 3 || p.Y != 4 {
		t.Errorf("got (%d, %d), want (3, 4)", p.X, p.Y)
	}

	p.X = 9
	p2, _ := Get[position](r, e)
	if p2.X != 9 {
		t.Error("mutation through pointer not visible")
	}

	if err := Remove[position](r, e); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if Has[position](r, e) {
		t.Error("component present after remove")
	}
	if err := Remove[position](r, e); err == nil {
		t.Error("removing a missing component should fail")
	}
}

func TestSwapRemoveKeepsDense(t *testing.T) {
	r := newTestRegistry()
	var es []Entity
	for i := 0; i < 4; i++ {
		e := r.Create()
		Assign(r, e, position{X: int32(i)})
		es = append(es, e)
	}

	Remove[position](r, es[1])

	pool := Pool[position](r)
	if pool.Len() != 3 {
		t.Fatalf("len = %d, want 3", pool.Len())
	}
	// The last element moved into the hole.
	if pool.Entities()[1] != es[3] {
		t.Errorf("expected %d at dense slot 1, got %d", es[3], pool.Entities()[1])
	}
	for i, e := range pool.Entities() {
		p, _ := Get[position](r, e)
		if &pool.Items()[i] != p {
			t.Error("sparse index and dense arrays disagree")
		}
	}
}

func TestDestroyRemovesAllComponents(t *testing.T) {
	r := newTestRegistry()
	e := r.Create()
	Assign(r, e, position{X: 1})
	Assign(r, e, tag{})

	r.Destroy(e)

	if Pool[position](r).Len() != 0 || Pool[tag](r).Len() != 0 {
		t.Error("destroy left components behind")
	}
}

func TestStampDeepCopies(t *testing.T) {
	r := newTestRegistry()
	src := r.Create()
	dst := r.Create()
	Assign(r, src, position{X: 7})
	Assign(r, src, holder{Values: []int{1, 2, 3}})

	if err := r.Stamp(dst, src); err != nil {
		t.Fatalf("stamp: %v", err)
	}

	p, err := Get[position](r, dst)
	if err != nil || p.X != 7 {
		t.Fatalf("stamped position missing or wrong: %v", err)
	}

	h, _ := Get[holder](r, dst)
	h.Values[0] = 99
	orig, _ := Get[holder](r, src)
	if orig.Values[0] == 99 {
		t.Error("stamp shared slice memory with source")
	}
}

func TestVisitOrder(t *testing.T) {
	r := newTestRegistry()
	e := r.Create()
	Assign(r, e, holder{})
	Assign(r, e, position{})

	var seen []reflect.Type
	r.Visit(e, func(tp reflect.Type) {
		seen = append(seen, tp)
	})
	want := []reflect.Type{
		reflect.TypeOf(position{}),
		reflect.TypeOf(holder{}),
	}
	if !reflect.DeepEqual(seen, want) {
		t.Errorf("visit order %v, want registration order %v", seen, want)
	}
}

func TestEach2(t *testing.T) {
	r := newTestRegistry()
	both := r.Create()
	Assign(r, both, position{X: 1})
	Assign(r, both, tag{})
	posOnly := r.Create()
	Assign(r, posOnly, position{X: 2})

	var visited []Entity
	Each2(r, func(e Entity, _ *position, _ *tag) {
		visited = append(visited, e)
	})
	if len(visited) != 1 || visited[0] != both {
		t.Errorf("joint view visited %v, want only %d", visited, both)
	}
}

func TestSingletons(t *testing.T) {
	r := newTestRegistry()

	if HasSingleton[position](r) {
		t.Fatal("singleton set before SetSingleton")
	}
	SetSingleton(r, position{X: 5})
	if !HasSingleton[position](r) {
		t.Fatal("singleton missing after SetSingleton")
	}
	p := Singleton[position](r)
	if p.X != 5 {
		t.Errorf("singleton X = %d, want 5", p.X)
	}
	p.X = 6
	if Singleton[position](r).X != 6 {
		t.Error("singleton mutation not visible")
	}
}

func TestRestoreSlotsRoundTrip(t *testing.T) {
	r := newTestRegistry()
	var es []Entity
	for i := 0; i < 5; i++ {
		es = append(es, r.Create())
	}
	r.Destroy(es[1])
	r.Destroy(es[3])

	saved := append([]Entity(nil), r.Slots()...)

	r2 := newTestRegistry()
	if err := r2.RestoreSlots(saved); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !reflect.DeepEqual(r2.Slots(), saved) {
		t.Fatal("slots differ after restore")
	}
	for _, e := range es {
		if r.Valid(e) != r2.Valid(e) {
			t.Errorf("validity of %d differs after restore", e)
		}
	}

	// Recycling proceeds identically in both registries.
	for i := 0; i < 3; i++ {
		if a, b := r.Create(), r2.Create(); a != b {
			t.Fatalf("create %d diverged after restore: %d vs %d", i, a, b)
		}
	}
}

func TestRestoreSlotsRejectsCorruptFreelist(t *testing.T) {
	r := newTestRegistry()

	// Two destroyed slots both terminating the chain: two heads.
	bad := []Entity{
		makeEntity(nullIndex, 1),
		makeEntity(nullIndex, 1),
	}
	if err := r.RestoreSlots(bad); err == nil {
		t.Error("expected corrupt freelist to be rejected")
	}

	// A destroyed slot linking to a live slot.
	bad = []Entity{
		makeEntity(1, 1),
		makeEntity(1, 0),
	}
	if err := r.RestoreSlots(bad); err == nil {
		t.Error("expected link to live slot to be rejected")
	}
}

package systems

import (
	"testing"

	"github.com/MidZik/gridworld/components"
	"github.com/MidZik/gridworld/ecs"
	"github.com/MidZik/gridworld/events"
)

func TestUpdateIncrementsTickByOne(t *testing.T) {
	r := newTestRegistry(3, 3)
	for i := 0; i < 5; i++ {
		before := ecs.Singleton[components.STickCounter](r).Tick
		Update(r)
		after := ecs.Singleton[components.STickCounter](r).Tick
		if after != before+1 {
			t.Fatalf("tick went %d -> %d", before, after)
		}
	}
}

func TestUpdatePublishesStagedEvents(t *testing.T) {
	r := newTestRegistry(3, 3)
	log := ecs.Singleton[components.SEventsLog](r)
	log.LogEvent(events.Event{Name: "stale", Data: events.Null()})
	log.EventsLastTick = []events.Event{{Name: "old", Data: events.Null()}}

	Update(r)

	if len(log.NewEvents) != 0 {
		t.Error("staging buffer not cleared")
	}
	if len(log.EventsLastTick) != 1 || log.EventsLastTick[0].Name != "stale" {
		t.Errorf("published events = %v", log.EventsLastTick)
	}

	// The next tick stages nothing (off-schedule), so publication empties.
	Update(r)
	if len(log.EventsLastTick) != 0 {
		t.Errorf("events survived an empty tick: %v", log.EventsLastTick)
	}
}

func TestUpdateLeavesForcesZero(t *testing.T) {
	r := newTestRegistry(4, 4)
	e := placeAt(t, r, 0, 0)
	ecs.Assign(r, e, components.RandomMover{})
	ecs.Assign(r, e, components.Moveable{})
	ecs.Assign(r, e, defaultTestRNG())

	for i := 0; i < 10; i++ {
		Update(r)
		checkForcesZero(t, r)
		checkWorldConsistent(t, r)
	}
}

func TestFirstUpdateDoesNotRunEvolution(t *testing.T) {
	r := newTestRegistry(4, 4)
	e := placeAt(t, r, 0, 0)
	ecs.Assign(r, e, components.Scorable{})

	Update(r)

	if tick := ecs.Singleton[components.STickCounter](r).Tick; tick != 1 {
		t.Fatalf("tick = %d, want 1", tick)
	}
	// The evolution gate reads the post-increment tick, so the first
	// pipeline invocation (tick 1) never triggers it.
	for _, evt := range ecs.Singleton[components.SEventsLog](r).EventsLastTick {
		if evt.Name == "evolution" {
			t.Error("evolution ran on the first pipeline invocation")
		}
	}
	if !r.Valid(e) {
		t.Error("entity culled on the first pipeline invocation")
	}
}

func TestRebuildWorldDetectsSharedCell(t *testing.T) {
	r := newTestRegistry(3, 3)
	a := r.Create()
	b := r.Create()
	// (0, 0) and (3, 3) normalize to the same cell on a 3x3 torus.
	ecs.Assign(r, a, components.Position{X: 0, Y: 0})
	ecs.Assign(r, b, components.Position{X: 3, Y: 3})

	if err := RebuildWorld(r); err == nil {
		t.Error("rebuild accepted two entities in one cell")
	}
}

func TestRebuildWorldNormalizes(t *testing.T) {
	r := newTestRegistry(3, 3)
	e := r.Create()
	ecs.Assign(r, e, components.Position{X: -1, Y: 4})

	if err := RebuildWorld(r); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	world := ecs.Singleton[components.SWorld](r)
	if world.At(2, 1) != e {
		t.Error("position not normalized into the expected cell")
	}
}

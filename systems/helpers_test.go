package systems

import (
	"testing"

	"github.com/MidZik/gridworld/components"
	"github.com/MidZik/gridworld/ecs"
	"github.com/MidZik/gridworld/pcg"
)

// newTestRegistry builds a registry with every component registered and a
// width x height world.
func newTestRegistry(width, height int32) *ecs.Registry {
	r := ecs.NewRegistry()
	ecs.RegisterComponent[components.Position](r)
	ecs.RegisterComponent[components.Moveable](r)
	ecs.RegisterComponent[components.Name](r)
	ecs.RegisterComponent[components.RNG](r)
	ecs.RegisterComponentFunc(r, components.SimpleBrain.Clone)
	ecs.RegisterComponent[components.SimpleBrainSeer](r)
	ecs.RegisterComponent[components.SimpleBrainMover](r)
	ecs.RegisterComponent[components.Predation](r)
	ecs.RegisterComponent[components.Scorable](r)
	ecs.RegisterComponent[components.RandomMover](r)

	world := components.SWorld{}
	world.Reset(width, height)
	ecs.SetSingleton(r, components.STickCounter{})
	ecs.SetSingleton(r, world)
	ecs.SetSingleton(r, components.SEventsLog{})
	ecs.SetSingleton(r, components.NewSSimulationConfig())
	ecs.SetSingleton(r, components.RNG(pcg.New(1, 1)))
	return r
}

// placeAt creates an entity with a Position and registers it on the map.
func placeAt(t *testing.T, r *ecs.Registry, x, y int32) ecs.Entity {
	t.Helper()
	e := r.Create()
	if _, err := ecs.Assign(r, e, components.Position{X: x, Y: y}); err != nil {
		t.Fatalf("assign position: %v", err)
	}
	world := ecs.Singleton[components.SWorld](r)
	if world.At(x, y) != ecs.NullEntity {
		t.Fatalf("cell (%d, %d) already occupied", x, y)
	}
	world.Set(x, y, e)
	return e
}

func pushWith(t *testing.T, r *ecs.Registry, e ecs.Entity, xf, yf int32) {
	t.Helper()
	if _, err := ecs.Assign(r, e, components.Moveable{XForce: xf, YForce: yf}); err != nil {
		t.Fatalf("assign moveable: %v", err)
	}
}

func positionOf(t *testing.T, r *ecs.Registry, e ecs.Entity) components.Position {
	t.Helper()
	p, err := ecs.Get[components.Position](r, e)
	if err != nil {
		t.Fatalf("get position: %v", err)
	}
	return *p
}

// checkWorldConsistent verifies the map/Position bijection.
func checkWorldConsistent(t *testing.T, r *ecs.Registry) {
	t.Helper()
	world := ecs.Singleton[components.SWorld](r)

	seen := map[ecs.Entity]int32{}
	for idx, e := range world.Map {
		if e == ecs.NullEntity {
			continue
		}
		pos, err := ecs.Get[components.Position](r, e)
		if err != nil {
			t.Fatalf("map cell %d holds entity %d without Position", idx, e)
		}
		if world.MapIndex(pos.X, pos.Y) != int32(idx) {
			t.Fatalf("entity %d at map cell %d but Position (%d, %d)", e, idx, pos.X, pos.Y)
		}
		if prev, dup := seen[e]; dup {
			t.Fatalf("entity %d appears at cells %d and %d", e, prev, idx)
		}
		seen[e] = int32(idx)
	}
	ecs.Each(r, func(e ecs.Entity, pos *components.Position) {
		if world.At(pos.X, pos.Y) != e {
			t.Fatalf("entity %d Position (%d, %d) not reflected in map", e, pos.X, pos.Y)
		}
	})
}

func defaultTestRNG() components.RNG {
	return components.RNG(pcg.New(99, 7))
}

func checkForcesZero(t *testing.T, r *ecs.Registry) {
	t.Helper()
	ecs.Each(r, func(e ecs.Entity, m *components.Moveable) {
		if m.XForce != 0 || m.YForce != 0 {
			t.Fatalf("entity %d forces (%d, %d) after movement", e, m.XForce, m.YForce)
		}
	})
}

package systems

import (
	"testing"

	"github.com/MidZik/gridworld/components"
	"github.com/MidZik/gridworld/ecs"
)

func TestSimpleBrainCalcPreservesBias(t *testing.T) {
	r := newTestRegistry(3, 3)
	e := r.Create()

	// Two layers: 3-wide (bias + 2) -> 3-wide (bias + 2) -> 2-wide output.
	brain := components.NewSimpleBrain(2, 2, 2)
	// First layer: each hidden neuron sums the whole input.
	for row := 0; row < 3; row++ {
		for col := 0; col < 2; col++ {
			brain.Synapses[0].Set(row, col, 1)
		}
	}
	// Second layer: pass hidden straight through.
	brain.Synapses[1].Set(1, 0, 1)
	brain.Synapses[1].Set(2, 1, 1)

	brain.Neurons[0].Data[1] = 2
	brain.Neurons[0].Data[2] = -5 // rectified away before the product
	ecs.Assign(r, e, brain)

	SimpleBrainCalc(r)

	b, _ := ecs.Get[components.SimpleBrain](r, e)
	if b.Neurons[0].Data[2] != 0 {
		t.Errorf("input not rectified in place: %v", b.Neurons[0].Data[2])
	}
	if b.Neurons[1].Data[0] != 1 {
		t.Errorf("hidden bias overwritten: %v", b.Neurons[1].Data[0])
	}
	// bias(1) + 2 + 0 = 3 in both hidden slots.
	if b.Neurons[1].Data[1] != 3 || b.Neurons[1].Data[2] != 3 {
		t.Errorf("hidden = (%v, %v), want (3, 3)", b.Neurons[1].Data[1], b.Neurons[1].Data[2])
	}
	if b.Neurons[2].Data[0] != 3 || b.Neurons[2].Data[1] != 3 {
		t.Errorf("output = (%v, %v), want (3, 3)", b.Neurons[2].Data[0], b.Neurons[2].Data[1])
	}
}

func TestSimpleBrainCalcRectifiesOutput(t *testing.T) {
	r := newTestRegistry(3, 3)
	e := r.Create()

	brain := components.NewSimpleBrain(1, 1)
	brain.Synapses[0].Set(0, 0, -1) // bias contributes -1
	brain.Synapses[0].Set(1, 0, 0)
	ecs.Assign(r, e, brain)

	SimpleBrainCalc(r)

	b, _ := ecs.Get[components.SimpleBrain](r, e)
	if got := b.Neurons[1].Data[0]; got != 0 {
		t.Errorf("output = %v, want 0 after final ReLU", got)
	}
}

func TestSimpleBrainSeerWritesDiamond(t *testing.T) {
	r := newTestRegistry(5, 5)

	seer := placeAt(t, r, 2, 2)
	brain := components.NewSimpleBrain(12, 4)
	ecs.Assign(r, seer, brain)
	ecs.Assign(r, seer, components.SimpleBrainSeer{NeuronOffset: 1, SightRadius: 1})

	// Predator directly north, plain entity directly east.
	predator := placeAt(t, r, 2, 1)
	ecs.Assign(r, predator, components.NewPredation())
	placeAt(t, r, 3, 2)

	SimpleBrainSeer(r)

	b, _ := ecs.Get[components.SimpleBrain](r, seer)
	input := b.Neurons[0].Data

	// Diamond order for r=1: (0,-1) (-1,0) (0,0) (1,0) (0,1).
	want := []float32{
		1, 0, // predator north
		0, 0, // empty west
		0, 1, // self (non-predator)
		0, 1, // plain entity east
		0, 0, // empty south
	}
	got := input[1 : 1+len(want)]
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("input[%d] = %v, want %v (full: %v)", i+1, got[i], want[i], got)
			break
		}
	}
	if input[0] != 1 {
		t.Errorf("bias neuron disturbed: %v", input[0])
	}
}

func TestSimpleBrainSeerWrapsAroundEdge(t *testing.T) {
	r := newTestRegistry(3, 3)

	seer := placeAt(t, r, 0, 0)
	brain := components.NewSimpleBrain(12, 4)
	ecs.Assign(r, seer, brain)
	ecs.Assign(r, seer, components.SimpleBrainSeer{NeuronOffset: 1, SightRadius: 1})

	// West of (0,0) wraps to (2,0).
	predator := placeAt(t, r, 2, 0)
	ecs.Assign(r, predator, components.NewPredation())

	SimpleBrainSeer(r)

	b, _ := ecs.Get[components.SimpleBrain](r, seer)
	input := b.Neurons[0].Data
	// Cell order: (0,-1) (-1,0) (0,0) (1,0) (0,1); west is index 1.
	if input[3] != 1 || input[4] != 0 {
		t.Errorf("wrapped west cell = (%v, %v), want predator (1, 0)", input[3], input[4])
	}
}

func TestSimpleBrainMoverAppliesForces(t *testing.T) {
	r := newTestRegistry(3, 3)
	e := r.Create()

	brain := components.NewSimpleBrain(2, 4)
	ecs.Assign(r, e, brain)
	ecs.Assign(r, e, components.SimpleBrainMover{NeuronOffset: 0})
	ecs.Assign(r, e, components.Moveable{})

	b, _ := ecs.Get[components.SimpleBrain](r, e)
	out := b.Neurons[len(b.Neurons)-1].Data
	out[0] = 1.9 // truncates to 1
	out[1] = 0.5 // truncates to 0
	out[2] = 3
	out[3] = 2.2 // truncates to 2

	SimpleBrainMover(r)

	m, _ := ecs.Get[components.Moveable](r, e)
	if m.XForce != 4 || m.YForce != 4 {
		t.Errorf("forces = (%d, %d), want (4, 4)", m.XForce, m.YForce)
	}
}

func TestRandomMovementSingleAxis(t *testing.T) {
	r := newTestRegistry(3, 3)
	// These lack an RNG on purpose; the system must skip them.
	for i := 0; i < 8; i++ {
		e := r.Create()
		ecs.Assign(r, e, components.RandomMover{})
		ecs.Assign(r, e, components.Moveable{})
	}
	withRNG := r.Create()
	ecs.Assign(r, withRNG, components.RandomMover{})
	ecs.Assign(r, withRNG, components.Moveable{})
	ecs.Assign(r, withRNG, defaultTestRNG())

	RandomMovement(r)

	m, _ := ecs.Get[components.Moveable](r, withRNG)
	if m.XForce != 0 && m.YForce != 0 {
		t.Error("random movement touched both axes in one tick")
	}
	if m.XForce < -3 || m.XForce > 3 || m.YForce < -3 || m.YForce > 3 {
		t.Errorf("force out of range: (%d, %d)", m.XForce, m.YForce)
	}

	ecs.Each2(r, func(e ecs.Entity, _ *components.RandomMover, m *components.Moveable) {
		if e != withRNG && (m.XForce != 0 || m.YForce != 0) {
			t.Errorf("entity %d without RNG was moved", e)
		}
	})
}

func TestRandomMovementDeterministic(t *testing.T) {
	run := func() (int32, int32) {
		r := newTestRegistry(3, 3)
		e := r.Create()
		ecs.Assign(r, e, components.RandomMover{})
		ecs.Assign(r, e, components.Moveable{})
		ecs.Assign(r, e, defaultTestRNG())
		RandomMovement(r)
		m, _ := ecs.Get[components.Moveable](r, e)
		return m.XForce, m.YForce
	}
	x1, y1 := run()
	x2, y2 := run()
	if x1 != x2 || y1 != y2 {
		t.Errorf("same seed diverged: (%d, %d) vs (%d, %d)", x1, y1, x2, y2)
	}
}

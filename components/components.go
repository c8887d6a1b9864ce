// Package components defines the ECS components and singletons for the
// simulation.
package components

import (
	"github.com/MidZik/gridworld/pcg"
)

// Position is an entity's location in world coordinates. Values are not
// normalized until read through the spatial index.
type Position struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
}

// Moveable accumulates movement intent. Forces are reset to zero after
// movement resolution each tick.
type Moveable struct {
	XForce int32 `json:"x_force"`
	YForce int32 `json:"y_force"`
}

// Name is informational: a "family" major name and a "personal" minor name.
type Name struct {
	MajorName string `json:"major_name"`
	MinorName string `json:"minor_name"`
}

// RNG is the per-entity deterministic generator.
type RNG = pcg.PCG32

// SimpleBrainSeer writes what the entity sees into the brain's input layer,
// two neurons per cell of the sight diamond, starting at NeuronOffset.
type SimpleBrainSeer struct {
	NeuronOffset int32 `json:"neuron_offset"`
	SightRadius  int32 `json:"sight_radius"`
}

// NewSimpleBrainSeer returns a seer with the default offset and radius.
func NewSimpleBrainSeer() SimpleBrainSeer {
	return SimpleBrainSeer{NeuronOffset: 1, SightRadius: 2}
}

// SimpleBrainMover reads four consecutive output neurons starting at
// NeuronOffset and turns them into movement forces.
type SimpleBrainMover struct {
	NeuronOffset int32 `json:"neuron_offset"`
}

// Predation marks an entity that hunts Scorable neighbors.
type Predation struct {
	NoPredationUntilTick   uint64 `json:"no_predation_until_tick"`
	TicksBetweenPredations uint32 `json:"ticks_between_predations"`
	PredateAll             bool   `json:"predate_all"`
}

// NewPredation returns a predation component with the default cooldown.
func NewPredation() Predation {
	return Predation{TicksBetweenPredations: 1, PredateAll: true}
}

// RandomMover tags an entity whose movement forces get random jitter.
type RandomMover struct{}

// Scorable carries the score the evolution system selects on.
type Scorable struct {
	Score int32 `json:"score"`
}

package systems

import (
	"github.com/MidZik/gridworld/components"
	"github.com/MidZik/gridworld/ecs"
	"github.com/MidZik/gridworld/neural"
)

// SimpleBrainSeer writes sensory input into each brain's first neuron
// layer: two neurons per cell of the sight diamond, (1,0) for a predator,
// (0,1) for anything else, (0,0) for an empty cell.
func SimpleBrainSeer(reg *ecs.Registry) {
	world := ecs.Singleton[components.SWorld](reg)

	var cells []lookupResult
	ecs.Each3(reg, func(e ecs.Entity, brain *components.SimpleBrain, seer *components.SimpleBrainSeer, position *components.Position) {
		input := brain.Neurons[0]

		offset := seer.NeuronOffset
		cells = mapDataInRadius(world, position.X, position.Y, seer.SightRadius, cells)

		for _, cell := range cells {
			switch {
			case cell.Eid == ecs.NullEntity:
				input.Data[offset] = 0
				input.Data[offset+1] = 0
			case ecs.Has[components.Predation](reg, cell.Eid):
				input.Data[offset] = 1
				input.Data[offset+1] = 0
			default:
				input.Data[offset] = 0
				input.Data[offset+1] = 1
			}
			offset += 2
		}
	})
}

// SimpleBrainCalc propagates activations through every brain. Each layer is
// rectified in place before the product; non-terminal target layers keep
// their leading bias neuron untouched.
func SimpleBrainCalc(reg *ecs.Registry) {
	ecs.Each(reg, func(e ecs.Entity, brain *components.SimpleBrain) {
		last := len(brain.Synapses) - 1
		for i, synapses := range brain.Synapses {
			input := brain.Neurons[i]
			output := brain.Neurons[i+1]

			input.ReLU()

			if i != last {
				neural.MulVec(input, synapses, output.Data[1:])
			} else {
				neural.MulVec(input, synapses, output.Data)
			}
		}
		brain.Neurons[len(brain.Neurons)-1].ReLU()
	})
}

// SimpleBrainMover reads four output neurons per brain and converts them to
// movement forces: +x, -x, +y, -y, each scaled by four and truncated toward
// zero.
func SimpleBrainMover(reg *ecs.Registry) {
	ecs.Each3(reg, func(e ecs.Entity, brain *components.SimpleBrain, mover *components.SimpleBrainMover, moveable *components.Moveable) {
		offset := mover.NeuronOffset
		output := brain.Neurons[len(brain.Neurons)-1]

		moveable.XForce += 4 * int32(output.Data[offset])
		moveable.XForce -= 4 * int32(output.Data[offset+1])
		moveable.YForce += 4 * int32(output.Data[offset+2])
		moveable.YForce -= 4 * int32(output.Data[offset+3])
	})
}

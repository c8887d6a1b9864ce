package components

import (
	"github.com/MidZik/gridworld/neural"
)

// SimpleBrain is a feedforward network stored as alternating neuron
// vectors and synapse matrices. Invariants: len(Neurons) == len(Synapses)+1;
// Neurons[i].Cols() == Synapses[i].Rows; and every non-terminal layer has a
// leading bias neuron the layer product never overwrites, so
// Neurons[i+1].Cols() == Synapses[i].Cols+1 except for the output layer.
type SimpleBrain struct {
	Synapses              []neural.SynapseMat `json:"synapses"`
	Neurons               []neural.NeuronMat  `json:"neurons"`
	ChildMutationChance   float32             `json:"child_mutation_chance"`
	ChildMutationStrength float32             `json:"child_mutation_strength"`
}

// NewSimpleBrain builds a brain from per-layer neuron counts. Every layer
// except the last gets one extra bias neuron; neurons start at one and
// synapses at zero.
func NewSimpleBrain(neuronCounts ...int) SimpleBrain {
	b := SimpleBrain{
		ChildMutationChance:   0.5,
		ChildMutationStrength: 0.2,
	}
	last := len(neuronCounts) - 1
	for i := 0; i < last; i++ {
		in := neuronCounts[i] + 1
		out := neuronCounts[i+1]
		b.Neurons = append(b.Neurons, neural.NewNeuronMat(in))
		b.Synapses = append(b.Synapses, neural.NewSynapseMat(in, out))
	}
	// The output layer has no bias neuron.
	b.Neurons = append(b.Neurons, neural.NewNeuronMat(neuronCounts[last]))
	return b
}

// NewDefaultSimpleBrain returns the stock 26→8→4 topology (27 and 9 wide
// with bias neurons included).
func NewDefaultSimpleBrain() SimpleBrain {
	return NewSimpleBrain(26, 8, 4)
}

// Clone deep-copies the brain, matrices included.
func (b SimpleBrain) Clone() SimpleBrain {
	out := SimpleBrain{
		Synapses:              make([]neural.SynapseMat, len(b.Synapses)),
		Neurons:               make([]neural.NeuronMat, len(b.Neurons)),
		ChildMutationChance:   b.ChildMutationChance,
		ChildMutationStrength: b.ChildMutationStrength,
	}
	for i, m := range b.Synapses {
		out.Synapses[i] = m.Clone()
	}
	for i, v := range b.Neurons {
		out.Neurons[i] = v.Clone()
	}
	return out
}

package systems

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/MidZik/gridworld/components"
	"github.com/MidZik/gridworld/ecs"
	"github.com/MidZik/gridworld/events"
	"github.com/MidZik/gridworld/pcg"
)

// evolutionTickMask gates the evolution system: it runs on the ticks whose
// low thirteen bits are clear, once every 8192 ticks.
const evolutionTickMask = 0x1FFF

// Evolution periodically culls the lowest-scoring entities and repopulates
// the world with mutated children of the winners plus a handful of fresh
// random brains. The whole round is logged as a single "evolution" event.
func Evolution(reg *ecs.Registry) {
	tick := ecs.Singleton[components.STickCounter](reg).Tick
	if tick&evolutionTickMask != 0 {
		return
	}

	cfg := ecs.Singleton[components.SSimulationConfig](reg)
	world := ecs.Singleton[components.SWorld](reg)

	type scored struct {
		e     ecs.Entity
		score int32
	}
	var scores []scored
	ecs.Each(reg, func(e ecs.Entity, s *components.Scorable) {
		scores = append(scores, scored{e, s.Score})
	})

	// Highest score first; entity id is the stable tiebreak.
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].score != scores[j].score {
			return scores[i].score > scores[j].score
		}
		return scores[i].e > scores[j].e
	})

	winnerCount := int(cfg.EvoWinnerCount)
	if winnerCount > len(scores) {
		winnerCount = len(scores)
	}
	winners := scores[:winnerCount]
	losers := scores[winnerCount:]

	// Capture the scoreboard before the losers are destroyed.
	scoredEntities := make(map[string]events.Variant, len(scores))
	for _, s := range scores {
		entry := map[string]events.Variant{
			"score": events.Int(s.score),
		}
		if name, err := ecs.Get[components.Name](reg, s.e); err == nil {
			entry["major_name"] = events.String(name.MajorName)
			entry["minor_name"] = events.String(name.MinorName)
		}
		scoredEntities[entityKey(s.e)] = events.Map(entry)
	}
	winnerIDs := make([]events.Variant, len(winners))
	for i, w := range winners {
		winnerIDs[i] = events.String(entityKey(w.e))
	}
	loserIDs := make([]events.Variant, len(losers))
	for i, l := range losers {
		loserIDs[i] = events.String(entityKey(l.e))
	}

	for _, l := range losers {
		if pos, err := ecs.Get[components.Position](reg, l.e); err == nil {
			world.Set(pos.X, pos.Y, ecs.NullEntity)
		}
		reg.Destroy(l.e)
	}

	available := make([]int32, 0, len(world.Map))
	for i, e := range world.Map {
		if e == ecs.NullEntity {
			available = append(available, int32(i))
		}
	}

	newEntities := map[string]events.Variant{}

	for _, w := range winners {
		parentRNG, err := ecs.Get[components.RNG](reg, w.e)
		if err != nil {
			continue
		}

		child := reg.Create()
		if err := reg.Stamp(child, w.e); err != nil {
			continue
		}

		seed := uint64(parentRNG.Next())
		childRNG, _ := ecs.Get[components.RNG](reg, child)
		childRNG.Seed(seed, seed)

		placeEntity(reg, world, child, childRNG, &available)

		if brain, err := ecs.Get[components.SimpleBrain](reg, child); err == nil {
			mutateBrain(brain, childRNG)
		}
		if name, err := ecs.Get[components.Name](reg, child); err == nil {
			name.MinorName = fmt.Sprintf("T%d-P%d", tick, uint64(w.e))
		}

		newEntities[entityKey(child)] = events.Vec([]events.Variant{
			events.String(entityKey(w.e)),
		})
	}

	for i := 0; i < int(cfg.EvoNewEntityCount); i++ {
		e := reg.Create()
		ecs.Assign(reg, e, components.Name{
			MajorName: fmt.Sprintf("T%d-I%d", tick, i),
			MinorName: fmt.Sprintf("T%d-ROOT", tick),
		})
		seed := tick*3 + uint64(i)
		rng, _ := ecs.Assign(reg, e, components.RNG(pcg.New(seed, seed)))

		brain := components.NewDefaultSimpleBrain()
		for _, synapses := range brain.Synapses {
			for j := range synapses.Data {
				synapses.Data[j] = rng.Float01()*2 - 1
			}
		}
		ecs.Assign(reg, e, brain)

		placeEntity(reg, world, e, rng, &available)

		ecs.Assign(reg, e, components.NewSimpleBrainSeer())
		ecs.Assign(reg, e, components.SimpleBrainMover{})
		ecs.Assign(reg, e, components.Moveable{})
		ecs.Assign(reg, e, components.Scorable{})

		newEntities[entityKey(e)] = events.Vec(nil)
	}

	log := ecs.Singleton[components.SEventsLog](reg)
	log.LogEvent(events.Event{
		Name: "evolution",
		Data: events.Map(map[string]events.Variant{
			"scored_entities": events.Map(scoredEntities),
			"winners":         events.Vec(winnerIDs),
			"losers":          events.Vec(loserIDs),
			"new_entities":    events.Map(newEntities),
		}),
	})
}

// placeEntity drops the entity onto a free cell chosen by its generator,
// consuming the cell with a swap-remove. With no free cell left the entity
// stays off the map.
func placeEntity(reg *ecs.Registry, world *components.SWorld, e ecs.Entity, rng *components.RNG, available *[]int32) {
	cells := *available
	if len(cells) == 0 {
		if ecs.Has[components.Position](reg, e) {
			ecs.Remove[components.Position](reg, e)
		}
		return
	}
	pick := rng.Next() % uint32(len(cells))
	cell := cells[pick]
	cells[pick] = cells[len(cells)-1]
	*available = cells[:len(cells)-1]

	ecs.Assign(reg, e, components.Position{X: world.IndexX(cell), Y: world.IndexY(cell)})
	world.Map[cell] = e
}

// mutateBrain perturbs every synapse weight. Both draws happen for every
// element so the generator stream does not depend on earlier outcomes.
func mutateBrain(brain *components.SimpleBrain, rng *components.RNG) {
	chance := brain.ChildMutationChance
	strength := brain.ChildMutationStrength
	for _, synapses := range brain.Synapses {
		for i := range synapses.Data {
			r1 := rng.Float01()
			r2 := rng.Float01()
			var delta float32
			if r1 <= chance {
				delta = (r2 - 0.5) * strength
			}
			if delta > 1 {
				delta = 1
			} else if delta < -1 {
				delta = -1
			}
			synapses.Data[i] += delta
		}
	}
}

func entityKey(e ecs.Entity) string {
	return strconv.FormatUint(uint64(e), 10)
}

package systems

import (
	"github.com/MidZik/gridworld/components"
	"github.com/MidZik/gridworld/ecs"
)

// Predation lets every predator off cooldown strike the Scorable entities
// in its Manhattan-1 neighborhood: all of them when PredateAll is set,
// otherwise one picked uniformly with the predator's own generator.
func Predation(reg *ecs.Registry) {
	tick := ecs.Singleton[components.STickCounter](reg).Tick
	world := ecs.Singleton[components.SWorld](reg)

	var nearby []lookupResult
	var found []*components.Scorable
	ecs.Each3(reg, func(e ecs.Entity, predation *components.Predation, position *components.Position, rng *components.RNG) {
		if tick < predation.NoPredationUntilTick {
			return
		}

		nearby = entitiesInRadius(world, position.X, position.Y, 1, nearby)

		found = found[:0]
		for _, cell := range nearby {
			if scorable, err := ecs.Get[components.Scorable](reg, cell.Eid); err == nil {
				found = append(found, scorable)
			}
		}

		if len(found) == 0 {
			return
		}

		if predation.PredateAll {
			for _, scorable := range found {
				scorable.Score--
			}
		} else {
			found[rng.Next()%uint32(len(found))].Score--
		}
		predation.NoPredationUntilTick = tick + uint64(predation.TicksBetweenPredations)
	})
}

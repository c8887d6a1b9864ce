// Package systems implements the tick pipeline: eight ordered procedures
// that advance the registry one tick. The ordering is part of the engine's
// contract; changing it changes observable behavior.
package systems

import (
	"fmt"

	"github.com/MidZik/gridworld/components"
	"github.com/MidZik/gridworld/ecs"
)

// Update runs one full tick over the registry.
func Update(reg *ecs.Registry) {
	TickIncrement(reg)
	SimpleBrainSeer(reg)
	SimpleBrainCalc(reg)
	SimpleBrainMover(reg)
	RandomMovement(reg)
	Movement(reg)
	Predation(reg)
	Evolution(reg)
	FinalizeEventLog(reg)
}

// TickIncrement advances the tick counter.
func TickIncrement(reg *ecs.Registry) {
	ecs.Singleton[components.STickCounter](reg).Tick++
}

// FinalizeEventLog publishes the events staged during this tick. Nothing
// else writes EventsLastTick.
func FinalizeEventLog(reg *ecs.Registry) {
	log := ecs.Singleton[components.SEventsLog](reg)
	log.EventsLastTick = log.NewEvents
	log.NewEvents = nil
}

// RebuildWorld rebuilds the spatial index from Position components. It
// fails if two entities normalize onto the same cell.
func RebuildWorld(reg *ecs.Registry) error {
	world := ecs.Singleton[components.SWorld](reg)
	world.ResetSame()

	var conflict error
	ecs.Each(reg, func(e ecs.Entity, pos *components.Position) {
		if conflict != nil {
			return
		}
		if existing := world.At(pos.X, pos.Y); existing != ecs.NullEntity {
			conflict = fmt.Errorf("rebuild world: entities %d and %d share cell (%d, %d)",
				uint64(existing), uint64(e), pos.X, pos.Y)
			return
		}
		world.Set(pos.X, pos.Y, e)
	})
	return conflict
}

// lookupResult is one cell of a neighborhood scan, with the offset it was
// found at.
type lookupResult struct {
	XOffset int32
	YOffset int32
	Eid     ecs.Entity
}

// mapDataInRadius collects every cell of the Manhattan diamond around
// (x, y), occupied or not, in row-major order.
func mapDataInRadius(world *components.SWorld, x, y, radius int32, result []lookupResult) []lookupResult {
	result = result[:0]
	for yOff := -radius; yOff <= radius; yOff++ {
		xRadius := radius - absi32(yOff)
		for xOff := -xRadius; xOff <= xRadius; xOff++ {
			result = append(result, lookupResult{xOff, yOff, world.At(x+xOff, y+yOff)})
		}
	}
	return result
}

// entitiesInRadius collects only the occupied cells of the Manhattan
// diamond around (x, y).
func entitiesInRadius(world *components.SWorld, x, y, radius int32, result []lookupResult) []lookupResult {
	result = result[:0]
	for yOff := -radius; yOff <= radius; yOff++ {
		xRadius := radius - absi32(yOff)
		for xOff := -xRadius; xOff <= xRadius; xOff++ {
			if e := world.At(x+xOff, y+yOff); e != ecs.NullEntity {
				result = append(result, lookupResult{xOff, yOff, e})
			}
		}
	}
	return result
}

func absi32(x int32) int32 {
	if x < 0 {
		return -x
	}
	return x
}

// signi32 returns -1, 0 or 1 matching the sign of x.
func signi32(x int32) int32 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

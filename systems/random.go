package systems

import (
	"github.com/MidZik/gridworld/components"
	"github.com/MidZik/gridworld/ecs"
)

// RandomMovement jitters every random mover's forces: one axis per tick,
// by a draw in [-3, +3].
func RandomMovement(reg *ecs.Registry) {
	ecs.Each3(reg, func(e ecs.Entity, _ *components.RandomMover, moveable *components.Moveable, rng *components.RNG) {
		if rng.Next()%2 == 0 {
			moveable.YForce += int32(rng.Next()%7) - 3
		} else {
			moveable.XForce += int32(rng.Next()%7) - 3
		}
	})
}

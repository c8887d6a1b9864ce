package ecs

// Each iterates every entity carrying A, in the pool's dense insertion
// order. The callback may mutate the component but must not add or remove
// components of type A.
func Each[A any](r *Registry, fn func(Entity, *A)) {
	s := storeFor[A](r)
	for i := range s.entities {
		fn(s.entities[i], &s.items[i])
	}
}

// Each2 iterates entities carrying both A and B. A's pool drives the
// iteration order.
func Each2[A, B any](r *Registry, fn func(Entity, *A, *B)) {
	sa := storeFor[A](r)
	sb := storeFor[B](r)
	for i := range sa.entities {
		e := sa.entities[i]
		pb, ok := sb.pos(e)
		if !ok {
			continue
		}
		fn(e, &sa.items[i], &sb.items[pb])
	}
}

// Each3 iterates entities carrying A, B and C. A's pool drives the
// iteration order.
func Each3[A, B, C any](r *Registry, fn func(Entity, *A, *B, *C)) {
	sa := storeFor[A](r)
	sb := storeFor[B](r)
	sc := storeFor[C](r)
	for i := range sa.entities {
		e := sa.entities[i]
		pb, ok := sb.pos(e)
		if !ok {
			continue
		}
		pc, ok := sc.pos(e)
		if !ok {
			continue
		}
		fn(e, &sa.items[i], &sb.items[pb], &sc.items[pc])
	}
}

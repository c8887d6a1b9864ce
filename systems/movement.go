package systems

import (
	"sort"

	"github.com/MidZik/gridworld/components"
	"github.com/MidZik/gridworld/ecs"
)

// The movement system resolves every push in one pass. Each cell touched by
// a mover becomes a node in a forest keyed by cell index; a mover's source
// node points at its destination node. Trees are resolved from their entry
// nodes; a cycle with no external root elects one of its members as the
// entry. At most one pusher is accepted into any cell, and cyclic pushes
// rotate atomically.
type movementNode struct {
	mapIndex      int32
	childNodes    []*movementNode
	parentNode    *movementNode
	isEntryNode   bool
	eid           ecs.Entity
	position      *components.Position
	netForce      int32
	finalized     bool
	acceptedChild *movementNode
}

// resolver scratch, local to one Movement call. Nodes are keyed by cell
// index so handles stay stable while children are added and removed.
type movementScratch struct {
	nodes map[int32]*movementNode
}

// addMovementInfo normalizes an entity's forces and links its source cell
// to its destination cell in the push graph.
func (sc *movementScratch) addMovementInfo(eid ecs.Entity, world *components.SWorld, moveable *components.Moveable, position *components.Position) {
	absX := absi32(moveable.XForce)
	absY := absi32(moveable.YForce)

	// Equal magnitudes cancel completely: no intent to move.
	if absX-absY == 0 {
		return
	}

	cancellation := absX
	if absY < absX {
		cancellation = absY
	}

	trueX := (absX - cancellation) * signi32(moveable.XForce)
	trueY := (absY - cancellation) * signi32(moveable.YForce)

	newX := position.X
	newY := position.Y
	var netForce int32
	switch {
	case trueX > 0:
		newX++
		netForce = trueX
	case trueX < 0:
		newX--
		netForce = -trueX
	case trueY > 0:
		newY++
		netForce = trueY
	default:
		newY--
		netForce = -trueY
	}

	curIndex := world.MapIndex(position.X, position.Y)
	newIndex := world.MapIndex(newX, newY)

	cur, ok := sc.nodes[curIndex]
	if !ok {
		cur = &movementNode{mapIndex: curIndex, eid: eid}
		sc.nodes[curIndex] = cur
	}

	next, ok := sc.nodes[newIndex]
	if !ok {
		next = &movementNode{mapIndex: newIndex, eid: world.Map[newIndex]}
		sc.nodes[newIndex] = next
		next.isEntryNode = true
	}

	cur.netForce = netForce
	cur.position = position

	if cur.parentNode != next {
		if cur.parentNode != nil {
			siblings := cur.parentNode.childNodes
			for i, c := range siblings {
				if c == cur {
					cur.parentNode.childNodes = append(siblings[:i], siblings[i+1:]...)
					break
				}
			}
		}
		cur.parentNode = next
		next.childNodes = append(next.childNodes, cur)
	}

	// Keep exactly one entry node per connected component: walk upward
	// looking for an entry among our ancestors.
	search := cur.parentNode
	for !search.isEntryNode && search != cur {
		search = search.parentNode
	}

	if search != cur && cur.isEntryNode {
		// Found an entry that is not us; we stop being one.
		cur.isEntryNode = false
	} else if search == cur && !cur.isEntryNode {
		// Walked a full loop without meeting an entry: our cycle has none,
		// so we become it.
		cur.isEntryNode = true
	}
}

// resolveMovement decides, for every node reachable from the entry, which
// child (if any) is accepted into its cell.
func resolveMovement(entry *movementNode) {
	var queue []*movementNode

	switch {
	case entry.parentNode != nil:
		// Cycle case: the entry itself wants to move, so the whole cycle
		// rotates. Everything hanging off the cycle is processed as a tree.
		prev := entry
		cur := entry.parentNode
		for !cur.finalized {
			cur.acceptedChild = prev
			cur.finalized = true
			for _, child := range cur.childNodes {
				if child != prev {
					queue = append(queue, child)
				}
			}
			prev = cur
			cur = cur.parentNode
		}
	case entry.eid != ecs.NullEntity:
		// A static occupant blocks everyone.
		entry.acceptedChild = nil
		entry.finalized = true
		queue = append(queue, entry.childNodes...)
	default:
		// Empty destination: accept the strictly most forceful pusher.
		entry.acceptedChild = strongestChild(entry, &queue)
		entry.finalized = true
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if cur.parentNode.acceptedChild == cur {
			cur.acceptedChild = strongestChild(cur, &queue)
		} else {
			cur.acceptedChild = nil
			queue = append(queue, cur.childNodes...)
		}
		cur.finalized = true
	}
}

// strongestChild returns the child with strictly highest net force, or nil
// on a tie, and enqueues every child for traversal.
func strongestChild(node *movementNode, queue *[]*movementNode) *movementNode {
	var highest *movementNode
	highestForce := int32(-1)
	for _, child := range node.childNodes {
		if child.netForce > highestForce {
			highest = child
			highestForce = child.netForce
		} else if child.netForce == highestForce {
			highest = nil
		}
		*queue = append(*queue, child)
	}
	return highest
}

// executeMovement walks the accepted chain from the entry, shifting each
// accepted entity into its parent's cell. Cycles terminate naturally when
// the walk reaches a cell that already holds the entity being written.
func executeMovement(world *components.SWorld, entry *movementNode) {
	cur := entry
	curIndex := cur.mapIndex

	for cur.acceptedChild != nil && world.Map[curIndex] != cur.acceptedChild.eid {
		world.Map[curIndex] = cur.acceptedChild.eid
		cur.acceptedChild.position.X = world.IndexX(curIndex)
		cur.acceptedChild.position.Y = world.IndexY(curIndex)

		cur = cur.acceptedChild
		curIndex = cur.mapIndex
	}

	// The tail of an open chain vacated its cell but was never written
	// over; clear it.
	if cur.acceptedChild == nil && cur != entry {
		world.Map[curIndex] = ecs.NullEntity
	}
}

// Movement resolves all pushes for this tick and applies them to Positions
// and the world map, then zeroes every Moveable.
func Movement(reg *ecs.Registry) {
	world := ecs.Singleton[components.SWorld](reg)
	scratch := movementScratch{nodes: map[int32]*movementNode{}}

	ecs.Each2(reg, func(eid ecs.Entity, moveable *components.Moveable, position *components.Position) {
		scratch.addMovementInfo(eid, world, moveable, position)
	})

	// Entries are processed in cell order so runs are reproducible.
	entries := make([]*movementNode, 0, len(scratch.nodes))
	for _, node := range scratch.nodes {
		if node.isEntryNode {
			entries = append(entries, node)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].mapIndex < entries[j].mapIndex })

	for _, entry := range entries {
		resolveMovement(entry)
	}
	for _, entry := range entries {
		executeMovement(world, entry)
	}

	ecs.Each(reg, func(_ ecs.Entity, moveable *components.Moveable) {
		moveable.XForce = 0
		moveable.YForce = 0
	})
}

package sim

import (
	"github.com/rotisserie/eris"

	"github.com/MidZik/gridworld/ecs"
	"github.com/MidZik/gridworld/systems"
)

// encodeStateBinary packs the whole registry into the compact little-endian
// envelope: entity slots, singletons in table order, then component pools
// in table order.
func encodeStateBinary(r *ecs.Registry) []byte {
	var w binWriter

	slots := r.Slots()
	w.U64(uint64(len(slots)))
	for _, e := range slots {
		w.U64(uint64(e))
	}

	for i := range singletonTable {
		singletonTable[i].writeBin(r, &w)
	}
	for i := range componentTable {
		componentTable[i].writeAllBin(r, &w)
	}
	return w.Bytes()
}

// decodeStateBinary unpacks a binary envelope into a fresh registry.
func decodeStateBinary(data []byte) (*ecs.Registry, error) {
	rd := newBinReader(data)
	r := newSimulationRegistry()

	n := rd.Count(8)
	slots := make([]ecs.Entity, n)
	for i := range slots {
		slots[i] = ecs.Entity(rd.U64())
	}
	if err := rd.Err(); err != nil {
		return nil, err
	}
	if err := r.RestoreSlots(slots); err != nil {
		return nil, eris.Wrap(ErrInvalidArgument, err.Error())
	}

	for i := range singletonTable {
		if err := singletonTable[i].readBin(r, rd); err != nil {
			return nil, err
		}
	}
	for i := range componentTable {
		if err := componentTable[i].readAllBin(r, rd); err != nil {
			return nil, err
		}
	}
	if err := rd.Done(); err != nil {
		return nil, err
	}

	if err := rebuildSpatialIndex(r); err != nil {
		return nil, err
	}
	return r, nil
}

// rebuildSpatialIndex repopulates the world map from Positions after a
// state load. Two entities on one cell is schema corruption.
func rebuildSpatialIndex(r *ecs.Registry) error {
	if err := systems.RebuildWorld(r); err != nil {
		return eris.Wrap(ErrInternal, err.Error())
	}
	return nil
}

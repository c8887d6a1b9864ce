package sim

import (
	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"

	"github.com/MidZik/gridworld/components"
	"github.com/MidZik/gridworld/ecs"
)

// newSimulationRegistry builds an empty registry with every component type
// registered and every singleton at its default.
func newSimulationRegistry() *ecs.Registry {
	r := ecs.NewRegistry()
	for i := range componentTable {
		componentTable[i].register(r)
	}
	ecs.SetSingleton(r, components.STickCounter{})
	ecs.SetSingleton(r, components.NewSWorld())
	ecs.SetSingleton(r, components.SEventsLog{})
	ecs.SetSingleton(r, components.NewSSimulationConfig())
	ecs.SetSingleton(r, defaultRNG())
	return r
}

// encodeStateJSON renders the whole registry as the state envelope. Keys
// are written in table order so identical states produce identical bytes.
func encodeStateJSON(r *ecs.Registry) ([]byte, error) {
	buf := []byte(`{"entities":[`)
	for i, e := range r.Slots() {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = appendUint(buf, uint64(e))
	}
	buf = append(buf, `],"singletons":{`...)
	for i := range singletonTable {
		if i > 0 {
			buf = append(buf, ',')
		}
		val, err := singletonTable[i].getJSON(r)
		if err != nil {
			return nil, eris.Wrap(err, "encode singleton "+singletonTable[i].name)
		}
		buf = append(buf, '"')
		buf = append(buf, singletonTable[i].name...)
		buf = append(buf, `":`...)
		buf = append(buf, val...)
	}
	buf = append(buf, `},"components":{`...)
	for i := range componentTable {
		if i > 0 {
			buf = append(buf, ',')
		}
		arr, err := componentTable[i].writeAllJSON(r)
		if err != nil {
			return nil, eris.Wrap(err, "encode component "+componentTable[i].name)
		}
		buf = append(buf, '"')
		buf = append(buf, componentTable[i].name...)
		buf = append(buf, `":`...)
		buf = append(buf, arr...)
	}
	return append(buf, '}', '}'), nil
}

type stateEnvelope struct {
	Entities   *[]uint64                  `json:"entities"`
	Singletons map[string]json.RawMessage `json:"singletons"`
	Components map[string]json.RawMessage `json:"components"`
}

// decodeStateJSON parses and validates a state envelope into a fresh
// registry. The caller swaps it in only after success, so a bad envelope
// never corrupts live state.
func decodeStateJSON(data []byte) (*ecs.Registry, error) {
	var env stateEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, eris.Wrap(ErrInvalidArgument, "state is not valid JSON: "+err.Error())
	}
	if env.Entities == nil || env.Singletons == nil || env.Components == nil {
		return nil, eris.Wrap(ErrInvalidArgument, "state envelope must have entities, singletons and components")
	}

	r := newSimulationRegistry()

	slots := make([]ecs.Entity, len(*env.Entities))
	for i, id := range *env.Entities {
		slots[i] = ecs.Entity(id)
	}
	if err := r.RestoreSlots(slots); err != nil {
		return nil, eris.Wrap(ErrInvalidArgument, err.Error())
	}

	for name := range env.Singletons {
		if _, err := singletonByName(name); err != nil {
			return nil, err
		}
	}
	for i := range singletonTable {
		entry := &singletonTable[i]
		raw, ok := env.Singletons[entry.name]
		if !ok {
			if entry.optional {
				continue
			}
			return nil, eris.Wrap(ErrInvalidArgument, "missing singleton "+entry.name)
		}
		if err := entry.setJSON(r, raw); err != nil {
			return nil, err
		}
	}

	for name := range env.Components {
		if _, err := componentByName(name); err != nil {
			return nil, err
		}
	}
	for i := range componentTable {
		entry := &componentTable[i]
		raw, ok := env.Components[entry.name]
		if !ok {
			continue
		}
		if err := entry.readAllJSON(r, raw); err != nil {
			return nil, err
		}
	}

	if err := rebuildSpatialIndex(r); err != nil {
		return nil, err
	}
	return r, nil
}

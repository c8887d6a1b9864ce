package sim

import (
	"reflect"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"

	"github.com/MidZik/gridworld/components"
	"github.com/MidZik/gridworld/ecs"
	"github.com/MidZik/gridworld/neural"
	"github.com/MidZik/gridworld/pcg"
)

// componentEntry is the erased per-type dispatch record. The table below is
// the source of truth for the component-name <-> type mapping and for the
// serialization order of both state envelopes.
type componentEntry struct {
	name   string
	typeOf reflect.Type
	isTag  bool

	register      func(*ecs.Registry)
	has           func(*ecs.Registry, ecs.Entity) bool
	remove        func(*ecs.Registry, ecs.Entity) error
	assignDefault func(*ecs.Registry, ecs.Entity) error
	getJSON       func(*ecs.Registry, ecs.Entity) ([]byte, error)
	replaceJSON   func(*ecs.Registry, ecs.Entity, []byte) error

	writeAllJSON func(*ecs.Registry) ([]byte, error)
	readAllJSON  func(*ecs.Registry, json.RawMessage) error
	writeAllBin  func(*ecs.Registry, *binWriter)
	readAllBin   func(*ecs.Registry, *binReader) error
}

// componentType builds the dispatch record for a value component. def
// produces the value assign_component attaches; pack/unpack are the binary
// codec for one value.
func componentType[T any](name string, register func(*ecs.Registry), def func() T, pack func(*binWriter, *T), unpack func(*binReader) T) componentEntry {
	return componentEntry{
		name:     name,
		typeOf:   reflect.TypeOf((*T)(nil)).Elem(),
		register: register,
		has: func(r *ecs.Registry, e ecs.Entity) bool {
			return ecs.Has[T](r, e)
		},
		remove: func(r *ecs.Registry, e ecs.Entity) error {
			if !r.Valid(e) {
				return eris.Wrap(ErrUnknownEntity, "remove "+name)
			}
			if !ecs.Has[T](r, e) {
				return eris.Wrap(ErrMissingComponent, "remove "+name)
			}
			return ecs.Remove[T](r, e)
		},
		assignDefault: func(r *ecs.Registry, e ecs.Entity) error {
			if !r.Valid(e) {
				return eris.Wrap(ErrUnknownEntity, "assign "+name)
			}
			_, err := ecs.Assign(r, e, def())
			return err
		},
		getJSON: func(r *ecs.Registry, e ecs.Entity) ([]byte, error) {
			if !r.Valid(e) {
				return nil, eris.Wrap(ErrUnknownEntity, "get "+name)
			}
			v, err := ecs.Get[T](r, e)
			if err != nil {
				return nil, eris.Wrap(ErrMissingComponent, "get "+name)
			}
			return json.Marshal(v)
		},
		replaceJSON: func(r *ecs.Registry, e ecs.Entity, data []byte) error {
			if !r.Valid(e) {
				return eris.Wrap(ErrUnknownEntity, "replace "+name)
			}
			if !ecs.Has[T](r, e) {
				return eris.Wrap(ErrMissingComponent, "replace "+name)
			}
			var v T
			if err := json.Unmarshal(data, &v); err != nil {
				return eris.Wrap(ErrInvalidArgument, "replace "+name+": "+err.Error())
			}
			_, err := ecs.Assign(r, e, v)
			return err
		},
		writeAllJSON: func(r *ecs.Registry) ([]byte, error) {
			pool := ecs.Pool[T](r)
			entities := pool.Entities()
			items := pool.Items()
			buf := []byte{'['}
			for i := range entities {
				if i > 0 {
					buf = append(buf, ',')
				}
				com, err := json.Marshal(&items[i])
				if err != nil {
					return nil, err
				}
				buf = append(buf, `{"EID":`...)
				buf = appendUint(buf, uint64(entities[i]))
				buf = append(buf, `,"Com":`...)
				buf = append(buf, com...)
				buf = append(buf, '}')
			}
			return append(buf, ']'), nil
		},
		readAllJSON: func(r *ecs.Registry, raw json.RawMessage) error {
			var items []struct {
				EID uint64          `json:"EID"`
				Com json.RawMessage `json:"Com"`
			}
			if err := json.Unmarshal(raw, &items); err != nil {
				return eris.Wrap(ErrInvalidArgument, name+" array: "+err.Error())
			}
			for _, item := range items {
				var v T
				if err := json.Unmarshal(item.Com, &v); err != nil {
					return eris.Wrap(ErrInvalidArgument, name+" value: "+err.Error())
				}
				if _, err := ecs.Assign(r, ecs.Entity(item.EID), v); err != nil {
					return eris.Wrap(ErrInvalidArgument, name+": "+err.Error())
				}
			}
			return nil
		},
		writeAllBin: func(r *ecs.Registry, w *binWriter) {
			pool := ecs.Pool[T](r)
			entities := pool.Entities()
			items := pool.Items()
			w.U64(uint64(len(entities)))
			for _, e := range entities {
				w.U64(uint64(e))
			}
			for i := range items {
				pack(w, &items[i])
			}
		},
		readAllBin: func(r *ecs.Registry, rd *binReader) error {
			n := rd.Count(8)
			entities := make([]ecs.Entity, n)
			for i := range entities {
				entities[i] = ecs.Entity(rd.U64())
			}
			for _, e := range entities {
				v := unpack(rd)
				if rd.Err() != nil {
					return rd.Err()
				}
				if _, err := ecs.Assign(r, e, v); err != nil {
					return eris.Wrap(ErrInvalidArgument, name+": "+err.Error())
				}
			}
			return rd.Err()
		},
	}
}

// tagType builds the dispatch record for a field-less tag component, stored
// as a bare entity id array in both envelopes.
func tagType[T any](name string) componentEntry {
	entry := componentType[T](name,
		func(r *ecs.Registry) { ecs.RegisterComponent[T](r) },
		func() T { var zero T; return zero },
		func(w *binWriter, v *T) {},
		func(rd *binReader) T { var zero T; return zero },
	)
	entry.isTag = true
	entry.getJSON = func(r *ecs.Registry, e ecs.Entity) ([]byte, error) {
		if !r.Valid(e) {
			return nil, eris.Wrap(ErrUnknownEntity, "get "+name)
		}
		if !ecs.Has[T](r, e) {
			return nil, eris.Wrap(ErrMissingComponent, "get "+name)
		}
		return []byte("null"), nil
	}
	entry.replaceJSON = func(r *ecs.Registry, e ecs.Entity, data []byte) error {
		if !r.Valid(e) {
			return eris.Wrap(ErrUnknownEntity, "replace "+name)
		}
		if !ecs.Has[T](r, e) {
			return eris.Wrap(ErrMissingComponent, "replace "+name)
		}
		return nil
	}
	entry.writeAllJSON = func(r *ecs.Registry) ([]byte, error) {
		entities := ecs.Pool[T](r).Entities()
		buf := []byte{'['}
		for i, e := range entities {
			if i > 0 {
				buf = append(buf, ',')
			}
			buf = appendUint(buf, uint64(e))
		}
		return append(buf, ']'), nil
	}
	entry.readAllJSON = func(r *ecs.Registry, raw json.RawMessage) error {
		var ids []uint64
		if err := json.Unmarshal(raw, &ids); err != nil {
			return eris.Wrap(ErrInvalidArgument, name+" array: "+err.Error())
		}
		var zero T
		for _, id := range ids {
			if _, err := ecs.Assign(r, ecs.Entity(id), zero); err != nil {
				return eris.Wrap(ErrInvalidArgument, name+": "+err.Error())
			}
		}
		return nil
	}
	entry.writeAllBin = func(r *ecs.Registry, w *binWriter) {
		entities := ecs.Pool[T](r).Entities()
		w.U64(uint64(len(entities)))
		for _, e := range entities {
			w.U64(uint64(e))
		}
	}
	entry.readAllBin = func(r *ecs.Registry, rd *binReader) error {
		n := rd.Count(8)
		var zero T
		for i := 0; i < n; i++ {
			e := ecs.Entity(rd.U64())
			if rd.Err() != nil {
				return rd.Err()
			}
			if _, err := ecs.Assign(r, e, zero); err != nil {
				return eris.Wrap(ErrInvalidArgument, name+": "+err.Error())
			}
		}
		return rd.Err()
	}
	return entry
}

// defaultRNG is what assign_component("RNG") produces, the stock pcg32
// demo seeding.
func defaultRNG() components.RNG {
	return pcg.New(0xcafef00dd15ea5e5, 0xa02bdbf7bb3c0a7)
}

// componentTable lists every component in canonical serialization order.
var componentTable = []componentEntry{
	componentType[components.Position]("Position",
		func(r *ecs.Registry) { ecs.RegisterComponent[components.Position](r) },
		func() components.Position { return components.Position{} },
		func(w *binWriter, v *components.Position) {
			w.I32(v.X)
			w.I32(v.Y)
		},
		func(rd *binReader) components.Position {
			return components.Position{X: rd.I32(), Y: rd.I32()}
		},
	),
	componentType[components.Moveable]("Moveable",
		func(r *ecs.Registry) { ecs.RegisterComponent[components.Moveable](r) },
		func() components.Moveable { return components.Moveable{} },
		func(w *binWriter, v *components.Moveable) {
			w.I32(v.XForce)
			w.I32(v.YForce)
		},
		func(rd *binReader) components.Moveable {
			return components.Moveable{XForce: rd.I32(), YForce: rd.I32()}
		},
	),
	componentType[components.Name]("Name",
		func(r *ecs.Registry) { ecs.RegisterComponent[components.Name](r) },
		func() components.Name { return components.Name{} },
		func(w *binWriter, v *components.Name) {
			w.Str(v.MajorName)
			w.Str(v.MinorName)
		},
		func(rd *binReader) components.Name {
			return components.Name{MajorName: rd.Str(), MinorName: rd.Str()}
		},
	),
	componentType[components.RNG]("RNG",
		func(r *ecs.Registry) { ecs.RegisterComponent[components.RNG](r) },
		defaultRNG,
		func(w *binWriter, v *components.RNG) {
			w.Str(v.String())
		},
		func(rd *binReader) components.RNG {
			var rng components.RNG
			if err := rng.Parse(rd.Str()); err != nil {
				rd.fail()
			}
			return rng
		},
	),
	componentType[components.SimpleBrain]("SimpleBrain",
		func(r *ecs.Registry) {
			ecs.RegisterComponentFunc(r, components.SimpleBrain.Clone)
		},
		components.NewDefaultSimpleBrain,
		packSimpleBrain,
		unpackSimpleBrain,
	),
	componentType[components.SimpleBrainSeer]("SimpleBrainSeer",
		func(r *ecs.Registry) { ecs.RegisterComponent[components.SimpleBrainSeer](r) },
		components.NewSimpleBrainSeer,
		func(w *binWriter, v *components.SimpleBrainSeer) {
			w.I32(v.NeuronOffset)
			w.I32(v.SightRadius)
		},
		func(rd *binReader) components.SimpleBrainSeer {
			return components.SimpleBrainSeer{NeuronOffset: rd.I32(), SightRadius: rd.I32()}
		},
	),
	componentType[components.SimpleBrainMover]("SimpleBrainMover",
		func(r *ecs.Registry) { ecs.RegisterComponent[components.SimpleBrainMover](r) },
		func() components.SimpleBrainMover { return components.SimpleBrainMover{} },
		func(w *binWriter, v *components.SimpleBrainMover) {
			w.I32(v.NeuronOffset)
		},
		func(rd *binReader) components.SimpleBrainMover {
			return components.SimpleBrainMover{NeuronOffset: rd.I32()}
		},
	),
	componentType[components.Predation]("Predation",
		func(r *ecs.Registry) { ecs.RegisterComponent[components.Predation](r) },
		components.NewPredation,
		func(w *binWriter, v *components.Predation) {
			w.U64(v.NoPredationUntilTick)
			w.U32(v.TicksBetweenPredations)
			w.Bool(v.PredateAll)
		},
		func(rd *binReader) components.Predation {
			return components.Predation{
				NoPredationUntilTick:   rd.U64(),
				TicksBetweenPredations: rd.U32(),
				PredateAll:             rd.Bool(),
			}
		},
	),
	componentType[components.Scorable]("Scorable",
		func(r *ecs.Registry) { ecs.RegisterComponent[components.Scorable](r) },
		func() components.Scorable { return components.Scorable{} },
		func(w *binWriter, v *components.Scorable) {
			w.I32(v.Score)
		},
		func(rd *binReader) components.Scorable {
			return components.Scorable{Score: rd.I32()}
		},
	),
	tagType[components.RandomMover]("RandomMover"),
}

func packSimpleBrain(w *binWriter, v *components.SimpleBrain) {
	w.F32(v.ChildMutationChance)
	w.F32(v.ChildMutationStrength)
	w.U64(uint64(len(v.Synapses)))
	for _, m := range v.Synapses {
		w.U64(uint64(m.Rows))
		w.U64(uint64(m.Cols))
		for _, f := range m.Data {
			w.F32(f)
		}
	}
	w.U64(uint64(len(v.Neurons)))
	for _, n := range v.Neurons {
		w.U64(uint64(n.N))
		for _, f := range n.Data {
			w.F32(f)
		}
	}
}

func unpackSimpleBrain(rd *binReader) components.SimpleBrain {
	var b components.SimpleBrain
	b.ChildMutationChance = rd.F32()
	b.ChildMutationStrength = rd.F32()
	synCount := rd.Count(16)
	for i := 0; i < synCount; i++ {
		rows := int(rd.U64())
		cols := int(rd.U64())
		if rd.Err() != nil || rows < 0 || cols < 0 || uint64(rows)*uint64(cols) > uint64(len(rd.data)) {
			rd.fail()
			return b
		}
		m := neural.NewSynapseMat(rows, cols)
		for j := range m.Data {
			m.Data[j] = rd.F32()
		}
		b.Synapses = append(b.Synapses, m)
	}
	neuronCount := rd.Count(8)
	for i := 0; i < neuronCount; i++ {
		cols := rd.Count(4)
		n := neural.NewNeuronMat(cols)
		for j := range n.Data {
			n.Data[j] = rd.F32()
		}
		b.Neurons = append(b.Neurons, n)
	}
	return b
}

func componentByName(name string) (*componentEntry, error) {
	for i := range componentTable {
		if componentTable[i].name == name {
			return &componentTable[i], nil
		}
	}
	return nil, eris.Wrap(ErrInvalidArgument, "unknown component name: "+name)
}

func appendUint(buf []byte, v uint64) []byte {
	return strconv.AppendUint(buf, v, 10)
}

package sim

import (
	"sort"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"

	"github.com/MidZik/gridworld/components"
	"github.com/MidZik/gridworld/ecs"
	"github.com/MidZik/gridworld/events"
)

// singletonEntry dispatches by singleton name. Optional singletons may be
// absent on read; the writer always emits them.
type singletonEntry struct {
	name     string
	optional bool

	getJSON  func(*ecs.Registry) ([]byte, error)
	setJSON  func(*ecs.Registry, []byte) error
	writeBin func(*ecs.Registry, *binWriter)
	readBin  func(*ecs.Registry, *binReader) error
}

// singletonTable lists every singleton in canonical serialization order.
var singletonTable = []singletonEntry{
	{
		name:     "SSimulationConfig",
		optional: true,
		getJSON: func(r *ecs.Registry) ([]byte, error) {
			return json.Marshal(ecs.Singleton[components.SSimulationConfig](r))
		},
		setJSON: func(r *ecs.Registry, data []byte) error {
			cfg := ecs.Singleton[components.SSimulationConfig](r)
			if err := json.Unmarshal(data, cfg); err != nil {
				return eris.Wrap(ErrInvalidArgument, "SSimulationConfig: "+err.Error())
			}
			return nil
		},
		writeBin: func(r *ecs.Registry, w *binWriter) {
			cfg := ecs.Singleton[components.SSimulationConfig](r)
			w.Byte(1)
			w.U32(cfg.EvoTicksPerEvolution)
			w.U32(cfg.EvoWinnerCount)
			w.U32(cfg.EvoNewEntityCount)
		},
		readBin: func(r *ecs.Registry, rd *binReader) error {
			if rd.Byte() == 0 {
				return rd.Err()
			}
			cfg := ecs.Singleton[components.SSimulationConfig](r)
			cfg.EvoTicksPerEvolution = rd.U32()
			cfg.EvoWinnerCount = rd.U32()
			cfg.EvoNewEntityCount = rd.U32()
			return rd.Err()
		},
	},
	{
		name: "STickCounter",
		getJSON: func(r *ecs.Registry) ([]byte, error) {
			return json.Marshal(ecs.Singleton[components.STickCounter](r).Tick)
		},
		setJSON: func(r *ecs.Registry, data []byte) error {
			var tick uint64
			if err := json.Unmarshal(data, &tick); err != nil {
				return eris.Wrap(ErrInvalidArgument, "STickCounter: "+err.Error())
			}
			ecs.Singleton[components.STickCounter](r).Tick = tick
			return nil
		},
		writeBin: func(r *ecs.Registry, w *binWriter) {
			w.U64(ecs.Singleton[components.STickCounter](r).Tick)
		},
		readBin: func(r *ecs.Registry, rd *binReader) error {
			ecs.Singleton[components.STickCounter](r).Tick = rd.U64()
			return rd.Err()
		},
	},
	{
		name: "SWorld",
		getJSON: func(r *ecs.Registry) ([]byte, error) {
			world := ecs.Singleton[components.SWorld](r)
			return json.Marshal(struct {
				Width  int32 `json:"width"`
				Height int32 `json:"height"`
			}{world.Width, world.Height})
		},
		setJSON: func(r *ecs.Registry, data []byte) error {
			var dims struct {
				Width  int32 `json:"width"`
				Height int32 `json:"height"`
			}
			if err := json.Unmarshal(data, &dims); err != nil {
				return eris.Wrap(ErrInvalidArgument, "SWorld: "+err.Error())
			}
			if dims.Width <= 0 || dims.Height <= 0 {
				return eris.Wrap(ErrInvalidArgument, "SWorld: dimensions must be positive")
			}
			ecs.Singleton[components.SWorld](r).Reset(dims.Width, dims.Height)
			return nil
		},
		writeBin: func(r *ecs.Registry, w *binWriter) {
			world := ecs.Singleton[components.SWorld](r)
			w.I32(world.Width)
			w.I32(world.Height)
		},
		readBin: func(r *ecs.Registry, rd *binReader) error {
			width := rd.I32()
			height := rd.I32()
			if rd.Err() != nil {
				return rd.Err()
			}
			if width <= 0 || height <= 0 {
				return eris.Wrap(ErrInvalidArgument, "SWorld: dimensions must be positive")
			}
			ecs.Singleton[components.SWorld](r).Reset(width, height)
			return nil
		},
	},
	{
		name: "SEventsLog",
		getJSON: func(r *ecs.Registry) ([]byte, error) {
			log := ecs.Singleton[components.SEventsLog](r)
			evts := log.EventsLastTick
			if evts == nil {
				evts = []events.Event{}
			}
			return json.Marshal(struct {
				EventsLastTick []events.Event `json:"events_last_tick"`
			}{evts})
		},
		setJSON: func(r *ecs.Registry, data []byte) error {
			var parsed struct {
				EventsLastTick []events.Event `json:"events_last_tick"`
			}
			if err := json.Unmarshal(data, &parsed); err != nil {
				return eris.Wrap(ErrInvalidArgument, "SEventsLog: "+err.Error())
			}
			log := ecs.Singleton[components.SEventsLog](r)
			log.EventsLastTick = parsed.EventsLastTick
			log.NewEvents = nil
			return nil
		},
		writeBin: func(r *ecs.Registry, w *binWriter) {
			log := ecs.Singleton[components.SEventsLog](r)
			w.U64(uint64(len(log.EventsLastTick)))
			for _, e := range log.EventsLastTick {
				w.Str(e.Name)
				writeVariant(w, e.Data)
			}
		},
		readBin: func(r *ecs.Registry, rd *binReader) error {
			log := ecs.Singleton[components.SEventsLog](r)
			n := rd.Count(1)
			log.EventsLastTick = nil
			log.NewEvents = nil
			for i := 0; i < n; i++ {
				name := rd.Str()
				data, err := readVariant(rd)
				if err != nil {
					return err
				}
				log.EventsLastTick = append(log.EventsLastTick, events.Event{Name: name, Data: data})
			}
			return rd.Err()
		},
	},
	{
		name:     "RNG",
		optional: true,
		getJSON: func(r *ecs.Registry) ([]byte, error) {
			return json.Marshal(ecs.Singleton[components.RNG](r))
		},
		setJSON: func(r *ecs.Registry, data []byte) error {
			rng := ecs.Singleton[components.RNG](r)
			if err := json.Unmarshal(data, rng); err != nil {
				return eris.Wrap(ErrInvalidArgument, "RNG: "+err.Error())
			}
			return nil
		},
		writeBin: func(r *ecs.Registry, w *binWriter) {
			w.Byte(1)
			w.Str(ecs.Singleton[components.RNG](r).String())
		},
		readBin: func(r *ecs.Registry, rd *binReader) error {
			if rd.Byte() == 0 {
				return rd.Err()
			}
			state := rd.Str()
			if rd.Err() != nil {
				return rd.Err()
			}
			if err := ecs.Singleton[components.RNG](r).Parse(state); err != nil {
				return eris.Wrap(ErrInvalidArgument, "RNG: "+err.Error())
			}
			return nil
		},
	},
}

func singletonByName(name string) (*singletonEntry, error) {
	for i := range singletonTable {
		if singletonTable[i].name == name {
			return &singletonTable[i], nil
		}
	}
	return nil, eris.Wrap(ErrInvalidArgument, "unknown singleton name: "+name)
}

// writeVariant packs a variant with its tag byte leading. Map keys go out
// sorted so identical payloads pack identically.
func writeVariant(w *binWriter, v events.Variant) {
	w.Byte(byte(v.Kind))
	switch v.Kind {
	case events.KindNull:
	case events.KindInt:
		w.I32(v.Int)
	case events.KindFloat:
		w.F64(v.Float)
	case events.KindString:
		w.Str(v.Str)
	case events.KindMap:
		keys := make([]string, 0, len(v.Map))
		for k := range v.Map {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		w.U64(uint64(len(keys)))
		for _, k := range keys {
			w.Str(k)
			writeVariant(w, v.Map[k])
		}
	case events.KindVec:
		w.U64(uint64(len(v.Vec)))
		for _, item := range v.Vec {
			writeVariant(w, item)
		}
	}
}

func readVariant(rd *binReader) (events.Variant, error) {
	tag := events.Kind(rd.Byte())
	switch tag {
	case events.KindNull:
		return events.Null(), rd.Err()
	case events.KindInt:
		return events.Int(rd.I32()), rd.Err()
	case events.KindFloat:
		return events.Float(rd.F64()), rd.Err()
	case events.KindString:
		return events.String(rd.Str()), rd.Err()
	case events.KindMap:
		n := rd.Count(2)
		m := make(map[string]events.Variant, n)
		for i := 0; i < n; i++ {
			k := rd.Str()
			inner, err := readVariant(rd)
			if err != nil {
				return events.Variant{}, err
			}
			m[k] = inner
		}
		return events.Map(m), rd.Err()
	case events.KindVec:
		n := rd.Count(1)
		vec := make([]events.Variant, 0, n)
		for i := 0; i < n; i++ {
			inner, err := readVariant(rd)
			if err != nil {
				return events.Variant{}, err
			}
			vec = append(vec, inner)
		}
		return events.Vec(vec), rd.Err()
	}
	if rd.Err() != nil {
		return events.Variant{}, rd.Err()
	}
	return events.Variant{}, eris.Wrap(ErrInvalidArgument, "unknown variant tag")
}

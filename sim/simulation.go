package sim

import (
	"sync"
	"sync/atomic"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/MidZik/gridworld/components"
	"github.com/MidZik/gridworld/ecs"
	"github.com/MidZik/gridworld/systems"
)

// TickCallback is invoked by the worker after every tick, once it has
// dropped its lock. It may reenter read operations on the same simulation.
type TickCallback func(tick uint64, flags uint64)

// FlagEventsOccurred is set in the callback flags when the finished tick
// published at least one event.
const FlagEventsOccurred uint64 = 1 << 0

// Simulation owns one registry and one background worker. Readers take a
// shared pause-lock so they observe tick-atomic snapshots without stopping
// each other; mutations require the worker stopped.
type Simulation struct {
	controlMu sync.Mutex   // serializes start/stop/request-stop
	simMu     sync.RWMutex // readers/writers lock over the registry

	pauseMu       sync.Mutex
	pauseRequests int
	noPauses      *sync.Cond

	running       atomic.Bool
	stopRequested atomic.Bool
	workerDone    chan struct{}

	callbackMu sync.RWMutex
	callback   TickCallback

	reg    *ecs.Registry
	logger zerolog.Logger
}

// NewSimulation returns a stopped simulation with an empty world.
func NewSimulation() *Simulation {
	s := &Simulation{
		reg:    newSimulationRegistry(),
		logger: zerolog.Nop(),
	}
	s.noPauses = sync.NewCond(&s.pauseMu)
	return s
}

// SetLogger installs the logger the facade and worker report through.
func (s *Simulation) SetLogger(logger zerolog.Logger) {
	s.logger = logger
}

// Close stops the worker. The simulation must not be used afterwards.
func (s *Simulation) Close() {
	s.StopSimulation()
}

// beginRead registers a pause request so the worker parks between ticks,
// then takes shared access.
func (s *Simulation) beginRead() {
	s.pauseMu.Lock()
	s.pauseRequests++
	s.pauseMu.Unlock()
	s.simMu.RLock()
}

func (s *Simulation) endRead() {
	s.simMu.RUnlock()
	s.pauseMu.Lock()
	s.pauseRequests--
	if s.pauseRequests == 0 {
		s.noPauses.Broadcast()
	}
	s.pauseMu.Unlock()
}

// read runs fn under shared access and returns the tick the snapshot was
// taken at.
func (s *Simulation) read(fn func(*ecs.Registry) error) (uint64, error) {
	s.beginRead()
	defer s.endRead()
	tick := ecs.Singleton[components.STickCounter](s.reg).Tick
	if err := fn(s.reg); err != nil {
		return tick, err
	}
	return tick, nil
}

// exclusive runs fn under exclusive access. It fails fast when the worker
// is running and repeats the check under the lock.
func (s *Simulation) exclusive(fn func(*ecs.Registry) error) error {
	if s.running.Load() {
		return eris.Wrap(ErrSimulationRunning, "simulation must be stopped")
	}
	s.simMu.Lock()
	defer s.simMu.Unlock()
	if s.running.Load() {
		return eris.Wrap(ErrSimulationRunning, "simulation must be stopped")
	}
	return fn(s.reg)
}

// GetTick returns the current tick.
func (s *Simulation) GetTick() uint64 {
	tick, _ := s.read(func(*ecs.Registry) error { return nil })
	return tick
}

// GetStateJSON renders the full state envelope and returns the tick the
// snapshot was taken at.
func (s *Simulation) GetStateJSON() (string, uint64, error) {
	var out []byte
	tick, err := s.read(func(r *ecs.Registry) error {
		var err error
		out, err = encodeStateJSON(r)
		return err
	})
	return string(out), tick, err
}

// SetStateJSON replaces the whole state from a JSON envelope. Parsing
// happens before the lock is taken.
func (s *Simulation) SetStateJSON(state string) error {
	if s.running.Load() {
		return eris.Wrap(ErrSimulationRunning, "set_state_json")
	}
	replacement, err := decodeStateJSON([]byte(state))
	if err != nil {
		return err
	}
	return s.exclusive(func(*ecs.Registry) error {
		s.reg = replacement
		s.logger.Info().Msg("state replaced from JSON")
		return nil
	})
}

// GetStateBinary packs the compact binary envelope and returns the tick the
// snapshot was taken at.
func (s *Simulation) GetStateBinary() ([]byte, uint64, error) {
	var out []byte
	tick, err := s.read(func(r *ecs.Registry) error {
		out = encodeStateBinary(r)
		return nil
	})
	return out, tick, err
}

// SetStateBinary replaces the whole state from a binary envelope.
func (s *Simulation) SetStateBinary(state []byte) error {
	if s.running.Load() {
		return eris.Wrap(ErrSimulationRunning, "set_state_binary")
	}
	replacement, err := decodeStateBinary(state)
	if err != nil {
		return err
	}
	return s.exclusive(func(*ecs.Registry) error {
		s.reg = replacement
		s.logger.Info().Msg("state replaced from binary")
		return nil
	})
}

// CreateEntity adds a fresh entity and returns its id.
func (s *Simulation) CreateEntity() (uint64, error) {
	var id uint64
	err := s.exclusive(func(r *ecs.Registry) error {
		id = uint64(r.Create())
		return nil
	})
	return id, err
}

// DestroyEntity removes an entity, its components, and its world map slot.
func (s *Simulation) DestroyEntity(eid uint64) error {
	return s.exclusive(func(r *ecs.Registry) error {
		e := ecs.Entity(eid)
		if !r.Valid(e) {
			return eris.Wrap(ErrUnknownEntity, "destroy_entity")
		}
		if pos, err := ecs.Get[components.Position](r, e); err == nil {
			world := ecs.Singleton[components.SWorld](r)
			if world.At(pos.X, pos.Y) == e {
				world.Set(pos.X, pos.Y, ecs.NullEntity)
			}
		}
		return r.Destroy(e)
	})
}

// DuplicateEntity creates a new entity carrying deep copies of every
// component of the source.
func (s *Simulation) DuplicateEntity(eid uint64) (uint64, error) {
	var id uint64
	err := s.exclusive(func(r *ecs.Registry) error {
		src := ecs.Entity(eid)
		if !r.Valid(src) {
			return eris.Wrap(ErrUnknownEntity, "duplicate_entity")
		}
		dup := r.Create()
		if err := r.Stamp(dup, src); err != nil {
			return eris.Wrap(ErrInternal, err.Error())
		}
		id = uint64(dup)
		return nil
	})
	return id, err
}

// GetAllEntities returns every live entity id and the snapshot tick.
func (s *Simulation) GetAllEntities() ([]uint64, uint64, error) {
	var out []uint64
	tick, err := s.read(func(r *ecs.Registry) error {
		for _, e := range r.Alive() {
			out = append(out, uint64(e))
		}
		return nil
	})
	return out, tick, err
}

// AssignComponent attaches the named component with its default value.
func (s *Simulation) AssignComponent(eid uint64, name string) error {
	entry, err := componentByName(name)
	if err != nil {
		return err
	}
	return s.exclusive(func(r *ecs.Registry) error {
		return entry.assignDefault(r, ecs.Entity(eid))
	})
}

// RemoveComponent detaches the named component.
func (s *Simulation) RemoveComponent(eid uint64, name string) error {
	entry, err := componentByName(name)
	if err != nil {
		return err
	}
	return s.exclusive(func(r *ecs.Registry) error {
		return entry.remove(r, ecs.Entity(eid))
	})
}

// ReplaceComponent overwrites an existing component from its JSON form.
func (s *Simulation) ReplaceComponent(eid uint64, name, componentJSON string) error {
	entry, err := componentByName(name)
	if err != nil {
		return err
	}
	return s.exclusive(func(r *ecs.Registry) error {
		return entry.replaceJSON(r, ecs.Entity(eid), []byte(componentJSON))
	})
}

// GetComponentJSON renders one component as JSON and returns the snapshot
// tick.
func (s *Simulation) GetComponentJSON(eid uint64, name string) (string, uint64, error) {
	entry, err := componentByName(name)
	if err != nil {
		return "", 0, err
	}
	var out []byte
	tick, err := s.read(func(r *ecs.Registry) error {
		var err error
		out, err = entry.getJSON(r, ecs.Entity(eid))
		return err
	})
	return string(out), tick, err
}

// GetComponentNames lists every registered component name.
func (s *Simulation) GetComponentNames() []string {
	names := make([]string, len(componentTable))
	for i := range componentTable {
		names[i] = componentTable[i].name
	}
	return names
}

// GetEntityComponentNames lists the components attached to one entity and
// returns the snapshot tick.
func (s *Simulation) GetEntityComponentNames(eid uint64) ([]string, uint64, error) {
	var out []string
	tick, err := s.read(func(r *ecs.Registry) error {
		e := ecs.Entity(eid)
		if !r.Valid(e) {
			return eris.Wrap(ErrUnknownEntity, "get_entity_component_names")
		}
		for i := range componentTable {
			if componentTable[i].has(r, e) {
				out = append(out, componentTable[i].name)
			}
		}
		return nil
	})
	return out, tick, err
}

// GetSingletonJSON renders one singleton as JSON and returns the snapshot
// tick.
func (s *Simulation) GetSingletonJSON(name string) (string, uint64, error) {
	entry, err := singletonByName(name)
	if err != nil {
		return "", 0, err
	}
	var out []byte
	tick, err := s.read(func(r *ecs.Registry) error {
		var err error
		out, err = entry.getJSON(r)
		return err
	})
	return string(out), tick, err
}

// SetSingletonJSON replaces one singleton from its JSON form.
func (s *Simulation) SetSingletonJSON(name, singletonJSON string) error {
	entry, err := singletonByName(name)
	if err != nil {
		return err
	}
	return s.exclusive(func(r *ecs.Registry) error {
		return entry.setJSON(r, []byte(singletonJSON))
	})
}

// GetSingletonNames lists every singleton name.
func (s *Simulation) GetSingletonNames() []string {
	names := make([]string, len(singletonTable))
	for i := range singletonTable {
		names[i] = singletonTable[i].name
	}
	return names
}

// SetTickEventCallback installs the per-tick callback. Pass nil to clear.
func (s *Simulation) SetTickEventCallback(cb TickCallback) {
	s.callbackMu.Lock()
	s.callback = cb
	s.callbackMu.Unlock()
}

// GetEventsLastTick invokes cb with every event published by the last
// completed tick, name plus JSON payload, and returns the snapshot tick.
func (s *Simulation) GetEventsLastTick(cb func(name, dataJSON string)) (uint64, error) {
	return s.read(func(r *ecs.Registry) error {
		for _, e := range ecs.Singleton[components.SEventsLog](r).EventsLastTick {
			data, err := json.Marshal(e.Data)
			if err != nil {
				return eris.Wrap(ErrInternal, "event payload: "+err.Error())
			}
			cb(e.Name, string(data))
		}
		return nil
	})
}

// Step advances the simulation n ticks synchronously. The worker must be
// stopped. The spatial index is rebuilt first, tolerating externally
// imposed state.
func (s *Simulation) Step(n int) error {
	return s.exclusive(func(r *ecs.Registry) error {
		if err := rebuildSpatialIndex(r); err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			systems.Update(r)
		}
		return nil
	})
}

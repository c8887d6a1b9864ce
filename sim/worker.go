package sim

import (
	"github.com/MidZik/gridworld/components"
	"github.com/MidZik/gridworld/ecs"
	"github.com/MidZik/gridworld/systems"
)

// StartSimulation launches the background worker. A no-op when already
// running. The spatial index is rebuilt from Positions first so externally
// imposed state that never maintained the world map still runs.
func (s *Simulation) StartSimulation() error {
	s.controlMu.Lock()
	defer s.controlMu.Unlock()

	if s.running.Load() {
		return nil
	}

	s.simMu.Lock()
	err := rebuildSpatialIndex(s.reg)
	s.simMu.Unlock()
	if err != nil {
		return err
	}

	s.stopRequested.Store(false)
	s.running.Store(true)
	s.workerDone = make(chan struct{})
	go s.workerLoop(s.workerDone)
	s.logger.Info().Msg("simulation started")
	return nil
}

// RequestStop asks the worker to exit at the top of its next iteration
// without waiting for it.
func (s *Simulation) RequestStop() {
	s.stopRequested.Store(true)
}

// StopSimulation requests a stop and waits for the worker to exit.
func (s *Simulation) StopSimulation() {
	s.controlMu.Lock()
	defer s.controlMu.Unlock()

	if s.workerDone == nil {
		return
	}
	s.stopRequested.Store(true)
	<-s.workerDone
	s.workerDone = nil
	s.logger.Info().Msg("simulation stopped")
}

// IsRunning reports whether the worker is currently running.
func (s *Simulation) IsRunning() bool {
	return s.running.Load()
}

// workerLoop advances ticks until a stop is requested. Between ticks it
// drops the lock, lets pending readers drain, and fires the tick-event
// callback.
func (s *Simulation) workerLoop(done chan struct{}) {
	defer close(done)
	defer s.running.Store(false)

	s.simMu.Lock()
	for {
		if s.stopRequested.Load() {
			s.simMu.Unlock()
			return
		}

		systems.Update(s.reg)

		tick := ecs.Singleton[components.STickCounter](s.reg).Tick
		var flags uint64
		if len(ecs.Singleton[components.SEventsLog](s.reg).EventsLastTick) > 0 {
			flags |= FlagEventsOccurred
		}

		s.simMu.Unlock()

		// Park while readers hold pause requests; they snapshot the state
		// this tick just published.
		s.pauseMu.Lock()
		for s.pauseRequests > 0 {
			s.noPauses.Wait()
		}
		s.pauseMu.Unlock()

		s.callbackMu.RLock()
		cb := s.callback
		s.callbackMu.RUnlock()
		if cb != nil {
			cb(tick, flags)
		}

		s.simMu.Lock()
	}
}

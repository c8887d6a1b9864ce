package components

import (
	"github.com/MidZik/gridworld/events"
)

// STickCounter is the current tick singleton.
type STickCounter struct {
	Tick uint64
}

// SEventsLog stages events raised during the current tick and publishes
// them at tick end. Only the event-log finalize system writes
// EventsLastTick.
type SEventsLog struct {
	EventsLastTick []events.Event `json:"events_last_tick"`
	NewEvents      []events.Event `json:"-"`
}

// LogEvent stages an event for publication at the end of the tick.
func (l *SEventsLog) LogEvent(e events.Event) {
	l.NewEvents = append(l.NewEvents, e)
}

// SSimulationConfig parameterizes the evolution system.
type SSimulationConfig struct {
	EvoTicksPerEvolution uint32 `json:"evo_ticks_per_evolution"`
	EvoWinnerCount       uint32 `json:"evo_winner_count"`
	EvoNewEntityCount    uint32 `json:"evo_new_entity_count"`
}

// NewSSimulationConfig returns the default evolution parameters.
func NewSSimulationConfig() SSimulationConfig {
	return SSimulationConfig{
		EvoTicksPerEvolution: 10000,
		EvoWinnerCount:       6,
		EvoNewEntityCount:    3,
	}
}

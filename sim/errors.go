// Package sim exposes the simulation facade: the public operations a host
// embeds, the background worker that advances ticks, and the state codecs.
package sim

import (
	"github.com/rotisserie/eris"
)

// Error kinds surfaced at the facade boundary. Call sites wrap these with
// context; check with eris.Is.
var (
	// ErrInvalidArgument covers JSON parse failures, schema mismatches,
	// unknown component or singleton names, and malformed command
	// arguments.
	ErrInvalidArgument = eris.New("invalid argument")

	// ErrSimulationRunning is returned by mutations attempted while the
	// worker is running.
	ErrSimulationRunning = eris.New("simulation is running")

	// ErrUnknownEntity is returned for operations against an invalid or
	// destroyed entity id.
	ErrUnknownEntity = eris.New("unknown entity")

	// ErrMissingComponent is returned by get/replace when the entity does
	// not carry the component.
	ErrMissingComponent = eris.New("missing component")

	// ErrInternal indicates schema corruption or an invariant violation.
	ErrInternal = eris.New("internal error")
)

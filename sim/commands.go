package sim

import (
	"crypto/rand"
	"encoding/binary"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/MidZik/gridworld/components"
	"github.com/MidZik/gridworld/ecs"
)

// RunCommand executes a named maintenance command against a stopped
// simulation and returns its textual result.
//
// Commands:
//
//	randomize        re-seed every RNG component and the singleton RNG
//	                 from nondeterministic entropy
//	randomize <eid>  as above for one entity
func (s *Simulation) RunCommand(args []string) (string, error) {
	if len(args) == 0 {
		return "", eris.Wrap(ErrInvalidArgument, "empty command")
	}

	switch args[0] {
	case "randomize":
		switch len(args) {
		case 1:
			return s.randomizeAll()
		case 2:
			eid, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return "", eris.Wrap(ErrInvalidArgument, "randomize: bad entity id "+args[1])
			}
			return s.randomizeEntity(eid)
		default:
			return "", eris.Wrap(ErrInvalidArgument, "randomize takes at most one argument")
		}
	}
	return "", eris.Wrap(ErrInvalidArgument, "unknown command: "+args[0])
}

func (s *Simulation) randomizeAll() (string, error) {
	count := 0
	err := s.exclusive(func(r *ecs.Registry) error {
		ecs.Each(r, func(e ecs.Entity, rng *components.RNG) {
			reseedFromEntropy(rng)
			count++
		})
		reseedFromEntropy(ecs.Singleton[components.RNG](r))
		count++
		s.logger.Info().Int("generators", count).Msg("randomized")
		return nil
	})
	if err != nil {
		return "", err
	}
	return "randomized " + strconv.Itoa(count) + " generators", nil
}

func (s *Simulation) randomizeEntity(eid uint64) (string, error) {
	err := s.exclusive(func(r *ecs.Registry) error {
		e := ecs.Entity(eid)
		if !r.Valid(e) {
			return eris.Wrap(ErrUnknownEntity, "randomize")
		}
		rng, err := ecs.Get[components.RNG](r, e)
		if err != nil {
			return eris.Wrap(ErrMissingComponent, "randomize: entity has no RNG")
		}
		reseedFromEntropy(rng)
		return nil
	})
	if err != nil {
		return "", err
	}
	return "randomized entity " + strconv.FormatUint(eid, 10), nil
}

// reseedFromEntropy deliberately pulls OS entropy. Normal ticks never do
// this; the command is the one sanctioned break in determinism.
func reseedFromEntropy(rng *components.RNG) {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand never fails on supported platforms.
		panic(err)
	}
	rng.Seed(binary.LittleEndian.Uint64(buf[:8]), binary.LittleEndian.Uint64(buf[8:]))
}

// Command gridworld runs a headless simulation: seed a world from config,
// advance it on the background worker, journal evolution scoreboards, and
// write a final state snapshot.
package main

import (
	"flag"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/MidZik/gridworld/config"
	"github.com/MidZik/gridworld/sim"
	"github.com/MidZik/gridworld/telemetry"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (embedded defaults when empty)")
	ticks := flag.Int("ticks", 0, "override run.ticks")
	snapshotPath := flag.String("snapshot", "", "override run.snapshot_path")
	scoresPath := flag.String("scores", "", "override run.scores_path")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if err := run(*configPath, *ticks, *snapshotPath, *scoresPath, logger); err != nil {
		logger.Fatal().Err(err).Msg("run failed")
	}
}

func run(configPath string, ticks int, snapshotPath, scoresPath string, logger zerolog.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if ticks > 0 {
		cfg.Run.Ticks = ticks
	}
	if snapshotPath != "" {
		cfg.Run.SnapshotPath = snapshotPath
	}
	if scoresPath != "" {
		cfg.Run.ScoresPath = scoresPath
	}
	if level, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
		logger = logger.Level(level)
	}

	s := sim.NewSimulation()
	defer s.Close()
	s.SetLogger(logger)

	if err := seedWorld(s, cfg); err != nil {
		return err
	}

	journal, err := telemetry.NewScoreJournal(cfg.Run.ScoresPath)
	if err != nil {
		return err
	}
	defer journal.Close()

	target := uint64(cfg.Run.Ticks)
	var once sync.Once
	done := make(chan struct{})
	s.SetTickEventCallback(func(tick, flags uint64) {
		if flags&sim.FlagEventsOccurred != 0 {
			if _, err := s.GetEventsLastTick(func(name, dataJSON string) {
				if name != "evolution" {
					return
				}
				logger.Info().Uint64("tick", tick).Msg("evolution")
				if err := journal.RecordEvolution(tick, dataJSON); err != nil {
					logger.Error().Err(err).Msg("score journal")
				}
			}); err != nil {
				logger.Error().Err(err).Msg("reading events")
			}
		}
		if tick >= target {
			s.RequestStop()
			once.Do(func() { close(done) })
		}
	})

	if err := s.StartSimulation(); err != nil {
		return err
	}
	<-done
	s.StopSimulation()

	state, tick, err := s.GetStateJSON()
	if err != nil {
		return err
	}
	logger.Info().Uint64("tick", tick).Msg("run complete")

	if cfg.Run.SnapshotPath != "" {
		if err := os.WriteFile(cfg.Run.SnapshotPath, []byte(state), 0o644); err != nil {
			return fmt.Errorf("writing snapshot: %w", err)
		}
		logger.Info().Str("path", cfg.Run.SnapshotPath).Msg("snapshot written")
	}
	return nil
}

// seedWorld populates a stopped simulation from the config: brains with
// senses and movers, predators that wander, and plain random movers.
func seedWorld(s *sim.Simulation, cfg *config.Config) error {
	world := fmt.Sprintf(`{"width":%d,"height":%d}`, cfg.World.Width, cfg.World.Height)
	if err := s.SetSingletonJSON("SWorld", world); err != nil {
		return err
	}
	evo := fmt.Sprintf(`{"evo_ticks_per_evolution":%d,"evo_winner_count":%d,"evo_new_entity_count":%d}`,
		cfg.Evolution.TicksPerEvolution, cfg.Evolution.WinnerCount, cfg.Evolution.NewEntityCount)
	if err := s.SetSingletonJSON("SSimulationConfig", evo); err != nil {
		return err
	}

	cells := int(cfg.World.Width) * int(cfg.World.Height)
	total := cfg.Population.Brains + cfg.Population.Predators + cfg.Population.RandomMovers
	if total > cells {
		return fmt.Errorf("population %d does not fit a %dx%d world", total, cfg.World.Width, cfg.World.Height)
	}

	slot := 0
	place := func(eid uint64) error {
		x := int32(slot) % cfg.World.Width
		y := int32(slot) / cfg.World.Width
		slot++
		if err := s.AssignComponent(eid, "Position"); err != nil {
			return err
		}
		return s.ReplaceComponent(eid, "Position", fmt.Sprintf(`{"x":%d,"y":%d}`, x, y))
	}
	seedRNG := func(eid uint64, i int) error {
		if err := s.AssignComponent(eid, "RNG"); err != nil {
			return err
		}
		state := fmt.Sprintf(`{"state":"%d %d"}`, cfg.Population.Seed+uint64(i)*2+1, uint64(i)*2+1)
		return s.ReplaceComponent(eid, "RNG", state)
	}

	assignAll := func(eid uint64, names ...string) error {
		for _, name := range names {
			if err := s.AssignComponent(eid, name); err != nil {
				return err
			}
		}
		return nil
	}

	serial := 0
	for i := 0; i < cfg.Population.Brains; i++ {
		eid, err := s.CreateEntity()
		if err != nil {
			return err
		}
		if err := assignAll(eid, "SimpleBrain", "SimpleBrainSeer", "SimpleBrainMover", "Moveable", "Scorable", "Name"); err != nil {
			return err
		}
		name := fmt.Sprintf(`{"major_name":"SEED-B%d","minor_name":"SEED"}`, i)
		if err := s.ReplaceComponent(eid, "Name", name); err != nil {
			return err
		}
		if err := seedRNG(eid, serial); err != nil {
			return err
		}
		if err := place(eid); err != nil {
			return err
		}
		serial++
	}

	for i := 0; i < cfg.Population.Predators; i++ {
		eid, err := s.CreateEntity()
		if err != nil {
			return err
		}
		if err := assignAll(eid, "Predation", "RandomMover", "Moveable"); err != nil {
			return err
		}
		if err := seedRNG(eid, serial); err != nil {
			return err
		}
		if err := place(eid); err != nil {
			return err
		}
		serial++
	}

	for i := 0; i < cfg.Population.RandomMovers; i++ {
		eid, err := s.CreateEntity()
		if err != nil {
			return err
		}
		if err := assignAll(eid, "RandomMover", "Moveable", "Scorable"); err != nil {
			return err
		}
		if err := seedRNG(eid, serial); err != nil {
			return err
		}
		if err := place(eid); err != nil {
			return err
		}
		serial++
	}
	return nil
}

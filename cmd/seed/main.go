package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"

	"github.com/joho/godotenv"

	"github.com/fieldgeom/manifold/internal/config"
	"github.com/fieldgeom/manifold/internal/engine"
	"github.com/fieldgeom/manifold/internal/store"
)

// seed populates a database with a deterministic synthetic corpus: a few
// actors drifting through field space, with geometry and pairwise coupling
// computed along the way. Useful for exercising inspect and analyze
// against known data.

// #region main

func main() {
	_ = godotenv.Load()

	dbPath := flag.String("db", envOr("MANIFOLD_DB", "manifold.db"), "path to manifold.db")
	cfgPath := flag.String("config", envOr("MANIFOLD_CONFIG", ""), "optional YAML config path")
	actors := flag.Int("actors", 3, "number of synthetic actors")
	points := flag.Int("points", 8, "points per actor")
	seed := flag.Int64("seed", 42, "PRNG seed")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	s, err := store.NewStore(*dbPath)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer s.Close()

	eng, err := engine.New(cfg, engine.DefaultOptions(), s)
	if err != nil {
		log.Fatalf("build engine: %v", err)
	}

	if err := run(eng, s, cfg, *actors, *points, *seed); err != nil {
		log.Fatalf("seed: %v", err)
	}
}

// #endregion main

// #region generate

func run(eng *engine.Engine, s *store.Store, cfg config.Config, actors, points int, seed int64) error {
	rng := rand.New(rand.NewSource(seed))

	lastIDs := make([]string, actors)
	for step := 0; step < points; step++ {
		for a := 0; a < actors; a++ {
			actorID := fmt.Sprintf("actor-%d", a+1)
			sem := drift(rng, cfg.FieldDim, float64(a), float64(step))
			coh := drift(rng, cfg.FieldDim, float64(a)+0.5, float64(step)*0.7)

			p, err := eng.Ingest(sem, coh, actorID, "seed-group")
			if err != nil {
				return err
			}
			depth := 1 + float64(step)/2
			if err := s.SetMassComponents(p.ID, depth, 0.3+0.05*float64(a), 0.5+0.04*float64(step)); err != nil {
				return err
			}
			if _, err := eng.ComputeGeometry(p.ID); err != nil {
				return err
			}

			// Couple each point to the previous actor's newest point.
			prev := lastIDs[(a+actors-1)%actors]
			if prev != "" {
				if _, err := eng.ComputeCoupling(p.ID, prev); err != nil {
					return err
				}
			}
			lastIDs[a] = p.ID
		}
	}

	fmt.Printf("seeded %d actors x %d points into %d-dim fields\n", actors, points, cfg.FieldDim)
	return nil
}

// drift produces a field that moves smoothly with the step index while
// carrying actor-specific structure plus small noise.
func drift(rng *rand.Rand, dim int, base, step float64) []float32 {
	f := make([]float32, dim)
	for i := range f {
		carrier := 0.3*base + 0.05*step + 0.1*float64(i%7)
		f[i] = float32(carrier + 0.02*rng.NormFloat64())
	}
	return f
}

// #endregion generate

// #region helpers

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers

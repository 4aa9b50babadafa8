package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/fieldgeom/manifold/internal/config"
	"github.com/fieldgeom/manifold/internal/detect"
	"github.com/fieldgeom/manifold/internal/engine"
	"github.com/fieldgeom/manifold/internal/store"
)

// analyze is the main driver: it computes geometry for a point, runs the
// pathology detectors, and optionally scores escalation sequences or
// coordination windows across actors.

// #region main

func main() {
	_ = godotenv.Load()

	dbPath := flag.String("db", envOr("MANIFOLD_DB", "manifold.db"), "path to manifold.db")
	cfgPath := flag.String("config", envOr("MANIFOLD_CONFIG", ""), "optional YAML config path")
	pointID := flag.String("point", "", "compute geometry and run all detectors for this point")
	category := flag.String("category", "", "restrict detection to one category (rigidity|fragmentation|inflation|distortion)")
	escalate := flag.String("escalate", "", "comma-separated point IDs to score as an escalation sequence")
	clusterActors := flag.String("cluster-actors", "", "comma-separated actor IDs for coordination clustering")
	clusterWindow := flag.Duration("cluster-window", time.Hour, "coordination window size")
	clusterThreshold := flag.Float64("cluster-threshold", 0.5, "minimum coupling magnitude per edge")
	clusterMin := flag.Int("cluster-min", 3, "minimum edges per cluster")
	jsonOut := flag.Bool("json", false, "output as JSON instead of text")
	flag.Parse()

	if *pointID == "" && *escalate == "" && *clusterActors == "" {
		fmt.Fprintln(os.Stderr, "usage: analyze --db manifold.db (--point id [--category name] | --escalate id,id,... | --cluster-actors a,b,...)")
		os.Exit(2)
	}

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

	switch {
	case *pointID != "":
		err = runPoint(eng, *pointID, *category, *jsonOut)
	case *escalate != "":
		err = runEscalation(eng, splitIDs(*escalate), *jsonOut)
	default:
		err = runClusters(eng, splitIDs(*clusterActors), *clusterWindow, *clusterThreshold, *clusterMin, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region point-mode

func runPoint(eng *engine.Engine, pointID, category string, jsonOut bool) error {
	p, err := eng.ComputeGeometry(pointID)
	if err != nil {
		return err
	}

	var sigs []detect.Signature
	switch category {
	case "":
		sigs, err = eng.DetectAll(pointID)
	case detect.CategoryRigidity:
		sigs, err = eng.DetectRigidity(pointID)
	case detect.CategoryFragmentation:
		sigs, err = eng.DetectFragmentation(pointID)
	case detect.CategoryInflation:
		sigs, err = eng.DetectInflation(pointID)
	case detect.CategoryDistortion:
		sigs, err = eng.DetectDistortion(pointID)
	default:
		return fmt.Errorf("unknown category %q", category)
	}
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(map[string]any{
			"point_id":         p.ID,
			"coherence_mag":    p.CoherenceMag,
			"metric_det":       p.MetricDet,
			"scalar_curvature": p.ScalarCurvature,
			"semantic_mass":    p.SemanticMass,
			"signatures":       sigs,
		})
	}

	fmt.Printf("point %s\n", p.ID)
	fmt.Printf("  coherence_mag=%.6f metric_det=%.6e scalar_curvature=%.6f mass=%.6f\n",
		p.CoherenceMag, p.MetricDet, p.ScalarCurvature, p.SemanticMass)
	if len(sigs) == 0 {
		fmt.Println("  no signatures")
		return nil
	}
	for _, sig := range sigs {
		fmt.Printf("  [%s] %s severity=%.4f\n      %s\n",
			detect.CategoryOf(sig.Type), sig.Type, sig.Severity, sig.Evidence)
	}
	return nil
}

// #endregion point-mode

// #region escalation-mode

func runEscalation(eng *engine.Engine, ids []string, jsonOut bool) error {
	res, err := eng.Escalation(ids)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(res)
	}
	fmt.Printf("escalation over %d points: score=%.4f velocity=%.4f acceleration=%.4f urgent=%v\n",
		res.Samples, res.Score, res.Velocity, res.Acceleration, res.InterventionUrgency)
	return nil
}

// #endregion escalation-mode

// #region cluster-mode

func runClusters(eng *engine.Engine, actors []string, window time.Duration, threshold float64, minSize int, jsonOut bool) error {
	clusters, err := eng.CoordinationClusters(actors, window, threshold, minSize)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(clusters)
	}
	if len(clusters) == 0 {
		fmt.Println("no coordination clusters")
		return nil
	}
	for _, c := range clusters {
		fmt.Printf("%s  edges=%d actors=%s mean_coupling=%.4f confidence=%.4f\n",
			c.WindowStart.Format(time.RFC3339), c.EdgeCount,
			strings.Join(c.Actors, ","), c.MeanCoupling, c.Confidence)
	}
	return nil
}

// #endregion cluster-mode

// #region helpers

func splitIDs(s string) []string {
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/fieldgeom/manifold/internal/logging"
	"github.com/fieldgeom/manifold/internal/manifold"
	"github.com/fieldgeom/manifold/internal/store"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to manifold.db")
	last := flag.Int("last", 20, "show N most recent points")
	pointID := flag.String("point", "", "show single point detail with its audit trail")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/manifold.db [--last N] [--point id] [--json]")
		os.Exit(2)
	}

	s, err := store.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	if *pointID != "" {
		err = runDetailMode(s, *pointID, *jsonOut)
	} else {
		err = runListMode(s, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	PointID         string  `json:"point_id"`
	ActorID         string  `json:"actor_id,omitempty"`
	GroupID         string  `json:"group_id,omitempty"`
	CoherenceMag    float64 `json:"coherence_mag"`
	MetricDet       float64 `json:"metric_det"`
	ScalarCurvature float64 `json:"scalar_curvature"`
	SemanticMass    float64 `json:"semantic_mass"`
	HasGeometry     bool    `json:"has_geometry"`
	CreatedAt       string  `json:"created_at"`
}

func runListMode(s *store.Store, last int, jsonOut bool) error {
	points, err := s.ListPoints(last)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		fmt.Fprintln(os.Stderr, "no points found")
		return nil
	}

	rows := make([]listRow, len(points))
	for i, p := range points {
		rows[i] = toRow(p)
	}

	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("%-36s  %-10s  %10s  %12s  %10s  %8s\n",
		"POINT", "ACTOR", "COHERENCE", "DET", "CURVATURE", "MASS")
	for _, r := range rows {
		det := "-"
		if r.HasGeometry {
			det = fmt.Sprintf("%.4e", r.MetricDet)
		}
		fmt.Printf("%-36s  %-10s  %10.4f  %12s  %10.4f  %8.2f\n",
			r.PointID, r.ActorID, r.CoherenceMag, det, r.ScalarCurvature, r.SemanticMass)
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

func runDetailMode(s *store.Store, pointID string, jsonOut bool) error {
	p, err := s.GetPoint(pointID)
	if err != nil {
		return err
	}
	entries, err := logging.Recent(s.DB(), pointID, 50)
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(map[string]any{
			"point":      toRow(p),
			"signatures": entries,
		})
	}

	fmt.Printf("point %s\n", p.ID)
	fmt.Printf("  actor=%s group=%s created=%s\n", p.ActorID, p.GroupID, p.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("  coherence_mag=%.6f mass=%.6f depth=%.2f stability=%.2f\n",
		p.CoherenceMag, p.SemanticMass, p.RecursiveDepth, p.AttractorStability)
	if p.HasGeometry() {
		fmt.Printf("  metric_det=%.6e scalar_curvature=%.6f\n", p.MetricDet, p.ScalarCurvature)
	} else {
		fmt.Println("  no geometry computed")
	}

	if len(entries) == 0 {
		fmt.Println("  no recorded signatures")
		return nil
	}
	fmt.Printf("  %d recorded signatures:\n", len(entries))
	for _, e := range entries {
		fmt.Printf("    %s  [%s] %s severity=%.4f\n",
			e.CreatedAt.Format("2006-01-02 15:04:05"), e.Category, e.SignatureType, e.Severity)
		if e.Evidence != "" {
			fmt.Printf("      %s\n", e.Evidence)
		}
	}
	return nil
}

// #endregion detail-mode

// #region helpers

func toRow(p *manifold.Point) listRow {
	return listRow{
		PointID:         p.ID,
		ActorID:         p.ActorID,
		GroupID:         p.GroupID,
		CoherenceMag:    p.CoherenceMag,
		MetricDet:       p.MetricDet,
		ScalarCurvature: p.ScalarCurvature,
		SemanticMass:    p.SemanticMass,
		HasGeometry:     p.HasGeometry(),
		CreatedAt:       p.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// #endregion helpers

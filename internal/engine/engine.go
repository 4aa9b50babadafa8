package engine

import (
	"errors"
	"fmt"

	"github.com/fieldgeom/manifold/internal/config"
	"github.com/fieldgeom/manifold/internal/detect"
	"github.com/fieldgeom/manifold/internal/evolve"
	"github.com/fieldgeom/manifold/internal/logging"
	"github.com/fieldgeom/manifold/internal/manifold"
	"github.com/fieldgeom/manifold/internal/scalar"
	"github.com/fieldgeom/manifold/internal/store"
)

// ErrInvalidDimension reports a field whose length disagrees with the
// configured layout. Dimension checks fail fast at the boundary; no
// geometry routine pads or truncates silently.
var ErrInvalidDimension = errors.New("invalid dimension")

// #region options

// Options tunes the windowed reads behind input assembly.
type Options struct {
	// HistoryWindow bounds how many prior points back any derivative,
	// trend, or divergence looks.
	HistoryWindow int

	// EdgeWindow bounds how many coupling edges feed the coupling-based
	// detectors.
	EdgeWindow int

	Thresholds detect.Thresholds
	Step       evolve.StepConfig
}

// DefaultOptions returns the standard windows and thresholds.
func DefaultOptions() Options {
	return Options{
		HistoryWindow: 10,
		EdgeWindow:    32,
		Thresholds:    detect.DefaultThresholds(),
		Step:          evolve.DefaultStepConfig(),
	}
}

// #endregion options

// #region engine

// Engine is the facade over the analysis core: ingestion, geometry
// computation, pathology detection, evolution, and cross-point analysis,
// all against one store. Reads are snapshots; concurrent writers may make
// them slightly stale, which every consumer tolerates.
type Engine struct {
	cfg   config.Config
	opts  Options
	store *store.Store
}

// New validates the configuration and builds an engine over an open store.
// An inconsistent dimensional layout fails here, before any data moves.
func New(cfg config.Config, opts Options, s *store.Store) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDimension, err)
	}
	if opts.HistoryWindow < 1 || opts.EdgeWindow < 1 {
		return nil, fmt.Errorf("windows must be positive: history=%d edges=%d", opts.HistoryWindow, opts.EdgeWindow)
	}
	if err := logging.EnsureSchema(s.DB()); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg, opts: opts, store: s}, nil
}

// Config returns the dimensional layout the engine was built with.
func (e *Engine) Config() config.Config {
	return e.cfg
}

// #endregion engine

// #region ingest

// Ingest validates and stores a new point. Both fields must have exactly
// the configured storage dimension. The coherence magnitude over the
// analysis dimensions is cached on the point.
func (e *Engine) Ingest(semantic, coherence []float32, actorID, groupID string) (*manifold.Point, error) {
	if len(semantic) != e.cfg.FieldDim {
		return nil, fmt.Errorf("%w: semantic field has %d components, want %d",
			ErrInvalidDimension, len(semantic), e.cfg.FieldDim)
	}
	if len(coherence) != e.cfg.FieldDim {
		return nil, fmt.Errorf("%w: coherence field has %d components, want %d",
			ErrInvalidDimension, len(coherence), e.cfg.FieldDim)
	}

	p := &manifold.Point{
		ActorID:        actorID,
		GroupID:        groupID,
		SemanticField:  semantic,
		CoherenceField: coherence,
		CoherenceMag:   scalar.Norm(coherence, e.cfg.AnalysisDim),
	}
	if err := e.store.SavePoint(p); err != nil {
		return nil, err
	}
	return p, nil
}

// #endregion ingest

// #region helpers

// subject is the history key for a point: its actor when attributed,
// otherwise the point itself.
func subject(p *manifold.Point) string {
	if p.ActorID != "" {
		return p.ActorID
	}
	return p.ID
}

// #endregion helpers

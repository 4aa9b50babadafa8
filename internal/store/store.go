package store

import (
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/fieldgeom/manifold/internal/coupling"
	"github.com/fieldgeom/manifold/internal/manifold"
)

// ErrNotFound is returned by direct single-entity lookups. Window queries
// return empty slices instead.
var ErrNotFound = errors.New("not found")

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS points (
	point_id            TEXT PRIMARY KEY,
	group_id            TEXT,
	actor_id            TEXT,
	created_at          TEXT NOT NULL,
	semantic_field      BLOB NOT NULL,
	coherence_field     BLOB NOT NULL,
	coherence_mag       REAL NOT NULL DEFAULT 0,
	metric              BLOB,
	metric_det          REAL NOT NULL DEFAULT 0,
	metric_inverse      BLOB,
	recursive_depth     REAL NOT NULL DEFAULT 0,
	constraint_density  REAL NOT NULL DEFAULT 0,
	attractor_stability REAL NOT NULL DEFAULT 0,
	semantic_mass       REAL NOT NULL DEFAULT 0,
	christoffel         BLOB,
	curvature           BLOB,
	scalar_curvature    REAL NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_points_actor ON points(actor_id, created_at);
CREATE INDEX IF NOT EXISTS idx_points_group ON points(group_id, created_at);

CREATE TABLE IF NOT EXISTS coupling_edges (
	edge_id        TEXT PRIMARY KEY,
	source_id      TEXT NOT NULL,
	target_id      TEXT NOT NULL,
	source_actor   TEXT,
	target_actor   TEXT,
	magnitude      REAL NOT NULL,
	self_coupling  INTEGER NOT NULL DEFAULT 0,
	evolution_rate REAL NOT NULL DEFAULT 0,
	computed_at    TEXT NOT NULL,
	FOREIGN KEY (source_id) REFERENCES points(point_id)
);
CREATE INDEX IF NOT EXISTS idx_edges_source ON coupling_edges(source_id, computed_at);
CREATE INDEX IF NOT EXISTS idx_edges_actor ON coupling_edges(source_actor, computed_at);

CREATE TABLE IF NOT EXISTS sapience (
	point_id             TEXT PRIMARY KEY,
	sapience             REAL NOT NULL,
	forecast_sensitivity REAL NOT NULL DEFAULT 0,
	gradient_response    REAL NOT NULL DEFAULT 0,
	circumspection       REAL NOT NULL DEFAULT 0,
	recursion_regulation REAL NOT NULL DEFAULT 0,
	FOREIGN KEY (point_id) REFERENCES points(point_id)
);
`

// #endregion schema

// #region store-struct

// Store is the SQLite-backed collaborator holding points, coupling edges,
// and sapience records. The analysis core only reads snapshots through it;
// slightly stale reads from concurrent writers are tolerated by design.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor

// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by other packages (e.g. the
// signature audit log).
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion constructor

// #region save-point

// SavePoint inserts a point on ingestion. An empty ID gets a fresh UUID;
// the assigned ID is written back. Geometry columns start empty and are
// filled later by PersistDerived.
func (s *Store) SavePoint(p *manifold.Point) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(
		`INSERT INTO points (point_id, group_id, actor_id, created_at, semantic_field, coherence_field, coherence_mag)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, nullIfEmpty(p.GroupID), nullIfEmpty(p.ActorID),
		p.CreatedAt.Format(time.RFC3339Nano),
		encodeF32(p.SemanticField), encodeF32(p.CoherenceField), p.CoherenceMag,
	)
	if err != nil {
		return fmt.Errorf("insert point: %w", err)
	}
	return nil
}

// #endregion save-point

// #region get-point

const pointColumns = `point_id, group_id, actor_id, created_at,
	semantic_field, coherence_field, coherence_mag,
	metric, metric_det, recursive_depth, constraint_density, attractor_stability,
	semantic_mass, christoffel, curvature, scalar_curvature`

// GetPoint retrieves a single point by ID. Returns ErrNotFound when absent.
func (s *Store) GetPoint(id string) (*manifold.Point, error) {
	row := s.db.QueryRow(`SELECT `+pointColumns+` FROM points WHERE point_id = ?`, id)
	p, err := scanPoint(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("point %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get point %s: %w", id, err)
	}
	return p, nil
}

// #endregion get-point

// #region get-history

// GetHistory returns the most recent points for an actor or a specific
// point, oldest first, capped at window entries. An unknown subject yields
// an empty slice, not an error: history consumers treat absence as
// insufficient data.
func (s *Store) GetHistory(actorOrPointID string, window int) ([]*manifold.Point, error) {
	rows, err := s.db.Query(
		`SELECT `+pointColumns+` FROM points
		 WHERE actor_id = ? OR point_id = ?
		 ORDER BY created_at DESC LIMIT ?`,
		actorOrPointID, actorOrPointID, window,
	)
	if err != nil {
		return nil, fmt.Errorf("get history %s: %w", actorOrPointID, err)
	}
	defer rows.Close()

	var points []*manifold.Point
	for rows.Next() {
		p, err := scanPoint(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse into chronological order.
	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}
	return points, nil
}

// GetGroupHistory returns the most recent points in a group excluding one
// actor, oldest first. It backs the comparison baselines that the
// asymmetry and decoupling assemblies need. Empty when no peers exist.
func (s *Store) GetGroupHistory(groupID, excludeActor string, window int) ([]*manifold.Point, error) {
	rows, err := s.db.Query(
		`SELECT `+pointColumns+` FROM points
		 WHERE group_id = ? AND (actor_id IS NULL OR actor_id != ?)
		 ORDER BY created_at DESC LIMIT ?`,
		groupID, excludeActor, window,
	)
	if err != nil {
		return nil, fmt.Errorf("get group history %s: %w", groupID, err)
	}
	defer rows.Close()

	var points []*manifold.Point
	for rows.Next() {
		p, err := scanPoint(rows)
		if err != nil {
			return nil, fmt.Errorf("scan group row: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}
	return points, nil
}

// #endregion get-history

// #region coupling-edges

// SaveCouplingEdge inserts a computed coupling edge. The tensor itself is
// not persisted; the magnitude and tags are the durable record.
func (s *Store) SaveCouplingEdge(e coupling.Edge) error {
	id := e.ID
	if id == "" {
		id = uuid.New().String()
	}
	self := 0
	if e.Self {
		self = 1
	}
	_, err := s.db.Exec(
		`INSERT INTO coupling_edges (edge_id, source_id, target_id, source_actor, target_actor, magnitude, self_coupling, evolution_rate, computed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, e.SourceID, e.TargetID,
		nullIfEmpty(e.SourceActor), nullIfEmpty(e.TargetActor),
		e.Magnitude, self, e.EvolutionRate,
		e.ComputedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert coupling edge: %w", err)
	}
	return nil
}

// GetCouplingEdges returns the most recent edges whose source is the given
// point or actor, oldest first, capped at window entries.
func (s *Store) GetCouplingEdges(pointOrActor string, window int) ([]coupling.Edge, error) {
	rows, err := s.db.Query(
		`SELECT edge_id, source_id, target_id, source_actor, target_actor, magnitude, self_coupling, evolution_rate, computed_at
		 FROM coupling_edges
		 WHERE source_id = ? OR source_actor = ?
		 ORDER BY computed_at DESC LIMIT ?`,
		pointOrActor, pointOrActor, window,
	)
	if err != nil {
		return nil, fmt.Errorf("get coupling edges %s: %w", pointOrActor, err)
	}
	defer rows.Close()

	var edges []coupling.Edge
	for rows.Next() {
		var e coupling.Edge
		var srcActor, dstActor sql.NullString
		var self int
		var computedStr string
		if err := rows.Scan(&e.ID, &e.SourceID, &e.TargetID, &srcActor, &dstActor,
			&e.Magnitude, &self, &e.EvolutionRate, &computedStr); err != nil {
			return nil, fmt.Errorf("scan edge row: %w", err)
		}
		e.SourceActor = srcActor.String
		e.TargetActor = dstActor.String
		e.Self = self != 0
		e.ComputedAt, _ = time.Parse(time.RFC3339Nano, computedStr)
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(edges)-1; i < j; i, j = i+1, j-1 {
		edges[i], edges[j] = edges[j], edges[i]
	}
	return edges, nil
}

// #endregion coupling-edges

// #region sapience

// SaveSapience upserts the single live sapience record for a point.
func (s *Store) SaveSapience(rec manifold.SapienceRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO sapience (point_id, sapience, forecast_sensitivity, gradient_response, circumspection, recursion_regulation)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(point_id) DO UPDATE SET
			sapience = excluded.sapience,
			forecast_sensitivity = excluded.forecast_sensitivity,
			gradient_response = excluded.gradient_response,
			circumspection = excluded.circumspection,
			recursion_regulation = excluded.recursion_regulation`,
		rec.PointID, rec.Sapience, rec.ForecastSensitivity,
		rec.GradientResponse, rec.CircumspectionFac, rec.RecursionRegulation,
	)
	if err != nil {
		return fmt.Errorf("upsert sapience: %w", err)
	}
	return nil
}

// GetSapience reads the live sapience record for a point. Returns
// ErrNotFound when no record exists.
func (s *Store) GetSapience(pointID string) (manifold.SapienceRecord, error) {
	rec := manifold.SapienceRecord{PointID: pointID}
	err := s.db.QueryRow(
		`SELECT sapience, forecast_sensitivity, gradient_response, circumspection, recursion_regulation
		 FROM sapience WHERE point_id = ?`, pointID,
	).Scan(&rec.Sapience, &rec.ForecastSensitivity, &rec.GradientResponse,
		&rec.CircumspectionFac, &rec.RecursionRegulation)
	if err == sql.ErrNoRows {
		return manifold.SapienceRecord{}, fmt.Errorf("sapience %s: %w", pointID, ErrNotFound)
	}
	if err != nil {
		return manifold.SapienceRecord{}, fmt.Errorf("get sapience %s: %w", pointID, err)
	}
	return rec, nil
}

// #endregion sapience

// #region persist-derived

// PersistDerived writes the computed geometry for a point.
func (s *Store) PersistDerived(pointID string, d manifold.Derived) error {
	res, err := s.db.Exec(
		`UPDATE points SET metric = ?, metric_det = ?, metric_inverse = ?,
			christoffel = ?, curvature = ?, scalar_curvature = ?, semantic_mass = ?
		 WHERE point_id = ?`,
		encodeF64(d.Metric), d.MetricDet, encodeF64(d.Inverse),
		encodeF64(d.Christoffel), encodeF64(d.Curvature),
		d.ScalarCurvature, d.SemanticMass, pointID,
	)
	if err != nil {
		return fmt.Errorf("persist derived %s: %w", pointID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("persist derived %s: %w", pointID, err)
	}
	if n == 0 {
		return fmt.Errorf("point %s: %w", pointID, ErrNotFound)
	}
	return nil
}

// SetMassComponents records the semantic-mass inputs for a point.
func (s *Store) SetMassComponents(pointID string, depth, density, stability float64) error {
	res, err := s.db.Exec(
		`UPDATE points SET recursive_depth = ?, constraint_density = ?, attractor_stability = ?
		 WHERE point_id = ?`,
		depth, density, stability, pointID,
	)
	if err != nil {
		return fmt.Errorf("set mass components %s: %w", pointID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set mass components %s: %w", pointID, err)
	}
	if n == 0 {
		return fmt.Errorf("point %s: %w", pointID, ErrNotFound)
	}
	return nil
}

// #endregion persist-derived

// #region list

// ListPoints returns the most recent points across all actors, newest
// first, for inspection tooling.
func (s *Store) ListPoints(limit int) ([]*manifold.Point, error) {
	rows, err := s.db.Query(
		`SELECT `+pointColumns+` FROM points ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list points: %w", err)
	}
	defer rows.Close()

	var points []*manifold.Point
	for rows.Next() {
		p, err := scanPoint(rows)
		if err != nil {
			return nil, fmt.Errorf("scan point row: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// #endregion list

// #region scan

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPoint(row rowScanner) (*manifold.Point, error) {
	var p manifold.Point
	var groupID, actorID sql.NullString
	var createdStr string
	var semBlob, cohBlob, metricBlob, chrBlob, curvBlob []byte

	err := row.Scan(&p.ID, &groupID, &actorID, &createdStr,
		&semBlob, &cohBlob, &p.CoherenceMag,
		&metricBlob, &p.MetricDet, &p.RecursiveDepth, &p.ConstraintDensity,
		&p.AttractorStability, &p.SemanticMass, &chrBlob, &curvBlob, &p.ScalarCurvature)
	if err != nil {
		return nil, err
	}

	p.GroupID = groupID.String
	p.ActorID = actorID.String
	p.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	p.SemanticField = decodeF32(semBlob)
	p.CoherenceField = decodeF32(cohBlob)
	p.Metric = decodeF64(metricBlob)
	p.Christoffel = decodeF64(chrBlob)
	p.Curvature = decodeF64(curvBlob)
	return &p, nil
}

// #endregion scan

// #region vector-encoding

func encodeF32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeF32(b []byte) []float32 {
	if len(b) == 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}

func encodeF64(v []float64) []byte {
	buf := make([]byte, len(v)*8)
	for i, f := range v {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(f))
	}
	return buf
}

func decodeF64(b []byte) []float64 {
	if len(b) == 0 {
		return nil
	}
	v := make([]float64, len(b)/8)
	for i := range v {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return v
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// #endregion vector-encoding

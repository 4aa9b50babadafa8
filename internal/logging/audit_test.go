package logging

import (
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

// #region helpers
func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := EnsureSchema(db); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// #endregion helpers

// #region log-signature-tests
func TestLogSignature_Success(t *testing.T) {
	db := setupDB(t)

	entry := SignatureEntry{
		PointID:            "p1",
		SignatureType:      "field_hypercoherence",
		Category:           "inflation",
		Severity:           0.9025,
		GeometricSignature: "coherence saturation with closed boundary",
		Evidence:           "coherence_mag=0.950000 external_flux=0.050000",
		CreatedAt:          time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	if err := LogSignature(db, entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var count int
	db.QueryRow("SELECT COUNT(*) FROM signature_log").Scan(&count)
	if count != 1 {
		t.Errorf("expected 1 row, got %d", count)
	}

	var sigType string
	var severity float64
	db.QueryRow("SELECT signature_type, severity FROM signature_log").Scan(&sigType, &severity)
	if sigType != "field_hypercoherence" {
		t.Errorf("expected signature_type 'field_hypercoherence', got %q", sigType)
	}
	if severity != 0.9025 {
		t.Errorf("expected severity 0.9025, got %v", severity)
	}
}

func TestLogSignature_ZeroCreatedAt(t *testing.T) {
	db := setupDB(t)

	before := time.Now().UTC()
	err := LogSignature(db, SignatureEntry{
		PointID:       "p2",
		SignatureType: "metric_crystallization",
		Category:      "rigidity",
		Severity:      0.5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var createdAtStr string
	db.QueryRow("SELECT created_at FROM signature_log").Scan(&createdAtStr)
	createdAt, err := time.Parse(time.RFC3339Nano, createdAtStr)
	if err != nil {
		t.Fatalf("parse created_at: %v", err)
	}
	if createdAt.Before(before) {
		t.Error("expected auto-filled created_at to be >= test start time")
	}
}

func TestRecentOrderAndLimit(t *testing.T) {
	db := setupDB(t)

	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		err := LogSignature(db, SignatureEntry{
			PointID:       "p1",
			SignatureType: "attractor_dissociation",
			Category:      "fragmentation",
			Severity:      float64(i) * 0.1,
			CreatedAt:     t0.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("log %d: %v", i, err)
		}
	}

	entries, err := Recent(db, "p1", 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Severity != 0.3 || entries[1].Severity != 0.2 {
		t.Fatalf("expected newest first, got %v then %v", entries[0].Severity, entries[1].Severity)
	}
}

func TestRecentUnknownPointIsEmpty(t *testing.T) {
	db := setupDB(t)
	entries, err := Recent(db, "ghost", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(entries))
	}
}

// #endregion log-signature-tests

package logging

import (
	"database/sql"
	"fmt"
	"time"
)

// #region schema
const auditSchema = `
CREATE TABLE IF NOT EXISTS signature_log (
	point_id            TEXT NOT NULL,
	signature_type      TEXT NOT NULL,
	category            TEXT NOT NULL,
	severity            REAL NOT NULL,
	geometric_signature TEXT,
	evidence            TEXT,
	created_at          TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_signature_point ON signature_log(point_id, created_at);
`

// EnsureSchema creates the audit table if it does not exist.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(auditSchema); err != nil {
		return fmt.Errorf("migrate signature log: %w", err)
	}
	return nil
}

// #endregion schema

// #region log-signature

// LogSignature writes an audit entry to the signature_log table.
func LogSignature(db *sql.DB, entry SignatureEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO signature_log (point_id, signature_type, category, severity, geometric_signature, evidence, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.PointID,
		entry.SignatureType,
		entry.Category,
		entry.Severity,
		nullIfEmpty(entry.GeometricSignature),
		nullIfEmpty(entry.Evidence),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log signature: %w", err)
	}
	return nil
}

// #endregion log-signature

// #region recent

// Recent returns the newest audit entries for a point, newest first.
func Recent(db *sql.DB, pointID string, limit int) ([]SignatureEntry, error) {
	rows, err := db.Query(
		`SELECT point_id, signature_type, category, severity, geometric_signature, evidence, created_at
		 FROM signature_log WHERE point_id = ?
		 ORDER BY created_at DESC LIMIT ?`,
		pointID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query signature log: %w", err)
	}
	defer rows.Close()

	var entries []SignatureEntry
	for rows.Next() {
		var e SignatureEntry
		var geo, ev sql.NullString
		var createdStr string
		if err := rows.Scan(&e.PointID, &e.SignatureType, &e.Category, &e.Severity, &geo, &ev, &createdStr); err != nil {
			return nil, fmt.Errorf("scan signature row: %w", err)
		}
		e.GeometricSignature = geo.String
		e.Evidence = ev.String
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// #endregion recent

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers

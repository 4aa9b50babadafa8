package logging

import "time"

// #region types

// SignatureEntry is one audit row: a detected pathology signature with
// the numeric evidence that justified it. Entries are append-only.
type SignatureEntry struct {
	PointID            string
	SignatureType      string
	Category           string
	Severity           float64
	GeometricSignature string
	Evidence           string
	CreatedAt          time.Time
}

// #endregion types

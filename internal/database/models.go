package database

import (
	"time"

	"github.com/TobiSchelling/veritas/internal/analyzer"
)

// SourceKind is where the analyzed content came from.
type SourceKind string

const (
	SourceText SourceKind = "text"
	SourceURL  SourceKind = "url"
	SourceFile SourceKind = "file"
)

// Valid reports whether k is a known source kind.
func (k SourceKind) Valid() bool {
	switch k {
	case SourceText, SourceURL, SourceFile:
		return true
	}
	return false
}

// ReportSummary is one row of the report history, without the payload.
type ReportSummary struct {
	ID               string     `json:"id"`
	SourceKind       SourceKind `json:"sourceKind"`
	SourceRef        string     `json:"sourceRef"`
	OverallScore     int        `json:"overallScore"`
	CredibilityLevel string     `json:"credibilityLevel"`
	Preview          string     `json:"preview"`
	FailedTypes      int        `json:"failedTypes"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// StoredReport is a history row with its full report.
type StoredReport struct {
	ReportSummary
	Report *analyzer.Report `json:"report"`
}

// Stats aggregates the report history.
type Stats struct {
	Reports      int            `json:"reports"`
	AverageScore float64        `json:"averageScore"`
	ByLevel      map[string]int `json:"byLevel"`
	ByKind       map[string]int `json:"byKind"`
}

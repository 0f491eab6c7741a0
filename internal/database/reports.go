package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/TobiSchelling/veritas/internal/analyzer"
)

// DefaultListLimit caps ListReports when no limit is given.
const DefaultListLimit = 50

// timeLayout has a fixed width so created_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const summaryColumns = `id, source_kind, source_ref, overall_score, credibility_level, preview, failed_types, created_at`

// InsertReport stores a finished report. ref is the URL or file name the
// text came from and may be empty for pasted text.
func (db *DB) InsertReport(kind SourceKind, ref string, r *analyzer.Report) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown source kind %q", kind)
	}
	if r == nil || r.ID == "" {
		return errors.New("report has no id")
	}

	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}

	_, err = db.conn.Exec(
		`INSERT INTO reports (`+summaryColumns+`, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, string(kind), ref, r.OverallScore, r.CredibilityLevel, r.AnalyzedText,
		len(r.Failed()), r.Timestamp.UTC().Format(timeLayout), string(payload),
	)
	if err != nil {
		return fmt.Errorf("inserting report %s: %w", r.ID, err)
	}
	db.logger.Debug("saved report", zap.String("id", r.ID), zap.String("kind", string(kind)))
	return nil
}

// GetReport returns the stored report with the given id, or nil when there
// is none.
func (db *DB) GetReport(id string) (*StoredReport, error) {
	row := db.conn.QueryRow(`SELECT `+summaryColumns+`, payload FROM reports WHERE id = ?`, id)

	var s StoredReport
	var payload string
	if err := scanSummary(row, &s.ReportSummary, &payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	s.Report = new(analyzer.Report)
	if err := json.Unmarshal([]byte(payload), s.Report); err != nil {
		return nil, fmt.Errorf("decoding report %s: %w", id, err)
	}
	return &s, nil
}

// ListReports returns the newest reports first. A limit of zero or less
// means DefaultListLimit.
func (db *DB) ListReports(limit int) ([]ReportSummary, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := db.conn.Query(
		`SELECT `+summaryColumns+` FROM reports ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ReportSummary
	for rows.Next() {
		var s ReportSummary
		if err := scanSummary(rows, &s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// DeleteReport removes a report and reports whether it existed.
func (db *DB) DeleteReport(id string) (bool, error) {
	result, err := db.conn.Exec(`DELETE FROM reports WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetStats returns the report count, the mean overall score and the counts
// per credibility level and source kind.
func (db *DB) GetStats() (*Stats, error) {
	stats := &Stats{ByLevel: map[string]int{}, ByKind: map[string]int{}}

	var avg sql.NullFloat64
	if err := db.conn.QueryRow(`SELECT COUNT(*), AVG(overall_score) FROM reports`).Scan(&stats.Reports, &avg); err != nil {
		return nil, err
	}
	stats.AverageScore = avg.Float64

	if err := db.countBy("credibility_level", stats.ByLevel); err != nil {
		return nil, err
	}
	if err := db.countBy("source_kind", stats.ByKind); err != nil {
		return nil, err
	}
	return stats, nil
}

func (db *DB) countBy(column string, into map[string]int) error {
	rows, err := db.conn.Query(`SELECT ` + column + `, COUNT(*) FROM reports GROUP BY ` + column)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return err
		}
		into[key] = n
	}
	return rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSummary(sc scanner, s *ReportSummary, extra ...any) error {
	var kind, created string
	dest := []any{&s.ID, &kind, &s.SourceRef, &s.OverallScore, &s.CredibilityLevel, &s.Preview, &s.FailedTypes, &created}
	if err := sc.Scan(append(dest, extra...)...); err != nil {
		return err
	}
	s.SourceKind = SourceKind(kind)
	t, err := time.Parse(timeLayout, created)
	if err != nil {
		return fmt.Errorf("parsing created_at of %s: %w", s.ID, err)
	}
	s.CreatedAt = t
	return nil
}

package store

import (
	"database/sql"
	"fmt"
	"time"
)

// ScanDirectory is a watched root directory and its stepped auto-scan state.
type ScanDirectory struct {
	ID             int64
	Path           string
	LastScan       *string
	IsActive       bool
	LastChangeTime *string
	NoChangeCount  int
	ScanMultiplier int
	NextScanTime   *string
	FileCount      int
}

// AddScanDirectory registers a new root to auto-scan, defaulting to active
// with a multiplier of 1 (scan every base interval).
func (s *Store) AddScanDirectory(path string) (*ScanDirectory, error) {
	res, err := s.db.Exec(
		`INSERT INTO scan_directories (dir_path, is_active, no_change_count, scan_multiplier, file_count)
		 VALUES (?, 1, 0, 1, 0)`,
		path,
	)
	if err != nil {
		return nil, newErr(ErrKindConstraintViolation, "store: add scan directory", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, newErr(ErrKindStorageUnavailable, "store: add scan directory: last insert id", err)
	}
	return s.GetScanDirectory(id)
}

const scanDirColumns = `dir_id, dir_path, last_scan, is_active, last_change_time, no_change_count, scan_multiplier, next_scan_time, file_count`

func scanScanDirectory(row interface{ Scan(dest ...any) error }) (*ScanDirectory, error) {
	d := &ScanDirectory{}
	var lastScan, lastChangeTime, nextScanTime sql.NullString
	var isActive int
	if err := row.Scan(&d.ID, &d.Path, &lastScan, &isActive, &lastChangeTime, &d.NoChangeCount, &d.ScanMultiplier, &nextScanTime, &d.FileCount); err != nil {
		return nil, err
	}
	if lastScan.Valid {
		d.LastScan = &lastScan.String
	}
	if lastChangeTime.Valid {
		d.LastChangeTime = &lastChangeTime.String
	}
	if nextScanTime.Valid {
		d.NextScanTime = &nextScanTime.String
	}
	d.IsActive = isActive != 0
	return d, nil
}

// GetScanDirectory fetches a scan directory by id.
func (s *Store) GetScanDirectory(id int64) (*ScanDirectory, error) {
	row := s.db.QueryRow(`SELECT `+scanDirColumns+` FROM scan_directories WHERE dir_id = ?`, id)
	d, err := scanScanDirectory(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, newErr(ErrKindNotFound, fmt.Sprintf("store: get scan directory %d", id), ErrNotFound)
		}
		return nil, newErr(ErrKindStorageUnavailable, "store: get scan directory", err)
	}
	return d, nil
}

// GetScanDirectoryByPath fetches a scan directory by its root path, or
// (nil, nil) if it isn't registered.
func (s *Store) GetScanDirectoryByPath(path string) (*ScanDirectory, error) {
	row := s.db.QueryRow(`SELECT `+scanDirColumns+` FROM scan_directories WHERE dir_path = ?`, path)
	d, err := scanScanDirectory(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, newErr(ErrKindStorageUnavailable, "store: get scan directory by path", err)
	}
	return d, nil
}

// GetOrCreateScanDirectory returns the existing registration for path,
// creating one if absent.
func (s *Store) GetOrCreateScanDirectory(path string) (*ScanDirectory, error) {
	d, err := s.GetScanDirectoryByPath(path)
	if err != nil {
		return nil, err
	}
	if d != nil {
		return d, nil
	}
	return s.AddScanDirectory(path)
}

// ListScanDirectories returns every registered root, active first.
func (s *Store) ListScanDirectories() ([]*ScanDirectory, error) {
	rows, err := s.db.Query(`SELECT ` + scanDirColumns + ` FROM scan_directories ORDER BY is_active DESC, dir_path`)
	if err != nil {
		return nil, newErr(ErrKindStorageUnavailable, "store: list scan directories", err)
	}
	defer rows.Close()

	var out []*ScanDirectory
	for rows.Next() {
		d, err := scanScanDirectory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListDueScanDirectories returns active roots whose next_scan_time is unset
// or has already passed now, ordered soonest-due first, for the scheduler
// loop to act on.
func (s *Store) ListDueScanDirectories(now time.Time) ([]*ScanDirectory, error) {
	nowStr := now.UTC().Format("2006-01-02T15:04:05Z")
	rows, err := s.db.Query(
		`SELECT `+scanDirColumns+` FROM scan_directories
		 WHERE is_active = 1 AND (next_scan_time IS NULL OR next_scan_time <= ?)
		 ORDER BY next_scan_time IS NULL DESC, next_scan_time ASC`,
		nowStr,
	)
	if err != nil {
		return nil, newErr(ErrKindStorageUnavailable, "store: list due scan directories", err)
	}
	defer rows.Close()

	var out []*ScanDirectory
	for rows.Next() {
		d, err := scanScanDirectory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// RemoveScanDirectory unregisters a root entirely.
func (s *Store) RemoveScanDirectory(path string) error {
	_, err := s.db.Exec(`DELETE FROM scan_directories WHERE dir_path = ?`, path)
	if err != nil {
		return newErr(ErrKindStorageUnavailable, "store: remove scan directory", err)
	}
	return nil
}

// SetScanDirectoryActive pauses or resumes auto-scanning of a root without
// forgetting its stepped-backoff state.
func (s *Store) SetScanDirectoryActive(path string, active bool) error {
	v := 0
	if active {
		v = 1
	}
	_, err := s.db.Exec(`UPDATE scan_directories SET is_active = ? WHERE dir_path = ?`, v, path)
	if err != nil {
		return newErr(ErrKindStorageUnavailable, "store: set scan directory active", err)
	}
	return nil
}

// RecordScanResult persists the outcome of one scheduled or realtime scan
// pass: the new last_scan/next_scan timestamps, the recomputed backoff
// state, and the observed file count. The backoff arithmetic itself lives
// in the autoscan package; this is purely the write.
func (s *Store) RecordScanResult(path string, lastScan, nextScanTime string, noChangeCount, scanMultiplier, fileCount int, lastChangeTime *string) error {
	_, err := s.db.Exec(
		`UPDATE scan_directories SET
			last_scan = ?, next_scan_time = ?, no_change_count = ?, scan_multiplier = ?,
			file_count = ?, last_change_time = COALESCE(?, last_change_time)
		 WHERE dir_path = ?`,
		lastScan, nextScanTime, noChangeCount, scanMultiplier, fileCount, lastChangeTime, path,
	)
	if err != nil {
		return newErr(ErrKindStorageUnavailable, "store: record scan result", err)
	}
	return nil
}

package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Photo is one row of the photos table. Pointer fields are nullable columns;
// a nil pointer means the metadata extractor never populated that field
// (e.g. a RAW file with no embedded GPS block), not a zero value.
type Photo struct {
	ID              int64
	FilePath        string
	FileName        string
	FileSize        int64
	FileHash        string
	Width           *int
	Height          *int
	Format          *string
	DateTaken       *string
	DateAdded       string
	DateModified    *string
	CameraModel     *string
	LensModel       *string
	FocalLength     *float64
	Aperture        *float64
	ISO             *int
	ShutterSpeed    *string
	GPSLatitude     *float64
	GPSLongitude    *float64
	Orientation     int
	Rating          int
	IsFavorite      bool
	IsDeleted       bool
	OCRText         *string
	OCRStatus       int
	OCRProcessedAt  *string
	DeletedAt       *string
}

// NewPhoto is the set of fields an indexer run supplies when adding a file
// to the catalog for the first time.
type NewPhoto struct {
	FilePath     string
	FileName     string
	FileSize     int64
	FileHash     string
	Width        *int
	Height       *int
	Format       *string
	DateTaken    *string
	CameraModel  *string
	LensModel    *string
	FocalLength  *float64
	Aperture     *float64
	ISO          *int
	ShutterSpeed *string
	GPSLatitude  *float64
	GPSLongitude *float64
	Orientation  int
}

// AddPhoto inserts a new photo row. FilePath is UNIQUE; re-indexing an
// already-known path should go through UpdatePhotoContent instead.
func (s *Store) AddPhoto(p NewPhoto) (*Photo, error) {
	now := nowISO()
	orientation := p.Orientation
	if orientation == 0 {
		orientation = 1
	}

	res, err := s.db.Exec(
		`INSERT INTO photos (
			file_path, file_name, file_size, file_hash, width, height, format,
			date_taken, date_added, camera_model, lens_model, focal_length,
			aperture, iso, shutter_speed, gps_latitude, gps_longitude, orientation
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.FilePath, p.FileName, p.FileSize, p.FileHash, p.Width, p.Height, p.Format,
		p.DateTaken, now, p.CameraModel, p.LensModel, p.FocalLength,
		p.Aperture, p.ISO, p.ShutterSpeed, p.GPSLatitude, p.GPSLongitude, orientation,
	)
	if err != nil {
		return nil, newErr(ErrKindConstraintViolation, "store: add photo", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, newErr(ErrKindStorageUnavailable, "store: add photo: last insert id", err)
	}
	return s.GetPhoto(id)
}

// UpdatePhotoContent rewrites the file-derived columns of an existing photo
// in place, used when the indexer detects a changed fingerprint for an
// already-known path rather than a brand new file.
func (s *Store) UpdatePhotoContent(id int64, p NewPhoto) error {
	_, err := s.db.Exec(
		`UPDATE photos SET
			file_size = ?, file_hash = ?, width = ?, height = ?, format = ?,
			date_taken = ?, date_modified = ?, camera_model = ?, lens_model = ?,
			focal_length = ?, aperture = ?, iso = ?, shutter_speed = ?,
			gps_latitude = ?, gps_longitude = ?, orientation = ?
		WHERE photo_id = ?`,
		p.FileSize, p.FileHash, p.Width, p.Height, p.Format,
		p.DateTaken, nowISO(), p.CameraModel, p.LensModel,
		p.FocalLength, p.Aperture, p.ISO, p.ShutterSpeed,
		p.GPSLatitude, p.GPSLongitude, p.Orientation, id,
	)
	if err != nil {
		return newErr(ErrKindStorageUnavailable, "store: update photo content", err)
	}
	return nil
}

// AddPhotos inserts many photos inside one transaction, matching the
// indexer's per-batch write pattern. Rows that violate the file_path
// uniqueness constraint are skipped and reported rather than aborting the
// whole batch.
func (s *Store) AddPhotos(photos []NewPhoto) (ids []int64, failed []FailedPhoto, err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, nil, newErr(ErrKindStorageUnavailable, "store: add photos: begin", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO photos (
			file_path, file_name, file_size, file_hash, width, height, format,
			date_taken, date_added, camera_model, lens_model, focal_length,
			aperture, iso, shutter_speed, gps_latitude, gps_longitude, orientation
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return nil, nil, newErr(ErrKindStorageUnavailable, "store: add photos: prepare", err)
	}
	defer stmt.Close()

	now := nowISO()
	for _, p := range photos {
		orientation := p.Orientation
		if orientation == 0 {
			orientation = 1
		}
		res, execErr := stmt.Exec(
			p.FilePath, p.FileName, p.FileSize, p.FileHash, p.Width, p.Height, p.Format,
			p.DateTaken, now, p.CameraModel, p.LensModel, p.FocalLength,
			p.Aperture, p.ISO, p.ShutterSpeed, p.GPSLatitude, p.GPSLongitude, orientation,
		)
		if execErr != nil {
			failed = append(failed, FailedPhoto{Path: p.FilePath, Err: execErr})
			continue
		}
		id, _ := res.LastInsertId()
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, newErr(ErrKindStorageUnavailable, "store: add photos: commit", err)
	}
	return ids, failed, nil
}

// FailedPhoto records one file that could not be added during a batch
// operation, alongside why.
type FailedPhoto struct {
	Path string
	Err  error
}

var photoColumns = `photo_id, file_path, file_name, file_size, file_hash, width, height, format,
	date_taken, date_added, date_modified, camera_model, lens_model, focal_length,
	aperture, iso, shutter_speed, gps_latitude, gps_longitude, orientation, rating,
	is_favorite, is_deleted, ocr_text, ocr_status, ocr_processed_at, deleted_at`

func scanPhoto(row interface {
	Scan(dest ...any) error
}) (*Photo, error) {
	p := &Photo{}
	var (
		width, height, iso                            sql.NullInt64
		format, dateTaken, dateModified                sql.NullString
		cameraModel, lensModel, shutterSpeed           sql.NullString
		focalLength, aperture, gpsLat, gpsLon          sql.NullFloat64
		isFavorite, isDeleted                          int
		ocrText, ocrProcessedAt, deletedAt             sql.NullString
	)
	err := row.Scan(
		&p.ID, &p.FilePath, &p.FileName, &p.FileSize, &p.FileHash, &width, &height, &format,
		&dateTaken, &p.DateAdded, &dateModified, &cameraModel, &lensModel, &focalLength,
		&aperture, &iso, &shutterSpeed, &gpsLat, &gpsLon, &p.Orientation, &p.Rating,
		&isFavorite, &isDeleted, &ocrText, &p.OCRStatus, &ocrProcessedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}
	if width.Valid {
		v := int(width.Int64)
		p.Width = &v
	}
	if height.Valid {
		v := int(height.Int64)
		p.Height = &v
	}
	if iso.Valid {
		v := int(iso.Int64)
		p.ISO = &v
	}
	if format.Valid {
		p.Format = &format.String
	}
	if dateTaken.Valid {
		p.DateTaken = &dateTaken.String
	}
	if dateModified.Valid {
		p.DateModified = &dateModified.String
	}
	if cameraModel.Valid {
		p.CameraModel = &cameraModel.String
	}
	if lensModel.Valid {
		p.LensModel = &lensModel.String
	}
	if shutterSpeed.Valid {
		p.ShutterSpeed = &shutterSpeed.String
	}
	if focalLength.Valid {
		p.FocalLength = &focalLength.Float64
	}
	if aperture.Valid {
		p.Aperture = &aperture.Float64
	}
	if gpsLat.Valid {
		p.GPSLatitude = &gpsLat.Float64
	}
	if gpsLon.Valid {
		p.GPSLongitude = &gpsLon.Float64
	}
	if ocrText.Valid {
		p.OCRText = &ocrText.String
	}
	if ocrProcessedAt.Valid {
		p.OCRProcessedAt = &ocrProcessedAt.String
	}
	if deletedAt.Valid {
		p.DeletedAt = &deletedAt.String
	}
	p.IsFavorite = isFavorite != 0
	p.IsDeleted = isDeleted != 0
	return p, nil
}

// GetPhoto fetches one photo by id, including soft-deleted rows.
func (s *Store) GetPhoto(id int64) (*Photo, error) {
	row := s.db.QueryRow(`SELECT `+photoColumns+` FROM photos WHERE photo_id = ?`, id)
	p, err := scanPhoto(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, newErr(ErrKindNotFound, fmt.Sprintf("store: get photo %d", id), ErrNotFound)
		}
		return nil, newErr(ErrKindStorageUnavailable, "store: get photo", err)
	}
	return p, nil
}

// GetPhotoByPath fetches a photo by its absolute file path, or (nil, nil) if
// no photo at that path is indexed. Used by the auto-scan controller to find
// the photo at a removed path so it can be soft-deleted.
func (s *Store) GetPhotoByPath(path string) (*Photo, error) {
	row := s.db.QueryRow(`SELECT `+photoColumns+` FROM photos WHERE file_path = ?`, path)
	p, err := scanPhoto(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, newErr(ErrKindStorageUnavailable, "store: get photo by path", err)
	}
	return p, nil
}

// GetPhotoByHash fetches a photo by its content fingerprint, or (nil, nil)
// if no photo has that fingerprint. Used by the indexer's duplicate-detect
// step.
func (s *Store) GetPhotoByHash(hash string) (*Photo, error) {
	row := s.db.QueryRow(`SELECT `+photoColumns+` FROM photos WHERE file_hash = ?`, hash)
	p, err := scanPhoto(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, newErr(ErrKindStorageUnavailable, "store: get photo by hash", err)
	}
	return p, nil
}

// PhotoExists reports whether path is already indexed.
func (s *Store) PhotoExists(path string) (bool, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM photos WHERE file_path = ?`, path).Scan(&count)
	if err != nil {
		return false, newErr(ErrKindStorageUnavailable, "store: photo exists", err)
	}
	return count > 0, nil
}

// SetRating updates a photo's star rating (0-5).
func (s *Store) SetRating(id int64, rating int) error {
	if rating < 0 || rating > 5 {
		return newErr(ErrKindInvalidArgument, "store: set rating", fmt.Errorf("rating %d out of range [0,5]", rating))
	}
	_, err := s.db.Exec(`UPDATE photos SET rating = ? WHERE photo_id = ?`, rating, id)
	if err != nil {
		return newErr(ErrKindStorageUnavailable, "store: set rating", err)
	}
	return nil
}

// SetFavorite toggles a photo's favorite flag.
func (s *Store) SetFavorite(id int64, favorite bool) error {
	v := 0
	if favorite {
		v = 1
	}
	_, err := s.db.Exec(`UPDATE photos SET is_favorite = ? WHERE photo_id = ?`, v, id)
	if err != nil {
		return newErr(ErrKindStorageUnavailable, "store: set favorite", err)
	}
	return nil
}

// SetOCR records the result of an out-of-process OCR run against a photo.
// No OCR engine ships with this package; this is the write path a host
// integration calls after running one of its own.
func (s *Store) SetOCR(id int64, text string, status int) error {
	_, err := s.db.Exec(
		`UPDATE photos SET ocr_text = ?, ocr_status = ?, ocr_processed_at = ? WHERE photo_id = ?`,
		text, status, nowISO(), id,
	)
	if err != nil {
		return newErr(ErrKindStorageUnavailable, "store: set ocr", err)
	}
	return nil
}

// TrashPhoto soft-deletes a photo: it is excluded from default listings and
// search but remains recoverable until permanently purged.
func (s *Store) TrashPhoto(id int64) error {
	_, err := s.db.Exec(`UPDATE photos SET is_deleted = 1, deleted_at = ? WHERE photo_id = ?`, nowISO(), id)
	if err != nil {
		return newErr(ErrKindStorageUnavailable, "store: trash photo", err)
	}
	return nil
}

// RestorePhoto undoes TrashPhoto.
func (s *Store) RestorePhoto(id int64) error {
	_, err := s.db.Exec(`UPDATE photos SET is_deleted = 0, deleted_at = NULL WHERE photo_id = ?`, id)
	if err != nil {
		return newErr(ErrKindStorageUnavailable, "store: restore photo", err)
	}
	return nil
}

// PurgePhoto permanently removes a photo row and its tag/album associations
// (cascaded by foreign keys). Callers are responsible for removing any
// generated thumbnails.
func (s *Store) PurgePhoto(id int64) error {
	_, err := s.db.Exec(`DELETE FROM photos WHERE photo_id = ?`, id)
	if err != nil {
		return newErr(ErrKindStorageUnavailable, "store: purge photo", err)
	}
	return nil
}

// ListTrashedPhotos returns soft-deleted photos ordered by deletion time,
// most recent first.
func (s *Store) ListTrashedPhotos(limit int) ([]*Photo, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(
		`SELECT `+photoColumns+` FROM photos WHERE is_deleted = 1 ORDER BY deleted_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, newErr(ErrKindStorageUnavailable, "store: list trashed photos", err)
	}
	defer rows.Close()

	var out []*Photo
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, newErr(ErrKindStorageUnavailable, "store: scan trashed photo", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// PurgeTrashOlderThan permanently deletes soft-deleted photos whose
// deleted_at is older than before, returning the count removed.
func (s *Store) PurgeTrashOlderThan(before time.Time) (int, error) {
	res, err := s.db.Exec(`DELETE FROM photos WHERE is_deleted = 1 AND deleted_at < ?`, before.UTC().Format("2006-01-02T15:04:05Z"))
	if err != nil {
		return 0, newErr(ErrKindStorageUnavailable, "store: purge trash", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// ListAllTrashedPhotoIDs returns the ids of every soft-deleted photo, with
// no pagination limit — the complement to ListTrashedPhotos, which caps at
// a UI-page-sized default and is unsuitable for a bulk "empty trash" pass.
func (s *Store) ListAllTrashedPhotoIDs() ([]int64, error) {
	rows, err := s.db.Query(`SELECT photo_id FROM photos WHERE is_deleted = 1`)
	if err != nil {
		return nil, newErr(ErrKindStorageUnavailable, "store: list all trashed photo ids", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, newErr(ErrKindStorageUnavailable, "store: scan trashed photo id", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// TrashStats summarizes the soft-deleted subset of the catalog.
type TrashStats struct {
	Count     int
	TotalSize int64
}

// GetTrashStats returns the count and total file size of every soft-deleted
// photo.
func (s *Store) GetTrashStats() (TrashStats, error) {
	var stats TrashStats
	var totalSize sql.NullInt64
	err := s.db.QueryRow(
		`SELECT COUNT(*), SUM(file_size) FROM photos WHERE is_deleted = 1`,
	).Scan(&stats.Count, &totalSize)
	if err != nil {
		return TrashStats{}, newErr(ErrKindStorageUnavailable, "store: get trash stats", err)
	}
	stats.TotalSize = totalSize.Int64
	return stats, nil
}

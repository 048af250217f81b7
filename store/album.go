package store

import (
	"database/sql"
	"fmt"
	"strings"
)

// Album is a user-curated, manually ordered set of photos.
type Album struct {
	ID           int64
	Name         string
	Description  *string
	CoverPhotoID *int64
	DateCreated  string
	SortOrder    int
}

// AddAlbum creates a new, empty album.
func (s *Store) AddAlbum(name string, description *string) (*Album, error) {
	res, err := s.db.Exec(
		`INSERT INTO albums (album_name, description, date_created) VALUES (?, ?, ?)`,
		name, description, nowISO(),
	)
	if err != nil {
		return nil, newErr(ErrKindConstraintViolation, "store: add album", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, newErr(ErrKindStorageUnavailable, "store: add album: last insert id", err)
	}
	return s.GetAlbum(id)
}

func scanAlbum(row interface{ Scan(dest ...any) error }) (*Album, error) {
	a := &Album{}
	var description sql.NullString
	var cover sql.NullInt64
	if err := row.Scan(&a.ID, &a.Name, &description, &cover, &a.DateCreated, &a.SortOrder); err != nil {
		return nil, err
	}
	if description.Valid {
		a.Description = &description.String
	}
	if cover.Valid {
		a.CoverPhotoID = &cover.Int64
	}
	return a, nil
}

const albumColumns = `album_id, album_name, description, cover_photo_id, date_created, sort_order`

// GetAlbum fetches an album by id.
func (s *Store) GetAlbum(id int64) (*Album, error) {
	row := s.db.QueryRow(`SELECT `+albumColumns+` FROM albums WHERE album_id = ?`, id)
	a, err := scanAlbum(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, newErr(ErrKindNotFound, fmt.Sprintf("store: get album %d", id), ErrNotFound)
		}
		return nil, newErr(ErrKindStorageUnavailable, "store: get album", err)
	}
	return a, nil
}

// ListAlbums returns every album, ordered by sort_order then name.
func (s *Store) ListAlbums() ([]*Album, error) {
	rows, err := s.db.Query(`SELECT ` + albumColumns + ` FROM albums ORDER BY sort_order, album_name`)
	if err != nil {
		return nil, newErr(ErrKindStorageUnavailable, "store: list albums", err)
	}
	defer rows.Close()

	var out []*Album
	for rows.Next() {
		a, err := scanAlbum(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpdateAlbum renames/redescribes an album and/or changes its cover photo.
func (s *Store) UpdateAlbum(id int64, name string, description *string, coverPhotoID *int64) error {
	_, err := s.db.Exec(
		`UPDATE albums SET album_name = ?, description = ?, cover_photo_id = ? WHERE album_id = ?`,
		name, description, coverPhotoID, id,
	)
	if err != nil {
		return newErr(ErrKindStorageUnavailable, "store: update album", err)
	}
	return nil
}

// ReorderAlbums assigns sort_order sequentially to the given album ids, in
// the order given.
func (s *Store) ReorderAlbums(orderedIDs []int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return newErr(ErrKindStorageUnavailable, "store: reorder albums: begin", err)
	}
	defer tx.Rollback()
	for i, id := range orderedIDs {
		if _, err := tx.Exec(`UPDATE albums SET sort_order = ? WHERE album_id = ?`, i, id); err != nil {
			return newErr(ErrKindStorageUnavailable, "store: reorder albums", err)
		}
	}
	return tx.Commit()
}

// DeleteAlbum removes an album and its photo associations (cascaded); the
// photos themselves are untouched.
func (s *Store) DeleteAlbum(id int64) error {
	_, err := s.db.Exec(`DELETE FROM albums WHERE album_id = ?`, id)
	if err != nil {
		return newErr(ErrKindStorageUnavailable, "store: delete album", err)
	}
	return nil
}

// AddPhotoToAlbum appends a photo to the end of an album.
func (s *Store) AddPhotoToAlbum(albumID, photoID int64) error {
	var maxOrder sql.NullInt64
	err := s.db.QueryRow(`SELECT MAX(sort_order) FROM album_photos WHERE album_id = ?`, albumID).Scan(&maxOrder)
	if err != nil && err != sql.ErrNoRows {
		return newErr(ErrKindStorageUnavailable, "store: add photo to album: max order", err)
	}
	next := 0
	if maxOrder.Valid {
		next = int(maxOrder.Int64) + 1
	}
	_, err = s.db.Exec(
		`INSERT OR IGNORE INTO album_photos (album_id, photo_id, sort_order, date_added) VALUES (?, ?, ?, ?)`,
		albumID, photoID, next, nowISO(),
	)
	if err != nil {
		return newErr(ErrKindStorageUnavailable, "store: add photo to album", err)
	}
	return nil
}

// RemovePhotoFromAlbum removes a photo from an album.
func (s *Store) RemovePhotoFromAlbum(albumID, photoID int64) error {
	_, err := s.db.Exec(`DELETE FROM album_photos WHERE album_id = ? AND photo_id = ?`, albumID, photoID)
	if err != nil {
		return newErr(ErrKindStorageUnavailable, "store: remove photo from album", err)
	}
	return nil
}

// ReorderAlbumPhotos assigns sort_order sequentially to photos within an
// album, in the order given.
func (s *Store) ReorderAlbumPhotos(albumID int64, orderedPhotoIDs []int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return newErr(ErrKindStorageUnavailable, "store: reorder album photos: begin", err)
	}
	defer tx.Rollback()
	for i, photoID := range orderedPhotoIDs {
		if _, err := tx.Exec(
			`UPDATE album_photos SET sort_order = ? WHERE album_id = ? AND photo_id = ?`,
			i, albumID, photoID,
		); err != nil {
			return newErr(ErrKindStorageUnavailable, "store: reorder album photos", err)
		}
	}
	return tx.Commit()
}

// GetAlbumPhotos returns the photos in an album, in sort_order.
func (s *Store) GetAlbumPhotos(albumID int64) ([]*Photo, error) {
	rows, err := s.db.Query(
		`SELECT `+qualify("p", photoColumns)+`
		 FROM photos p JOIN album_photos ap ON p.photo_id = ap.photo_id
		 WHERE ap.album_id = ? ORDER BY ap.sort_order`, albumID)
	if err != nil {
		return nil, newErr(ErrKindStorageUnavailable, "store: get album photos", err)
	}
	defer rows.Close()

	var out []*Photo
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SmartAlbum is a saved search: its Filters (JSON-encoded SearchFilters)
// are resolved against the query layer at read time rather than storing a
// fixed photo list.
type SmartAlbum struct {
	ID           int64
	Name         string
	Description  *string
	Filters      string
	Icon         *string
	Color        *string
	DateCreated  string
	DateModified string
	SortOrder    int
}

// AddSmartAlbum creates a saved-search album. filtersJSON is an
// already-encoded SearchFilters document.
func (s *Store) AddSmartAlbum(name string, description *string, filtersJSON string, icon, color *string) (*SmartAlbum, error) {
	now := nowISO()
	res, err := s.db.Exec(
		`INSERT INTO smart_albums (name, description, filters, icon, color, date_created, date_modified)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		name, description, filtersJSON, icon, color, now, now,
	)
	if err != nil {
		return nil, newErr(ErrKindConstraintViolation, "store: add smart album", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, newErr(ErrKindStorageUnavailable, "store: add smart album: last insert id", err)
	}
	return s.GetSmartAlbum(id)
}

func scanSmartAlbum(row interface{ Scan(dest ...any) error }) (*SmartAlbum, error) {
	sa := &SmartAlbum{}
	var description, icon, color sql.NullString
	if err := row.Scan(&sa.ID, &sa.Name, &description, &sa.Filters, &icon, &color, &sa.DateCreated, &sa.DateModified, &sa.SortOrder); err != nil {
		return nil, err
	}
	if description.Valid {
		sa.Description = &description.String
	}
	if icon.Valid {
		sa.Icon = &icon.String
	}
	if color.Valid {
		sa.Color = &color.String
	}
	return sa, nil
}

const smartAlbumColumns = `smart_album_id, name, description, filters, icon, color, date_created, date_modified, sort_order`

// GetSmartAlbum fetches a smart album by id.
func (s *Store) GetSmartAlbum(id int64) (*SmartAlbum, error) {
	row := s.db.QueryRow(`SELECT `+smartAlbumColumns+` FROM smart_albums WHERE smart_album_id = ?`, id)
	sa, err := scanSmartAlbum(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, newErr(ErrKindNotFound, fmt.Sprintf("store: get smart album %d", id), ErrNotFound)
		}
		return nil, newErr(ErrKindStorageUnavailable, "store: get smart album", err)
	}
	return sa, nil
}

// ListSmartAlbums returns every smart album in sort_order.
func (s *Store) ListSmartAlbums() ([]*SmartAlbum, error) {
	rows, err := s.db.Query(`SELECT ` + smartAlbumColumns + ` FROM smart_albums ORDER BY sort_order, name`)
	if err != nil {
		return nil, newErr(ErrKindStorageUnavailable, "store: list smart albums", err)
	}
	defer rows.Close()

	var out []*SmartAlbum
	for rows.Next() {
		sa, err := scanSmartAlbum(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sa)
	}
	return out, rows.Err()
}

// UpdateSmartAlbum rewrites a smart album's definition.
func (s *Store) UpdateSmartAlbum(id int64, name string, description *string, filtersJSON string, icon, color *string) error {
	_, err := s.db.Exec(
		`UPDATE smart_albums SET name = ?, description = ?, filters = ?, icon = ?, color = ?, date_modified = ?
		 WHERE smart_album_id = ?`,
		name, description, filtersJSON, icon, color, nowISO(), id,
	)
	if err != nil {
		return newErr(ErrKindStorageUnavailable, "store: update smart album", err)
	}
	return nil
}

// ReorderSmartAlbums assigns sort_order sequentially, in the order given.
func (s *Store) ReorderSmartAlbums(orderedIDs []int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return newErr(ErrKindStorageUnavailable, "store: reorder smart albums: begin", err)
	}
	defer tx.Rollback()
	for i, id := range orderedIDs {
		if _, err := tx.Exec(`UPDATE smart_albums SET sort_order = ? WHERE smart_album_id = ?`, i, id); err != nil {
			return newErr(ErrKindStorageUnavailable, "store: reorder smart albums", err)
		}
	}
	return tx.Commit()
}

// DeleteSmartAlbum removes a smart album definition.
func (s *Store) DeleteSmartAlbum(id int64) error {
	_, err := s.db.Exec(`DELETE FROM smart_albums WHERE smart_album_id = ?`, id)
	if err != nil {
		return newErr(ErrKindStorageUnavailable, "store: delete smart album", err)
	}
	return nil
}

// qualify prefixes every column in a comma-separated column list with
// "alias.", used when joining photos under a non-default alias.
func qualify(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, col := range parts {
		parts[i] = alias + "." + strings.TrimSpace(col)
	}
	return strings.Join(parts, ", ")
}

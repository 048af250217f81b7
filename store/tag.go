package store

import (
	"database/sql"
	"fmt"
)

// Tag is a flat, user-defined label (unlike Lightroom keywords, the schema
// carries no parent/genealogy column here).
type Tag struct {
	ID          int64
	Name        string
	Color       *string
	DateCreated string
}

// AddTag creates a new tag.
func (s *Store) AddTag(name string, color *string) (*Tag, error) {
	res, err := s.db.Exec(
		`INSERT INTO tags (tag_name, color, date_created) VALUES (?, ?, ?)`,
		name, color, nowISO(),
	)
	if err != nil {
		return nil, newErr(ErrKindConstraintViolation, "store: add tag", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, newErr(ErrKindStorageUnavailable, "store: add tag: last insert id", err)
	}
	return s.GetTag(id)
}

func scanTag(row interface{ Scan(dest ...any) error }) (*Tag, error) {
	t := &Tag{}
	var color sql.NullString
	if err := row.Scan(&t.ID, &t.Name, &color, &t.DateCreated); err != nil {
		return nil, err
	}
	if color.Valid {
		t.Color = &color.String
	}
	return t, nil
}

// GetTag fetches a tag by id.
func (s *Store) GetTag(id int64) (*Tag, error) {
	row := s.db.QueryRow(`SELECT tag_id, tag_name, color, date_created FROM tags WHERE tag_id = ?`, id)
	t, err := scanTag(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, newErr(ErrKindNotFound, fmt.Sprintf("store: get tag %d", id), ErrNotFound)
		}
		return nil, newErr(ErrKindStorageUnavailable, "store: get tag", err)
	}
	return t, nil
}

// GetTagByName fetches a tag by exact name, or (nil, nil) if not found.
func (s *Store) GetTagByName(name string) (*Tag, error) {
	row := s.db.QueryRow(`SELECT tag_id, tag_name, color, date_created FROM tags WHERE tag_name = ?`, name)
	t, err := scanTag(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, newErr(ErrKindStorageUnavailable, "store: get tag by name", err)
	}
	return t, nil
}

// GetOrCreateTag returns the existing tag named name, creating it if absent.
func (s *Store) GetOrCreateTag(name string, color *string) (*Tag, error) {
	t, err := s.GetTagByName(name)
	if err != nil {
		return nil, err
	}
	if t != nil {
		return t, nil
	}
	return s.AddTag(name, color)
}

// ListTags returns every tag, alphabetically.
func (s *Store) ListTags() ([]*Tag, error) {
	rows, err := s.db.Query(`SELECT tag_id, tag_name, color, date_created FROM tags ORDER BY tag_name`)
	if err != nil {
		return nil, newErr(ErrKindStorageUnavailable, "store: list tags", err)
	}
	defer rows.Close()

	var out []*Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// DeleteTag removes a tag and all of its photo associations (cascaded).
func (s *Store) DeleteTag(id int64) error {
	_, err := s.db.Exec(`DELETE FROM tags WHERE tag_id = ?`, id)
	if err != nil {
		return newErr(ErrKindStorageUnavailable, "store: delete tag", err)
	}
	return nil
}

// TagPhoto associates a tag with a photo. Idempotent.
func (s *Store) TagPhoto(photoID, tagID int64) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO photo_tags (photo_id, tag_id, date_created) VALUES (?, ?, ?)`,
		photoID, tagID, nowISO(),
	)
	if err != nil {
		return newErr(ErrKindStorageUnavailable, "store: tag photo", err)
	}
	return nil
}

// UntagPhoto removes a tag association from a photo.
func (s *Store) UntagPhoto(photoID, tagID int64) error {
	_, err := s.db.Exec(`DELETE FROM photo_tags WHERE photo_id = ? AND tag_id = ?`, photoID, tagID)
	if err != nil {
		return newErr(ErrKindStorageUnavailable, "store: untag photo", err)
	}
	return nil
}

// GetPhotoTags returns every tag applied to a photo.
func (s *Store) GetPhotoTags(photoID int64) ([]*Tag, error) {
	rows, err := s.db.Query(
		`SELECT t.tag_id, t.tag_name, t.color, t.date_created
		 FROM tags t JOIN photo_tags pt ON t.tag_id = pt.tag_id
		 WHERE pt.photo_id = ? ORDER BY t.tag_name`, photoID)
	if err != nil {
		return nil, newErr(ErrKindStorageUnavailable, "store: get photo tags", err)
	}
	defer rows.Close()

	var out []*Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetTagPhotoIDs returns the ids of photos bearing a given tag.
func (s *Store) GetTagPhotoIDs(tagID int64) ([]int64, error) {
	rows, err := s.db.Query(`SELECT photo_id FROM photo_tags WHERE tag_id = ?`, tagID)
	if err != nil {
		return nil, newErr(ErrKindStorageUnavailable, "store: get tag photo ids", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

package store

import (
	"fmt"
	"strings"
)

// SortField names a column the query layer knows how to paginate by. Every
// value here has a NULLS LAST, id-tiebroken ordering defined in SortField.column.
type SortField string

const (
	SortDateTaken SortField = "date_taken"
	SortDateAdded SortField = "date_added"
	SortRating    SortField = "rating"
	SortFileName  SortField = "file_name"
)

func (f SortField) column() (string, bool) {
	switch f {
	case SortDateTaken:
		return "date_taken", true // nullable
	case SortDateAdded:
		return "date_added", false
	case SortRating:
		return "rating", false
	case SortFileName:
		return "file_name", false
	default:
		return "date_added", false
	}
}

// SortDir is ascending or descending.
type SortDir string

const (
	Asc  SortDir = "ASC"
	Desc SortDir = "DESC"
)

func (d SortDir) op() string {
	if d == Desc {
		return "<"
	}
	return ">"
}

// SearchFilters is an AND-combined bag of predicates. A zero value matches
// every non-deleted photo. It is normally built by queryparser.Resolve from
// the output of queryparser.ParseQuery rather than by hand.
type SearchFilters struct {
	FTSExpr        string // already-lowered FTS5 MATCH expression; empty means no text search
	TagNames       []string
	CameraModel    *string // substring match against camera_model
	LensModel      *string // substring match against lens_model
	MinRating      *int
	MaxRating      *int
	FavoriteOnly   bool
	HasGPS         bool     // when true, restrict to photos with a recorded GPS position
	Extensions     []string // file extensions (no leading dot, case-insensitive) to restrict to
	AlbumID        *int64   // restrict to photos belonging to this album
	ISO            *int
	MinISO         *int
	MaxISO         *int
	Aperture       *float64
	MinAperture    *float64
	MaxAperture    *float64
	FocalLength    *float64
	MinFocalLength *float64
	MaxFocalLength *float64
	PathContains   *string // substring match against file_path
	NameContains   *string // substring match against file_name
	Format         *string // exact match against format
	DateFrom       *string // inclusive, ISO-8601
	DateTo         *string // inclusive, ISO-8601
	FolderPath     *string // photos whose file_path is under this directory
	Recursive      bool    // when FolderPath is set, include subdirectories
	IncludeDeleted bool
}

// predicate builds the WHERE fragment and bound args for these filters,
// operating over the photos table aliased "p" and (when FTSExpr is set)
// joined against photos_fts aliased "f".
func (f SearchFilters) predicate() (joins string, where string, args []any) {
	var clauses []string

	if f.FTSExpr != "" {
		joins = `JOIN photos_fts f ON f.rowid = p.photo_id`
		clauses = append(clauses, `photos_fts MATCH ?`)
		args = append(args, f.FTSExpr)
	}

	if !f.IncludeDeleted {
		clauses = append(clauses, `p.is_deleted = 0`)
	}
	if f.CameraModel != nil {
		clauses = append(clauses, `p.camera_model LIKE '%' || ? || '%'`)
		args = append(args, *f.CameraModel)
	}
	if f.LensModel != nil {
		clauses = append(clauses, `p.lens_model LIKE '%' || ? || '%'`)
		args = append(args, *f.LensModel)
	}
	if f.PathContains != nil {
		clauses = append(clauses, `p.file_path LIKE '%' || ? || '%'`)
		args = append(args, *f.PathContains)
	}
	if f.NameContains != nil {
		clauses = append(clauses, `p.file_name LIKE '%' || ? || '%'`)
		args = append(args, *f.NameContains)
	}
	if f.Format != nil {
		clauses = append(clauses, `p.format = ?`)
		args = append(args, *f.Format)
	}
	if f.MinRating != nil {
		clauses = append(clauses, `p.rating >= ?`)
		args = append(args, *f.MinRating)
	}
	if f.MaxRating != nil {
		clauses = append(clauses, `p.rating <= ?`)
		args = append(args, *f.MaxRating)
	}
	if f.ISO != nil {
		clauses = append(clauses, `p.iso = ?`)
		args = append(args, *f.ISO)
	}
	if f.MinISO != nil {
		clauses = append(clauses, `p.iso >= ?`)
		args = append(args, *f.MinISO)
	}
	if f.MaxISO != nil {
		clauses = append(clauses, `p.iso <= ?`)
		args = append(args, *f.MaxISO)
	}
	if f.Aperture != nil {
		clauses = append(clauses, `p.aperture = ?`)
		args = append(args, *f.Aperture)
	}
	if f.MinAperture != nil {
		clauses = append(clauses, `p.aperture >= ?`)
		args = append(args, *f.MinAperture)
	}
	if f.MaxAperture != nil {
		clauses = append(clauses, `p.aperture <= ?`)
		args = append(args, *f.MaxAperture)
	}
	if f.FocalLength != nil {
		clauses = append(clauses, `p.focal_length = ?`)
		args = append(args, *f.FocalLength)
	}
	if f.MinFocalLength != nil {
		clauses = append(clauses, `p.focal_length >= ?`)
		args = append(args, *f.MinFocalLength)
	}
	if f.MaxFocalLength != nil {
		clauses = append(clauses, `p.focal_length <= ?`)
		args = append(args, *f.MaxFocalLength)
	}
	if f.HasGPS {
		clauses = append(clauses, `p.gps_latitude IS NOT NULL AND p.gps_longitude IS NOT NULL`)
	}
	if f.AlbumID != nil {
		clauses = append(clauses, `p.photo_id IN (SELECT ap.photo_id FROM album_photos ap WHERE ap.album_id = ?)`)
		args = append(args, *f.AlbumID)
	}
	if len(f.Extensions) > 0 {
		placeholders := make([]string, len(f.Extensions))
		for i, ext := range f.Extensions {
			placeholders[i] = "?"
			args = append(args, strings.ToLower(strings.TrimPrefix(ext, ".")))
		}
		clauses = append(clauses, `lower(p.format) IN (`+strings.Join(placeholders, ",")+`)`)
	}
	if f.FavoriteOnly {
		clauses = append(clauses, `p.is_favorite = 1`)
	}
	if f.DateFrom != nil {
		clauses = append(clauses, `p.date_taken >= ?`)
		args = append(args, *f.DateFrom)
	}
	if f.DateTo != nil {
		clauses = append(clauses, `p.date_taken <= ?`)
		args = append(args, *f.DateTo)
	}
	if f.FolderPath != nil {
		if f.Recursive {
			clauses = append(clauses, `p.file_path LIKE ? || '%'`)
			args = append(args, strings.TrimRight(*f.FolderPath, "/")+"/")
		} else {
			clauses = append(clauses, `p.file_path LIKE ? || '%' AND p.file_path NOT LIKE ? || '%/%'`)
			dir := strings.TrimRight(*f.FolderPath, "/") + "/"
			args = append(args, dir, dir)
		}
	}
	for _, name := range f.TagNames {
		clauses = append(clauses, `p.photo_id IN (SELECT pt.photo_id FROM photo_tags pt JOIN tags t ON t.tag_id = pt.tag_id WHERE t.tag_name = ?)`)
		args = append(args, name)
	}

	if len(clauses) == 0 {
		return joins, "1=1", args
	}
	return joins, strings.Join(clauses, " AND "), args
}

// Cursor identifies the last row of a previous page: the sort column's
// value there, and the photo id as a tiebreaker for equal sort values.
type Cursor struct {
	SortValue *string
	PhotoID   int64
}

// Page is one page of cursor-paginated results.
type Page struct {
	Photos     []*Photo
	NextCursor *Cursor
	HasMore    bool
}

// SearchPhotosCursor returns up to limit matching photos ordered by sort
// (NULLS LAST, id-tiebroken), starting after cursor. It fetches one extra
// row to determine HasMore without a separate COUNT query.
func (s *Store) SearchPhotosCursor(filters SearchFilters, sort SortField, dir SortDir, cursor *Cursor, limit int) (*Page, error) {
	if limit <= 0 {
		limit = 50
	}
	col, nullable := sort.column()
	joins, where, args := filters.predicate()

	query := fmt.Sprintf(`SELECT %s FROM photos p %s WHERE %s`, qualify("p", photoColumns), joins, where)

	if cursor != nil {
		op := dir.op()
		if cursor.SortValue == nil {
			// Previous page ended in the NULLS LAST tail: only rows with a
			// still-null sort value and an id past the cursor's in the sort
			// direction remain there.
			query += fmt.Sprintf(` AND (p.%s IS NULL AND p.photo_id %s ?)`, col, op)
			args = append(args, cursor.PhotoID)
		} else if nullable {
			query += fmt.Sprintf(
				` AND ((p.%s %s ?) OR (p.%s = ? AND p.photo_id %s ?) OR p.%s IS NULL)`,
				col, op, col, op, col,
			)
			args = append(args, *cursor.SortValue, *cursor.SortValue, cursor.PhotoID)
		} else {
			query += fmt.Sprintf(
				` AND ((p.%s %s ?) OR (p.%s = ? AND p.photo_id %s ?))`,
				col, op, col, op,
			)
			args = append(args, *cursor.SortValue, *cursor.SortValue, cursor.PhotoID)
		}
	}

	orderDir := string(dir)
	if nullable {
		query += fmt.Sprintf(` ORDER BY p.%s IS NULL, p.%s %s, p.photo_id %s`, col, col, orderDir, orderDir)
	} else {
		query += fmt.Sprintf(` ORDER BY p.%s %s, p.photo_id %s`, col, orderDir, orderDir)
	}
	query += ` LIMIT ?`
	args = append(args, limit+1)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, newErr(ErrKindStorageUnavailable, "store: search photos cursor", err)
	}
	defer rows.Close()

	var photos []*Photo
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, newErr(ErrKindStorageUnavailable, "store: scan search row", err)
		}
		photos = append(photos, p)
	}
	if err := rows.Err(); err != nil {
		return nil, newErr(ErrKindStorageUnavailable, "store: search photos cursor: rows", err)
	}

	page := &Page{}
	if len(photos) > limit {
		page.HasMore = true
		photos = photos[:limit]
	}
	page.Photos = photos
	if page.HasMore && len(photos) > 0 {
		last := photos[len(photos)-1]
		page.NextCursor = &Cursor{PhotoID: last.ID, SortValue: sortValueOf(last, sort)}
	}
	return page, nil
}

func sortValueOf(p *Photo, sort SortField) *string {
	switch sort {
	case SortDateTaken:
		return p.DateTaken
	case SortDateAdded:
		v := p.DateAdded
		return &v
	case SortRating:
		v := fmt.Sprintf("%d", p.Rating)
		return &v
	case SortFileName:
		v := p.FileName
		return &v
	default:
		return nil
	}
}

// PagedResult is one page of offset/limit pagination.
type PagedResult struct {
	Photos     []*Photo
	Page       int
	PageSize   int
	TotalCount int
	TotalPages int
}

// GetPhotosPage returns a classic offset-paginated result, used by UIs that
// want jump-to-page navigation rather than infinite scroll.
func (s *Store) GetPhotosPage(filters SearchFilters, sort SortField, dir SortDir, page, pageSize int) (*PagedResult, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 50
	}
	col, nullable := sort.column()
	joins, where, args := filters.predicate()

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM photos p %s WHERE %s`, joins, where)
	var total int
	if err := s.db.QueryRow(countQuery, args...).Scan(&total); err != nil {
		return nil, newErr(ErrKindStorageUnavailable, "store: count photos page", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM photos p %s WHERE %s`, qualify("p", photoColumns), joins, where)
	if nullable {
		query += fmt.Sprintf(` ORDER BY p.%s IS NULL, p.%s %s, p.photo_id %s`, col, col, dir, dir)
	} else {
		query += fmt.Sprintf(` ORDER BY p.%s %s, p.photo_id %s`, col, dir, dir)
	}
	query += ` LIMIT ? OFFSET ?`
	pageArgs := append(append([]any{}, args...), pageSize, (page-1)*pageSize)

	rows, err := s.db.Query(query, pageArgs...)
	if err != nil {
		return nil, newErr(ErrKindStorageUnavailable, "store: get photos page", err)
	}
	defer rows.Close()

	var photos []*Photo
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		photos = append(photos, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	totalPages := (total + pageSize - 1) / pageSize
	return &PagedResult{Photos: photos, Page: page, PageSize: pageSize, TotalCount: total, TotalPages: totalPages}, nil
}

// CountPhotos returns the number of photos matching filters, without
// fetching rows. Used to resolve a smart album's badge count cheaply.
func (s *Store) CountPhotos(filters SearchFilters) (int, error) {
	joins, where, args := filters.predicate()
	var count int
	err := s.db.QueryRow(fmt.Sprintf(`SELECT COUNT(*) FROM photos p %s WHERE %s`, joins, where), args...).Scan(&count)
	if err != nil {
		return 0, newErr(ErrKindStorageUnavailable, "store: count photos", err)
	}
	return count, nil
}

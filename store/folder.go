package store

import (
	"path/filepath"
	"strings"
)

// FolderEntry is one node in the folder tree derived from indexed photos'
// file paths: there is no separate folders table, so the tree is computed
// from distinct directory prefixes the way a filesystem browser would.
type FolderEntry struct {
	Path            string
	Name            string
	DirectCount     int
	RecursiveCount  int
	HasSubfolders   bool
}

// ListChildFolders returns the immediate subdirectories of parent that
// contain at least one indexed, non-deleted photo (directly or in a
// descendant), each annotated with its direct and recursive photo counts.
func (s *Store) ListChildFolders(parent string) ([]*FolderEntry, error) {
	parent = filepath.Clean(parent)
	prefix := parent
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}

	rows, err := s.db.Query(
		`SELECT file_path FROM photos WHERE is_deleted = 0 AND file_path LIKE ? || '%'`, prefix)
	if err != nil {
		return nil, newErr(ErrKindStorageUnavailable, "store: list child folders", err)
	}
	defer rows.Close()

	direct := map[string]int{}
	recursive := map[string]int{}
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, err
		}
		rel := strings.TrimPrefix(path, prefix)
		parts := strings.Split(rel, string(filepath.Separator))
		if len(parts) < 2 {
			continue // file sits directly in parent, not in a child folder
		}
		child := parts[0]
		childPath := filepath.Join(parent, child)
		recursive[childPath]++
		if len(parts) == 2 {
			direct[childPath]++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var out []*FolderEntry
	for childPath, rc := range recursive {
		out = append(out, &FolderEntry{
			Path:           childPath,
			Name:           filepath.Base(childPath),
			DirectCount:    direct[childPath],
			RecursiveCount: rc,
			HasSubfolders:  rc > direct[childPath],
		})
	}
	return out, nil
}

// GetFolderPhotoCounts returns the direct and recursive non-deleted photo
// counts for exactly one folder path.
func (s *Store) GetFolderPhotoCounts(path string) (direct int, recursive int, err error) {
	dir := filepath.Clean(path)
	if err := s.db.QueryRow(
		`SELECT COUNT(*) FROM photos WHERE is_deleted = 0 AND file_path LIKE ? || '%' AND file_path NOT LIKE ? || '%/%'`,
		dir+"/", dir+"/",
	).Scan(&direct); err != nil {
		return 0, 0, newErr(ErrKindStorageUnavailable, "store: folder direct count", err)
	}
	if err := s.db.QueryRow(
		`SELECT COUNT(*) FROM photos WHERE is_deleted = 0 AND file_path LIKE ? || '%'`,
		dir+"/",
	).Scan(&recursive); err != nil {
		return 0, 0, newErr(ErrKindStorageUnavailable, "store: folder recursive count", err)
	}
	return direct, recursive, nil
}

// ListDistinctRootDirectories returns the path of every registered
// scan_directories entry, used to seed the top of a folder-tree UI. It does
// not check whether a directory currently contains indexed photos.
func (s *Store) ListDistinctRootDirectories() ([]string, error) {
	dirs, err := s.ListScanDirectories()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(dirs))
	for _, d := range dirs {
		out = append(out, d.Path)
	}
	return out, nil
}

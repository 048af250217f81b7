package store

// schemaVersion is the current schema version this build expects. Older
// catalogs are brought up to this version by migrations on open.
const schemaVersion = 7

// initSchema creates every table and index used by a fresh catalog. Applied
// inside a single transaction; statements are idempotent (IF NOT EXISTS) so
// re-running initSchema against an already-migrated catalog is a no-op.
var initSchema = []string{
	`CREATE TABLE IF NOT EXISTS photos (
		photo_id         INTEGER PRIMARY KEY AUTOINCREMENT,
		file_path        TEXT NOT NULL UNIQUE,
		file_name        TEXT NOT NULL,
		file_size        INTEGER NOT NULL,
		file_hash        TEXT NOT NULL,
		width            INTEGER,
		height           INTEGER,
		format           TEXT,
		date_taken       TEXT,
		date_added       TEXT NOT NULL,
		date_modified    TEXT,
		camera_model     TEXT,
		lens_model       TEXT,
		focal_length     REAL,
		aperture         REAL,
		iso              INTEGER,
		shutter_speed    TEXT,
		gps_latitude     REAL,
		gps_longitude    REAL,
		orientation      INTEGER DEFAULT 1,
		rating           INTEGER DEFAULT 0 CHECK(rating >= 0 AND rating <= 5),
		is_favorite      INTEGER DEFAULT 0,
		is_deleted       INTEGER DEFAULT 0,
		ocr_text         TEXT,
		ocr_status       INTEGER DEFAULT 0,
		ocr_processed_at TEXT,
		deleted_at       TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS tags (
		tag_id       INTEGER PRIMARY KEY AUTOINCREMENT,
		tag_name     TEXT NOT NULL UNIQUE,
		color        TEXT,
		date_created TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS albums (
		album_id       INTEGER PRIMARY KEY AUTOINCREMENT,
		album_name     TEXT NOT NULL UNIQUE,
		description    TEXT,
		cover_photo_id INTEGER REFERENCES photos(photo_id) ON DELETE SET NULL,
		date_created   TEXT NOT NULL,
		sort_order     INTEGER DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS smart_albums (
		smart_album_id INTEGER PRIMARY KEY AUTOINCREMENT,
		name           TEXT NOT NULL UNIQUE,
		description    TEXT,
		filters        TEXT NOT NULL,
		icon           TEXT,
		color          TEXT,
		date_created   TEXT NOT NULL,
		date_modified  TEXT NOT NULL,
		sort_order     INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS photo_tags (
		photo_id     INTEGER NOT NULL REFERENCES photos(photo_id) ON DELETE CASCADE,
		tag_id       INTEGER NOT NULL REFERENCES tags(tag_id) ON DELETE CASCADE,
		date_created TEXT NOT NULL,
		PRIMARY KEY (photo_id, tag_id)
	)`,
	`CREATE TABLE IF NOT EXISTS album_photos (
		album_id   INTEGER NOT NULL REFERENCES albums(album_id) ON DELETE CASCADE,
		photo_id   INTEGER NOT NULL REFERENCES photos(photo_id) ON DELETE CASCADE,
		sort_order INTEGER DEFAULT 0,
		date_added TEXT NOT NULL,
		PRIMARY KEY (album_id, photo_id)
	)`,
	`CREATE TABLE IF NOT EXISTS scan_directories (
		dir_id           INTEGER PRIMARY KEY AUTOINCREMENT,
		dir_path         TEXT NOT NULL UNIQUE,
		last_scan        TEXT,
		is_active        INTEGER DEFAULT 1,
		last_change_time TEXT,
		no_change_count  INTEGER DEFAULT 0,
		scan_multiplier  INTEGER DEFAULT 1,
		next_scan_time   TEXT,
		file_count       INTEGER DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS schema_version (
		version    INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_photos_file_hash ON photos(file_hash)`,
	`CREATE INDEX IF NOT EXISTS idx_photos_date_taken ON photos(date_taken)`,
	`CREATE INDEX IF NOT EXISTS idx_photos_date_added ON photos(date_added)`,
	`CREATE INDEX IF NOT EXISTS idx_photos_rating ON photos(rating)`,
	`CREATE INDEX IF NOT EXISTS idx_photos_is_favorite ON photos(is_favorite)`,
	`CREATE INDEX IF NOT EXISTS idx_photos_camera_model ON photos(camera_model)`,
	`CREATE INDEX IF NOT EXISTS idx_photos_is_deleted ON photos(is_deleted)`,
	`CREATE INDEX IF NOT EXISTS idx_photos_ocr_status ON photos(ocr_status)`,
	`CREATE INDEX IF NOT EXISTS idx_photos_file_path ON photos(file_path)`,
	`CREATE INDEX IF NOT EXISTS idx_tags_tag_name ON tags(tag_name)`,
	`CREATE INDEX IF NOT EXISTS idx_albums_album_name ON albums(album_name)`,
	`CREATE INDEX IF NOT EXISTS idx_smart_albums_sort_order ON smart_albums(sort_order)`,
	`CREATE INDEX IF NOT EXISTS idx_photo_tags_photo_id ON photo_tags(photo_id)`,
	`CREATE INDEX IF NOT EXISTS idx_photo_tags_tag_id ON photo_tags(tag_id)`,
	`CREATE INDEX IF NOT EXISTS idx_photo_tags_composite ON photo_tags(photo_id, tag_id)`,
	`CREATE INDEX IF NOT EXISTS idx_album_photos_album_id ON album_photos(album_id)`,
	`CREATE INDEX IF NOT EXISTS idx_album_photos_photo_id ON album_photos(photo_id)`,
	`CREATE INDEX IF NOT EXISTS idx_scan_directories_next_scan ON scan_directories(next_scan_time)`,
}

// initFTS creates the photos_fts shadow table and its sync triggers. Kept
// separate from initSchema because the fts5 virtual table requires the
// sqlite3 build to have been compiled with the fts5 tag.
var initFTS = []string{
	`CREATE VIRTUAL TABLE IF NOT EXISTS photos_fts USING fts5(
		file_name,
		file_path,
		camera_model,
		lens_model,
		format,
		shutter_speed,
		ocr_text,
		content='photos',
		content_rowid='photo_id',
		tokenize='unicode61 remove_diacritics 2'
	)`,
	`CREATE TRIGGER IF NOT EXISTS photos_fts_insert AFTER INSERT ON photos BEGIN
		INSERT INTO photos_fts(rowid, file_name, file_path, camera_model, lens_model, format, shutter_speed, ocr_text)
		VALUES (NEW.photo_id, NEW.file_name, NEW.file_path, NEW.camera_model, NEW.lens_model, NEW.format, NEW.shutter_speed, NEW.ocr_text);
	END`,
	`CREATE TRIGGER IF NOT EXISTS photos_fts_delete AFTER DELETE ON photos BEGIN
		INSERT INTO photos_fts(photos_fts, rowid, file_name, file_path, camera_model, lens_model, format, shutter_speed, ocr_text)
		VALUES ('delete', OLD.photo_id, OLD.file_name, OLD.file_path, OLD.camera_model, OLD.lens_model, OLD.format, OLD.shutter_speed, OLD.ocr_text);
	END`,
	`CREATE TRIGGER IF NOT EXISTS photos_fts_update AFTER UPDATE ON photos BEGIN
		INSERT INTO photos_fts(photos_fts, rowid, file_name, file_path, camera_model, lens_model, format, shutter_speed, ocr_text)
		VALUES ('delete', OLD.photo_id, OLD.file_name, OLD.file_path, OLD.camera_model, OLD.lens_model, OLD.format, OLD.shutter_speed, OLD.ocr_text);
		INSERT INTO photos_fts(rowid, file_name, file_path, camera_model, lens_model, format, shutter_speed, ocr_text)
		VALUES (NEW.photo_id, NEW.file_name, NEW.file_path, NEW.camera_model, NEW.lens_model, NEW.format, NEW.shutter_speed, NEW.ocr_text);
	END`,
}

// migration is one step in the schema_version ladder. Statements run
// sequentially inside the migrating transaction.
type migration struct {
	version     int
	description string
	statements  []string
}

// migrations mirrors the original catalog's migration ladder version for
// version, so a catalog produced by an older build of this engine upgrades
// in place instead of requiring a rebuild.
var migrations = []migration{
	{
		version:     2,
		description: "add soft delete columns for trash feature",
		statements: []string{
			`ALTER TABLE photos ADD COLUMN is_deleted INTEGER DEFAULT 0`,
			`ALTER TABLE photos ADD COLUMN deleted_at TEXT`,
			`CREATE INDEX IF NOT EXISTS idx_photos_is_deleted ON photos(is_deleted)`,
		},
	},
	{
		version:     3,
		description: "add file_path index and composite photo_tags index",
		statements: []string{
			`CREATE INDEX IF NOT EXISTS idx_photos_file_path ON photos(file_path)`,
			`CREATE INDEX IF NOT EXISTS idx_photo_tags_composite ON photo_tags(photo_id, tag_id)`,
		},
	},
	{
		version:     4,
		description: "extend scan_directories for stepped scan frequency",
		statements: []string{
			`ALTER TABLE scan_directories ADD COLUMN last_change_time TEXT`,
			`ALTER TABLE scan_directories ADD COLUMN no_change_count INTEGER DEFAULT 0`,
			`ALTER TABLE scan_directories ADD COLUMN scan_multiplier INTEGER DEFAULT 1`,
			`ALTER TABLE scan_directories ADD COLUMN next_scan_time TEXT`,
			`ALTER TABLE scan_directories ADD COLUMN file_count INTEGER DEFAULT 0`,
			`CREATE INDEX IF NOT EXISTS idx_scan_directories_next_scan ON scan_directories(next_scan_time)`,
		},
	},
	{
		version:     5,
		description: "add smart albums table",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS smart_albums (
				smart_album_id INTEGER PRIMARY KEY AUTOINCREMENT,
				name           TEXT NOT NULL UNIQUE,
				description    TEXT,
				filters        TEXT NOT NULL,
				icon           TEXT,
				color          TEXT,
				date_created   TEXT NOT NULL DEFAULT (datetime('now')),
				date_modified  TEXT NOT NULL DEFAULT (datetime('now')),
				sort_order     INTEGER NOT NULL DEFAULT 0
			)`,
			`CREATE INDEX IF NOT EXISTS idx_smart_albums_sort_order ON smart_albums(sort_order)`,
		},
	},
	{
		version:     6,
		description: "extend FTS5 index with format and shutter_speed",
		statements: []string{
			`DROP TRIGGER IF EXISTS photos_fts_insert`,
			`DROP TRIGGER IF EXISTS photos_fts_delete`,
			`DROP TRIGGER IF EXISTS photos_fts_update`,
			`DROP TABLE IF EXISTS photos_fts`,
			`CREATE VIRTUAL TABLE photos_fts USING fts5(
				file_name, file_path, camera_model, lens_model, format, shutter_speed,
				content='photos', content_rowid='photo_id',
				tokenize='unicode61 remove_diacritics 2'
			)`,
			`INSERT INTO photos_fts(rowid, file_name, file_path, camera_model, lens_model, format, shutter_speed)
			 SELECT photo_id, file_name, file_path, camera_model, lens_model, format, shutter_speed FROM photos`,
			`CREATE TRIGGER photos_fts_insert AFTER INSERT ON photos BEGIN
				INSERT INTO photos_fts(rowid, file_name, file_path, camera_model, lens_model, format, shutter_speed)
				VALUES (NEW.photo_id, NEW.file_name, NEW.file_path, NEW.camera_model, NEW.lens_model, NEW.format, NEW.shutter_speed);
			END`,
			`CREATE TRIGGER photos_fts_delete AFTER DELETE ON photos BEGIN
				INSERT INTO photos_fts(photos_fts, rowid, file_name, file_path, camera_model, lens_model, format, shutter_speed)
				VALUES ('delete', OLD.photo_id, OLD.file_name, OLD.file_path, OLD.camera_model, OLD.lens_model, OLD.format, OLD.shutter_speed);
			END`,
			`CREATE TRIGGER photos_fts_update AFTER UPDATE ON photos BEGIN
				INSERT INTO photos_fts(photos_fts, rowid, file_name, file_path, camera_model, lens_model, format, shutter_speed)
				VALUES ('delete', OLD.photo_id, OLD.file_name, OLD.file_path, OLD.camera_model, OLD.lens_model, OLD.format, OLD.shutter_speed);
				INSERT INTO photos_fts(rowid, file_name, file_path, camera_model, lens_model, format, shutter_speed)
				VALUES (NEW.photo_id, NEW.file_name, NEW.file_path, NEW.camera_model, NEW.lens_model, NEW.format, NEW.shutter_speed);
			END`,
		},
	},
	{
		version:     7,
		description: "add OCR fields and extend FTS5 index with ocr_text",
		statements: []string{
			`ALTER TABLE photos ADD COLUMN ocr_text TEXT`,
			`ALTER TABLE photos ADD COLUMN ocr_status INTEGER DEFAULT 0`,
			`ALTER TABLE photos ADD COLUMN ocr_processed_at TEXT`,
			`CREATE INDEX IF NOT EXISTS idx_photos_ocr_status ON photos(ocr_status)`,
			`DROP TRIGGER IF EXISTS photos_fts_insert`,
			`DROP TRIGGER IF EXISTS photos_fts_delete`,
			`DROP TRIGGER IF EXISTS photos_fts_update`,
			`DROP TABLE IF EXISTS photos_fts`,
			`CREATE VIRTUAL TABLE photos_fts USING fts5(
				file_name, file_path, camera_model, lens_model, format, shutter_speed, ocr_text,
				content='photos', content_rowid='photo_id',
				tokenize='unicode61 remove_diacritics 2'
			)`,
			`INSERT INTO photos_fts(rowid, file_name, file_path, camera_model, lens_model, format, shutter_speed, ocr_text)
			 SELECT photo_id, file_name, file_path, camera_model, lens_model, format, shutter_speed, ocr_text FROM photos`,
			`CREATE TRIGGER photos_fts_insert AFTER INSERT ON photos BEGIN
				INSERT INTO photos_fts(rowid, file_name, file_path, camera_model, lens_model, format, shutter_speed, ocr_text)
				VALUES (NEW.photo_id, NEW.file_name, NEW.file_path, NEW.camera_model, NEW.lens_model, NEW.format, NEW.shutter_speed, NEW.ocr_text);
			END`,
			`CREATE TRIGGER photos_fts_delete AFTER DELETE ON photos BEGIN
				INSERT INTO photos_fts(photos_fts, rowid, file_name, file_path, camera_model, lens_model, format, shutter_speed, ocr_text)
				VALUES ('delete', OLD.photo_id, OLD.file_name, OLD.file_path, OLD.camera_model, OLD.lens_model, OLD.format, OLD.shutter_speed, OLD.ocr_text);
			END`,
			`CREATE TRIGGER photos_fts_update AFTER UPDATE ON photos BEGIN
				INSERT INTO photos_fts(photos_fts, rowid, file_name, file_path, camera_model, lens_model, format, shutter_speed, ocr_text)
				VALUES ('delete', OLD.photo_id, OLD.file_name, OLD.file_path, OLD.camera_model, OLD.lens_model, OLD.format, OLD.shutter_speed, OLD.ocr_text);
				INSERT INTO photos_fts(rowid, file_name, file_path, camera_model, lens_model, format, shutter_speed, ocr_text)
				VALUES (NEW.photo_id, NEW.file_name, NEW.file_path, NEW.camera_model, NEW.lens_model, NEW.format, NEW.shutter_speed, NEW.ocr_text);
			END`,
		},
	},
}

package store

// baselineSchema is the version-1 schema. Later columns and tables
// arrive through migrations so that existing databases upgrade in
// place; a fresh database runs the same migration path.
const baselineSchema = `
-- Tracked source documents. Paths are user-facing, so NOCASE.
CREATE TABLE IF NOT EXISTS files (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	path           TEXT NOT NULL UNIQUE COLLATE NOCASE,
	name           TEXT NOT NULL,
	modified_ticks INTEGER NOT NULL
);

-- Normalized tokens with a denormalized distinct-file count.
CREATE TABLE IF NOT EXISTS tags (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL UNIQUE COLLATE NOCASE,
	file_count INTEGER NOT NULL DEFAULT 0
);

-- Weighted file<->tag association split by source bucket.
-- Re-derived in full per file on every re-index, never patched.
CREATE TABLE IF NOT EXISTS file_tags (
	file_id        INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
	tag_id         INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
	count          INTEGER NOT NULL DEFAULT 0,
	filename_count INTEGER NOT NULL DEFAULT 0,
	path_count     INTEGER NOT NULL DEFAULT 0,
	content_count  INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (file_id, tag_id)
);
CREATE INDEX IF NOT EXISTS idx_file_tags_tag ON file_tags(tag_id);

-- Singleton index bookkeeping. Exactly one row, id = 1.
CREATE TABLE IF NOT EXISTS index_state (
	id              INTEGER PRIMARY KEY CHECK (id = 1),
	schema_version  INTEGER NOT NULL,
	last_scan_ticks INTEGER NOT NULL DEFAULT 0,
	library_root    TEXT NOT NULL DEFAULT ''
);

-- Stable color per observed folder path.
CREATE TABLE IF NOT EXISTS category_colors (
	folder_path TEXT PRIMARY KEY COLLATE NOCASE,
	color       TEXT NOT NULL
);

-- Stable color + cluster per tag.
CREATE TABLE IF NOT EXISTS tag_colors (
	tag_name   TEXT PRIMARY KEY COLLATE NOCASE,
	color      TEXT NOT NULL,
	cluster_id INTEGER NOT NULL
);

-- Singleton clustering hysteresis record. Exactly one row, id = 1.
CREATE TABLE IF NOT EXISTS tag_color_state (
	id             INTEGER PRIMARY KEY CHECK (id = 1),
	last_tag_count INTEGER NOT NULL DEFAULT 0,
	last_tag_hash  TEXT NOT NULL DEFAULT ''
);

-- Full-text prefix index over tag names for autocomplete.
CREATE VIRTUAL TABLE IF NOT EXISTS tag_fts USING fts5(
	name,
	tokenize='unicode61'
);

INSERT OR IGNORE INTO index_state (id, schema_version) VALUES (1, 1);
INSERT OR IGNORE INTO tag_color_state (id) VALUES (1);
`

// telemetrySchema arrived with schema version 3. Daily per-operation
// rollups, upserted best-effort by the telemetry recorder.
const telemetrySchema = `
CREATE TABLE IF NOT EXISTS query_metrics (
	date         TEXT NOT NULL,
	operation    TEXT NOT NULL,
	count        INTEGER NOT NULL DEFAULT 0,
	total_ms     INTEGER NOT NULL DEFAULT 0,
	max_ms       INTEGER NOT NULL DEFAULT 0,
	zero_results INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (date, operation)
);
`

package store

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS notes (
	id            TEXT PRIMARY KEY,
	title         TEXT NOT NULL DEFAULT 'Untitled',
	title_key     TEXT NOT NULL DEFAULT 'untitled',
	content       TEXT,
	plain_text    TEXT NOT NULL DEFAULT '',
	emoji         TEXT,
	parent_id     TEXT REFERENCES notes(id) ON DELETE CASCADE,
	is_folder     INTEGER NOT NULL DEFAULT 0,
	is_favorite   INTEGER NOT NULL DEFAULT 0,
	is_pinned     INTEGER NOT NULL DEFAULT 0,
	is_trashed    INTEGER NOT NULL DEFAULT 0,
	sort_order    INTEGER NOT NULL DEFAULT 0,
	created_at    INTEGER NOT NULL,
	updated_at    INTEGER NOT NULL,
	trashed_at    INTEGER,
	trash_root_id TEXT,
	word_count    INTEGER NOT NULL DEFAULT 0,
	daily_date    TEXT UNIQUE,
	save_seq      INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_notes_parent ON notes(parent_id);
CREATE INDEX IF NOT EXISTS idx_notes_updated ON notes(updated_at);
CREATE INDEX IF NOT EXISTS idx_notes_title_key ON notes(title_key);
CREATE INDEX IF NOT EXISTS idx_notes_trash_root ON notes(trash_root_id);

CREATE TABLE IF NOT EXISTS tags (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	color      TEXT DEFAULT '#6366f1',
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS note_tags (
	note_id TEXT NOT NULL REFERENCES notes(id) ON DELETE CASCADE,
	tag_id  TEXT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
	source  TEXT NOT NULL DEFAULT 'inline' CHECK (source IN ('inline', 'manual')),
	PRIMARY KEY (note_id, tag_id)
);

CREATE INDEX IF NOT EXISTS idx_note_tags_tag ON note_tags(tag_id);

CREATE TABLE IF NOT EXISTS wikilinks (
	source_note_id TEXT NOT NULL REFERENCES notes(id) ON DELETE CASCADE,
	target_title   TEXT NOT NULL,
	target_key     TEXT NOT NULL,
	PRIMARY KEY (source_note_id, target_key)
);

CREATE INDEX IF NOT EXISTS idx_wikilinks_target ON wikilinks(target_key);

CREATE TABLE IF NOT EXISTS flashcards (
	id          TEXT PRIMARY KEY,
	note_id     TEXT NOT NULL REFERENCES notes(id) ON DELETE CASCADE,
	question    TEXT NOT NULL,
	answer      TEXT NOT NULL,
	next_review INTEGER NOT NULL,
	interval    REAL NOT NULL DEFAULT 0,
	ease_factor REAL NOT NULL DEFAULT 2.5,
	repetitions INTEGER NOT NULL DEFAULT 0,
	created_at  INTEGER NOT NULL,
	updated_at  INTEGER NOT NULL,
	UNIQUE (note_id, question)
);

CREATE INDEX IF NOT EXISTS idx_flashcards_review ON flashcards(next_review);

CREATE TABLE IF NOT EXISTS flashcard_reviews (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	card_id     TEXT REFERENCES flashcards(id) ON DELETE SET NULL,
	rating      INTEGER NOT NULL,
	reviewed_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_flashcard_reviews_at ON flashcard_reviews(reviewed_at);

CREATE TABLE IF NOT EXISTS canvas_items (
	id         TEXT PRIMARY KEY,
	note_id    TEXT REFERENCES notes(id) ON DELETE CASCADE,
	x          REAL NOT NULL DEFAULT 0,
	y          REAL NOT NULL DEFAULT 0,
	width      REAL NOT NULL DEFAULT 200,
	height     REAL NOT NULL DEFAULT 150,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS canvas_connections (
	id           TEXT PRIMARY KEY,
	from_item_id TEXT NOT NULL REFERENCES canvas_items(id) ON DELETE CASCADE,
	to_item_id   TEXT NOT NULL REFERENCES canvas_items(id) ON DELETE CASCADE,
	created_at   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS snippets (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	content    TEXT NOT NULL DEFAULT '',
	language   TEXT NOT NULL DEFAULT 'text',
	tags       TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS writing_stats (
	date               TEXT PRIMARY KEY,
	words_written      INTEGER NOT NULL DEFAULT 0,
	notes_edited       INTEGER NOT NULL DEFAULT 0,
	time_spent_seconds INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS inbox_imports (
	path        TEXT PRIMARY KEY,
	checksum    TEXT NOT NULL,
	note_id     TEXT REFERENCES notes(id) ON DELETE SET NULL,
	imported_at INTEGER NOT NULL
);
`

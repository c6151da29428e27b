package store

// schema is idempotent and applied on every Open. Deletions cascade
// down the ownership chain project -> sentence -> token -> annotation,
// so retiring a token retires its annotation with it. Note anchors are
// nulled rather than cascaded; note reattachment is editor logic.
const schema = `
CREATE TABLE IF NOT EXISTS projects (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT    NOT NULL UNIQUE,
	created_at TEXT    NOT NULL,
	updated_at TEXT    NOT NULL
);

CREATE TABLE IF NOT EXISTS sentences (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	project_id      INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	seq             INTEGER NOT NULL,
	text            TEXT    NOT NULL,
	translation     TEXT    NOT NULL DEFAULT '',
	paragraph_start INTEGER NOT NULL DEFAULT 0,
	created_at      TEXT    NOT NULL,
	updated_at      TEXT    NOT NULL,
	UNIQUE(project_id, seq)
);

CREATE TABLE IF NOT EXISTS tokens (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	sentence_id INTEGER NOT NULL REFERENCES sentences(id) ON DELETE CASCADE,
	position    INTEGER NOT NULL,
	surface     TEXT    NOT NULL,
	lemma       TEXT    NOT NULL DEFAULT '',
	created_at  TEXT    NOT NULL,
	updated_at  TEXT    NOT NULL,
	UNIQUE(sentence_id, position)
);

CREATE TABLE IF NOT EXISTS annotations (
	token_id     INTEGER PRIMARY KEY REFERENCES tokens(id) ON DELETE CASCADE,
	pos          TEXT    NOT NULL DEFAULT '',
	gender       TEXT    NOT NULL DEFAULT '',
	number       TEXT    NOT NULL DEFAULT '',
	gram_case    TEXT    NOT NULL DEFAULT '',
	declension   TEXT    NOT NULL DEFAULT '',
	pronoun_type TEXT    NOT NULL DEFAULT '',
	verb_class   TEXT    NOT NULL DEFAULT '',
	verb_tense   TEXT    NOT NULL DEFAULT '',
	verb_person  INTEGER,
	verb_mood    TEXT    NOT NULL DEFAULT '',
	verb_aspect  TEXT    NOT NULL DEFAULT '',
	verb_form    TEXT    NOT NULL DEFAULT '',
	prep_case    TEXT    NOT NULL DEFAULT '',
	uncertain    INTEGER NOT NULL DEFAULT 0,
	confidence   INTEGER,
	updated_at   TEXT    NOT NULL
);

CREATE TABLE IF NOT EXISTS notes (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	sentence_id INTEGER NOT NULL REFERENCES sentences(id) ON DELETE CASCADE,
	start_token INTEGER REFERENCES tokens(id) ON DELETE SET NULL,
	end_token   INTEGER REFERENCES tokens(id) ON DELETE SET NULL,
	body        TEXT    NOT NULL,
	kind        TEXT    NOT NULL DEFAULT 'token',
	created_at  TEXT    NOT NULL,
	updated_at  TEXT    NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sentences_project ON sentences(project_id);
CREATE INDEX IF NOT EXISTS idx_tokens_sentence ON tokens(sentence_id);
CREATE INDEX IF NOT EXISTS idx_notes_sentence ON notes(sentence_id);
`

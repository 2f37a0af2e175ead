package extractlog

// Schema is the DDL of the extraction audit trail. Idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS extractions (
    entry_id      TEXT PRIMARY KEY,
    timestamp     INTEGER NOT NULL,
    request_id    TEXT,
    session_id    TEXT,
    transport     TEXT,
    path          TEXT NOT NULL,
    page          INTEGER NOT NULL,
    page_count    INTEGER NOT NULL DEFAULT 0,
    total_items   INTEGER NOT NULL DEFAULT 0,
    total_lines   INTEGER NOT NULL DEFAULT 0,
    flags         TEXT NOT NULL DEFAULT '{}',
    status        TEXT NOT NULL,
    error_message TEXT,
    duration_ms   INTEGER NOT NULL DEFAULT 0,
    created_at    INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
);
CREATE INDEX IF NOT EXISTS idx_extractions_timestamp ON extractions(timestamp DESC);
CREATE INDEX IF NOT EXISTS idx_extractions_path ON extractions(path, page);
`

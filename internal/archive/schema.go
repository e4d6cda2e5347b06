package archive

const schema = `
CREATE TABLE IF NOT EXISTS reports (
    id TEXT PRIMARY KEY,
    crash_type TEXT NOT NULL,
    title TEXT NOT NULL,
    harvested_at TEXT NOT NULL,
    size_bytes INTEGER NOT NULL,
    compression TEXT NOT NULL,
    body BLOB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reports_harvested ON reports(harvested_at);
CREATE INDEX IF NOT EXISTS idx_reports_type ON reports(crash_type);
`

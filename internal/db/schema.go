package db

const postgresSchema = `
CREATE TABLE IF NOT EXISTS search_history (
    id           BIGSERIAL PRIMARY KEY,
    user_id      BIGINT NOT NULL,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    command      TEXT NOT NULL,
    user_request TEXT NOT NULL DEFAULT 'Search was canceled by user',
    bot_response TEXT NOT NULL DEFAULT 'not initialized'
);
CREATE INDEX IF NOT EXISTS idx_search_history_user ON search_history (user_id, id DESC);
`

// created_at holds unix milliseconds.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS search_history (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id      INTEGER NOT NULL,
    created_at   INTEGER NOT NULL,
    command      TEXT NOT NULL,
    user_request TEXT NOT NULL DEFAULT 'Search was canceled by user',
    bot_response TEXT NOT NULL DEFAULT 'not initialized'
);
CREATE INDEX IF NOT EXISTS idx_search_history_user ON search_history (user_id, id DESC);
`

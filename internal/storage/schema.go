package storage

const schema = `
-- The 'store' table holds the whole flashcard document in a single row.
CREATE TABLE IF NOT EXISTS store (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    body TEXT NOT NULL,
    updated_at DATETIME NOT NULL
);
`

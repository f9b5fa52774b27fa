package storage

const schema = `
-- Decks form a forest through parent_id. seq preserves insertion order.
CREATE TABLE IF NOT EXISTS decks (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    parent_id TEXT,
    position INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL,

    FOREIGN KEY(parent_id) REFERENCES decks(id)
);

-- Cards carry their review schedule. last_reviewed_date and last_score are set together.
CREATE TABLE IF NOT EXISTS cards (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    title TEXT NOT NULL,
    content TEXT NOT NULL DEFAULT '',
    deck_id TEXT NOT NULL,
    next_due_date DATETIME NOT NULL,
    last_reviewed_date DATETIME,
    last_score INTEGER CHECK (last_score BETWEEN 1 AND 5),
    ease REAL NOT NULL DEFAULT 0,
    repetitions INTEGER NOT NULL DEFAULT 0,
    lapses INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL,

    CHECK ((last_reviewed_date IS NULL) = (last_score IS NULL)),
    FOREIGN KEY(deck_id) REFERENCES decks(id)
);

CREATE INDEX IF NOT EXISTS idx_cards_deck ON cards(deck_id);
CREATE INDEX IF NOT EXISTS idx_cards_due ON cards(next_due_date);

-- One row per committed review.
CREATE TABLE IF NOT EXISTS review_logs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    card_id TEXT NOT NULL,
    score INTEGER NOT NULL,
    reviewed_at DATETIME NOT NULL,
    prev_due DATETIME NOT NULL,
    interval_days INTEGER NOT NULL,

    FOREIGN KEY(card_id) REFERENCES cards(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_review_logs_card ON review_logs(card_id);
`

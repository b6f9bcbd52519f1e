package sqlite

import "database/sql"

// schema contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
//
// idx_rounds_in_flight allows at most one unsettled round per room. A round
// leaves the index only when its settlement commits, so a new round cannot
// start before the previous one has been applied and the turn advanced.
const schema = `
CREATE TABLE IF NOT EXISTS rooms (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'setup',
    default_budget INTEGER NOT NULL,
    current_turn INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS participants (
    id TEXT PRIMARY KEY,
    room_id TEXT NOT NULL,
    display_name TEXT NOT NULL,
    budget INTEGER NOT NULL CHECK (budget >= 0),
    turn_order INTEGER NOT NULL,
    created_at INTEGER NOT NULL,
    UNIQUE (room_id, turn_order),
    FOREIGN KEY (room_id) REFERENCES rooms(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS items (
    id TEXT PRIMARY KEY,
    room_id TEXT NOT NULL,
    name TEXT NOT NULL,
    category TEXT NOT NULL CHECK (category IN ('P', 'D', 'C', 'A')),
    team TEXT NOT NULL DEFAULT '',
    allocated INTEGER NOT NULL DEFAULT 0,
    allocated_to TEXT,
    price INTEGER NOT NULL DEFAULT 0,
    round_id TEXT,
    FOREIGN KEY (room_id) REFERENCES rooms(id) ON DELETE CASCADE,
    FOREIGN KEY (allocated_to) REFERENCES participants(id)
);

CREATE TABLE IF NOT EXISTS rounds (
    id TEXT PRIMARY KEY,
    room_id TEXT NOT NULL,
    item_id TEXT NOT NULL,
    nominator_id TEXT NOT NULL,
    turn_index INTEGER NOT NULL,
    start_time INTEGER NOT NULL,
    end_time INTEGER NOT NULL,
    active INTEGER NOT NULL DEFAULT 1,
    closed_at INTEGER,
    close_reason TEXT,
    settled_at INTEGER,
    FOREIGN KEY (room_id) REFERENCES rooms(id) ON DELETE CASCADE,
    FOREIGN KEY (item_id) REFERENCES items(id),
    FOREIGN KEY (nominator_id) REFERENCES participants(id)
);

CREATE TABLE IF NOT EXISTS bids (
    round_id TEXT NOT NULL,
    participant_id TEXT NOT NULL,
    amount INTEGER NOT NULL CHECK (amount >= 0),
    placed_at INTEGER NOT NULL, -- unix nanoseconds
    seq INTEGER NOT NULL,
    PRIMARY KEY (round_id, participant_id),
    FOREIGN KEY (round_id) REFERENCES rounds(id) ON DELETE CASCADE,
    FOREIGN KEY (participant_id) REFERENCES participants(id)
);

CREATE TABLE IF NOT EXISTS outcomes (
    round_id TEXT PRIMARY KEY,
    room_id TEXT NOT NULL,
    item_id TEXT NOT NULL,
    winner_id TEXT NOT NULL,
    price INTEGER NOT NULL,
    fallback INTEGER NOT NULL,
    previous_turn INTEGER NOT NULL,
    new_turn INTEGER NOT NULL,
    room_completed INTEGER NOT NULL DEFAULT 0,
    settled_at INTEGER NOT NULL,
    FOREIGN KEY (round_id) REFERENCES rounds(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS outcome_bids (
    round_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    participant_id TEXT NOT NULL,
    display_name TEXT NOT NULL,
    amount INTEGER NOT NULL,
    placed_at INTEGER NOT NULL, -- unix nanoseconds
    offset_ns INTEGER NOT NULL,
    PRIMARY KEY (round_id, position),
    FOREIGN KEY (round_id) REFERENCES outcomes(round_id) ON DELETE CASCADE
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_rounds_in_flight ON rounds(room_id) WHERE settled_at IS NULL;
CREATE INDEX IF NOT EXISTS idx_rounds_active_end ON rounds(active, end_time);
CREATE INDEX IF NOT EXISTS idx_rounds_item ON rounds(room_id, item_id);
CREATE INDEX IF NOT EXISTS idx_participants_room_id ON participants(room_id);
CREATE INDEX IF NOT EXISTS idx_items_room_id ON items(room_id);
CREATE INDEX IF NOT EXISTS idx_items_allocated_to ON items(allocated_to);
CREATE INDEX IF NOT EXISTS idx_outcomes_room_id ON outcomes(room_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
